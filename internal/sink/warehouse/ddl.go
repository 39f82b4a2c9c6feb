package warehouse

// tableDDL creates the star schema. Each statement takes the quoted
// schema name as its single format argument. Types mirror the Parquet
// schema; no constraints beyond NOT NULL on surrogate/natural keys, the
// loader owns uniqueness (tables are rebuilt wholesale every run).
var tableDDL = []string{
	`CREATE TABLE IF NOT EXISTS %[1]s.songs (
		song_id   text NOT NULL,
		title     text,
		artist_id text,
		year      integer,
		duration  double precision
	)`,
	`CREATE TABLE IF NOT EXISTS %[1]s.artists (
		artist_id text NOT NULL,
		name      text,
		location  text,
		latitude  double precision,
		longitude double precision
	)`,
	`CREATE TABLE IF NOT EXISTS %[1]s.users (
		user_id    text NOT NULL,
		first_name text,
		last_name  text,
		gender     text,
		level      text
	)`,
	`CREATE TABLE IF NOT EXISTS %[1]s.time (
		start_time bigint NOT NULL,
		hour       integer,
		day        integer,
		week       integer,
		month      integer,
		year       integer,
		weekday    integer
	)`,
	`CREATE TABLE IF NOT EXISTS %[1]s.songplays (
		songplay_id bigint NOT NULL,
		start_time  bigint,
		user_id     text,
		level       text,
		song_id     text,
		artist_id   text,
		session_id  bigint,
		location    text,
		user_agent  text,
		month       integer,
		year        integer
	)`,
}
