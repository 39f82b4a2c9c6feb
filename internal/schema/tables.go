// Package schema defines the five output tables of the star schema and
// their typed row representations.
//
// Row structs carry parquet-go tags and double as the COPY row source
// for the optional warehouse load (Columns/Values stay aligned). The
// partition path of a row follows the Hive layout, e.g.
// "year=2018/month=11"; unpartitioned tables return "".
package schema

import "fmt"

// Row is implemented by every table's row struct.
type Row interface {
	// Partition returns the Hive-style partition path for the row
	// ("year=2018/month=11"), or "" for unpartitioned tables.
	Partition() string

	// Values returns the row in Table.Columns order for COPY loads.
	Values() []any
}

// Table describes one output table.
type Table struct {
	// Name is the destination directory (and warehouse table) name.
	Name string

	// PartitionBy lists the partition column names in path order.
	// Empty means the table is written as a single partition.
	PartitionBy []string

	// Columns enumerates the destination columns in Values() order.
	Columns []string
}

var (
	Songs = Table{
		Name:        "songs",
		PartitionBy: []string{"year", "artist_id"},
		Columns:     []string{"song_id", "title", "artist_id", "year", "duration"},
	}
	Artists = Table{
		Name:    "artists",
		Columns: []string{"artist_id", "name", "location", "latitude", "longitude"},
	}
	Users = Table{
		Name:    "users",
		Columns: []string{"user_id", "first_name", "last_name", "gender", "level"},
	}
	TimeDim = Table{
		Name:        "time",
		PartitionBy: []string{"year", "month"},
		Columns:     []string{"start_time", "hour", "day", "week", "month", "year", "weekday"},
	}
	Songplays = Table{
		Name:        "songplays",
		PartitionBy: []string{"year", "month"},
		Columns: []string{
			"songplay_id", "start_time", "user_id", "level", "song_id",
			"artist_id", "session_id", "location", "user_agent", "month", "year",
		},
	}
)

// Song is one catalog item, keyed by SongID.
type Song struct {
	SongID   string  `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Title    string  `parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistID string  `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year     int32   `parquet:"name=year, type=INT32"`
	Duration float64 `parquet:"name=duration, type=DOUBLE"`
}

func (s Song) Partition() string {
	return fmt.Sprintf("year=%d/artist_id=%s", s.Year, pathValue(s.ArtistID))
}

func (s Song) Values() []any {
	return []any{s.SongID, s.Title, s.ArtistID, s.Year, s.Duration}
}

// Artist is one deduplicated creator row. The geo fields are optional
// in the catalog and stay nullable here.
type Artist struct {
	ArtistID  string   `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name      string   `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Location  *string  `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Latitude  *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
}

func (a Artist) Partition() string { return "" }

func (a Artist) Values() []any {
	return []any{a.ArtistID, a.Name, a.Location, a.Latitude, a.Longitude}
}

// User is one deduplicated listener row. Deduplication is structural
// (distinct tuples): a user whose level changed across events appears
// once per distinct tuple, not last-seen-wins.
type User struct {
	UserID    string `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	FirstName string `parquet:"name=first_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	LastName  string `parquet:"name=last_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Gender    string `parquet:"name=gender, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level     string `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func (u User) Partition() string { return "" }

func (u User) Values() []any {
	return []any{u.UserID, u.FirstName, u.LastName, u.Gender, u.Level}
}

// TimeEntry is the calendar decomposition of one event timestamp,
// interpreted as UTC. StartTime is epoch seconds (truncated from the
// source epoch-millis value).
type TimeEntry struct {
	StartTime int64 `parquet:"name=start_time, type=INT64"`
	Hour      int32 `parquet:"name=hour, type=INT32"`
	Day       int32 `parquet:"name=day, type=INT32"`
	Week      int32 `parquet:"name=week, type=INT32"`
	Month     int32 `parquet:"name=month, type=INT32"`
	Year      int32 `parquet:"name=year, type=INT32"`
	Weekday   int32 `parquet:"name=weekday, type=INT32"`
}

func (t TimeEntry) Partition() string {
	return fmt.Sprintf("year=%d/month=%d", t.Year, t.Month)
}

func (t TimeEntry) Values() []any {
	return []any{t.StartTime, t.Hour, t.Day, t.Week, t.Month, t.Year, t.Weekday}
}

// Songplay is one row of the fact table. SongplayID is a surrogate key:
// a dense 1-based rank by StartTime ascending.
type Songplay struct {
	SongplayID int64  `parquet:"name=songplay_id, type=INT64"`
	StartTime  int64  `parquet:"name=start_time, type=INT64"`
	UserID     string `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level      string `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
	SongID     string `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistID   string `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SessionID  int64  `parquet:"name=session_id, type=INT64"`
	Location   string `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserAgent  string `parquet:"name=user_agent, type=BYTE_ARRAY, convertedtype=UTF8"`
	Month      int32  `parquet:"name=month, type=INT32"`
	Year       int32  `parquet:"name=year, type=INT32"`
}

func (p Songplay) Partition() string {
	return fmt.Sprintf("year=%d/month=%d", p.Year, p.Month)
}

func (p Songplay) Values() []any {
	return []any{
		p.SongplayID, p.StartTime, p.UserID, p.Level, p.SongID,
		p.ArtistID, p.SessionID, p.Location, p.UserAgent, p.Month, p.Year,
	}
}

// pathValue keeps partition directory names filesystem- and S3-safe.
func pathValue(s string) string {
	if s == "" {
		return "__empty__"
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '/', '\\', '=', '\x00':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
