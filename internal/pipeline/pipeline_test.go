package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"songlake/internal/config"
	dsfile "songlake/internal/datasource/file"
	"songlake/internal/schema"
	parquetsink "songlake/internal/sink/parquet"
)

const (
	songTRAAAAA = `{"num_songs":1,"artist_id":"C1","artist_latitude":37.8,"artist_longitude":-122.27,"artist_location":"Oakland, CA","artist_name":"Band X","song_id":"S1","title":"Song A","duration":210.5,"year":2000}`
	songTRBBBBB = `{"num_songs":1,"artist_id":"C2","artist_latitude":null,"artist_longitude":null,"artist_location":"","artist_name":"Band Y","song_id":"S2","title":"Song B","duration":95.1,"year":0}`

	// One browsing event, one matched play, one unmatched play.
	eventLog = `{"page":"Home","ts":1541000000000,"userId":"U1","level":"paid","sessionId":100}
{"page":"NextSong","ts":1541000000000,"userId":"U1","firstName":"Ada","lastName":"Lovelace","gender":"F","level":"paid","sessionId":101,"location":"San Francisco","userAgent":"Mozilla/5.0","artist":"Band X","song":"Song A","length":210.5}
{"page":"NextSong","ts":1541000060000,"userId":"U2","firstName":"Grace","lastName":"Hopper","gender":"F","level":"free","sessionId":102,"location":"New York","userAgent":"Mozilla/5.0","artist":"Band Z","song":"Unknown","length":42.0}`
)

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readRows[T any](t *testing.T, path string) []T {
	t.Helper()
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(T), 2)
	if err != nil {
		t.Fatalf("reader %s: %v", path, err)
	}
	defer pr.ReadStop()

	rows := make([]T, pr.GetNumRows())
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func fixturePipeline(t *testing.T) (*Pipeline, string) {
	t.Helper()
	in := t.TempDir()
	out := t.TempDir()

	writeFixture(t, in, "song_data/A/A/A/TRAAAAA.json", songTRAAAAA)
	writeFixture(t, in, "song_data/B/B/B/TRBBBBB.json", songTRBBBBB)
	writeFixture(t, in, "log_data/2018/11/2018-11-01-events.json", eventLog)

	return &Pipeline{
		Job:    "test",
		Source: dsfile.New(in),
		Sink:   parquetsink.NewLocal(out, 2),
		Input: config.Input{
			SongPrefix: config.DefaultSongPrefix,
			LogPrefix:  config.DefaultLogPrefix,
		},
		ReaderWorkers: 2,
	}, out
}

func TestRunEndToEnd(t *testing.T) {
	p, out := fixturePipeline(t)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	songs := readRows[schema.Song](t, filepath.Join(out, "songs/year=2000/artist_id=C1/part-00000.parquet"))
	wantSongs := []schema.Song{{SongID: "S1", Title: "Song A", ArtistID: "C1", Year: 2000, Duration: 210.5}}
	if !reflect.DeepEqual(songs, wantSongs) {
		t.Fatalf("songs: got %#v want %#v", songs, wantSongs)
	}

	artists := readRows[schema.Artist](t, filepath.Join(out, "artists/part-00000.parquet"))
	if len(artists) != 2 {
		t.Fatalf("artists: got %d rows, want 2", len(artists))
	}

	users := readRows[schema.User](t, filepath.Join(out, "users/part-00000.parquet"))
	wantUsers := []schema.User{
		{UserID: "U1", FirstName: "Ada", LastName: "Lovelace", Gender: "F", Level: "paid"},
		{UserID: "U2", FirstName: "Grace", LastName: "Hopper", Gender: "F", Level: "free"},
	}
	if !reflect.DeepEqual(users, wantUsers) {
		t.Fatalf("users: got %#v want %#v", users, wantUsers)
	}

	// Both NextSong events land in the time table (October 2018), the
	// Home event does not.
	times := readRows[schema.TimeEntry](t, filepath.Join(out, "time/year=2018/month=10/part-00000.parquet"))
	if len(times) != 2 {
		t.Fatalf("time: got %d rows, want 2", len(times))
	}

	// Only the matched play joins through to the fact table.
	plays := readRows[schema.Songplay](t, filepath.Join(out, "songplays/year=2018/month=10/part-00000.parquet"))
	wantPlays := []schema.Songplay{{
		SongplayID: 1,
		StartTime:  1541000000,
		UserID:     "U1",
		Level:      "paid",
		SongID:     "S1",
		ArtistID:   "C1",
		SessionID:  101,
		Location:   "San Francisco",
		UserAgent:  "Mozilla/5.0",
		Month:      10,
		Year:       2018,
	}}
	if !reflect.DeepEqual(plays, wantPlays) {
		t.Fatalf("songplays: got %#v want %#v", plays, wantPlays)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	p, out := fixturePipeline(t)
	ctx := context.Background()

	if err := p.Run(ctx); err != nil {
		t.Fatal(err)
	}
	first := readRows[schema.Songplay](t, filepath.Join(out, "songplays/year=2018/month=10/part-00000.parquet"))

	if err := p.Run(ctx); err != nil {
		t.Fatal(err)
	}
	second := readRows[schema.Songplay](t, filepath.Join(out, "songplays/year=2018/month=10/part-00000.parquet"))

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated runs differ: %#v vs %#v", first, second)
	}
}

func TestRunMissingInputTree(t *testing.T) {
	in := t.TempDir()
	writeFixture(t, in, "song_data/A/TRAAAAA.json", songTRAAAAA)
	// No log_data tree at all.

	p := &Pipeline{
		Job:    "test",
		Source: dsfile.New(in),
		Sink:   parquetsink.NewLocal(t.TempDir(), 2),
		Input: config.Input{
			SongPrefix: config.DefaultSongPrefix,
			LogPrefix:  config.DefaultLogPrefix,
		},
		ReaderWorkers: 2,
	}
	if err := p.Run(context.Background()); err == nil {
		t.Fatal("missing log tree must fail the run")
	}
}

func TestRunMalformedInputAborts(t *testing.T) {
	p, out := fixturePipeline(t)

	in := t.TempDir()
	writeFixture(t, in, "song_data/A/TRAAAAA.json", songTRAAAAA)
	writeFixture(t, in, "song_data/B/broken.json", `{"song_id":`)
	writeFixture(t, in, "log_data/events.json", eventLog)
	p.Source = dsfile.New(in)

	if err := p.Run(context.Background()); err == nil {
		t.Fatal("malformed catalog file must fail the run")
	}
	if _, err := os.Stat(filepath.Join(out, "songplays")); !os.IsNotExist(err) {
		t.Fatalf("failed run must not write later tables, stat err=%v", err)
	}
}
