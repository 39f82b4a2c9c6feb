package transform

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"songlake/internal/schema"
	"songlake/pkg/records"
)

func TestStartTimeTruncatesMillis(t *testing.T) {
	r := records.Record{"ts": json.Number("1541106106796")}
	if got := StartTime(r); got != 1541106106 {
		t.Fatalf("got %d want 1541106106", got)
	}
}

func TestDecomposeTimeKnownInstant(t *testing.T) {
	// 2018-11-01T21:01:46Z, a Thursday in ISO week 44.
	got := DecomposeTime(1541106106)
	want := schema.TimeEntry{
		StartTime: 1541106106,
		Hour:      21,
		Day:       1,
		Week:      44,
		Month:     11,
		Year:      2018,
		Weekday:   5,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestDecomposeTimeSundayIsOne(t *testing.T) {
	// 2018-11-04T00:00:00Z is a Sunday.
	if got := DecomposeTime(1541289600); got.Weekday != 1 {
		t.Fatalf("weekday: got %d want 1", got.Weekday)
	}
}

func TestDecomposeTimeRoundTrip(t *testing.T) {
	// Whole-hour instants reconstruct exactly from the stored fields.
	for _, start := range []int64{
		1541030400, // 2018-11-01T00:00:00Z
		1541106000, // 2018-11-01T21:00:00Z
		1546300800, // 2019-01-01T00:00:00Z
	} {
		e := DecomposeTime(start)
		rebuilt := time.Date(int(e.Year), time.Month(e.Month), int(e.Day),
			int(e.Hour), 0, 0, 0, time.UTC).Unix()
		if rebuilt != start {
			t.Fatalf("round trip for %d: rebuilt %d", start, rebuilt)
		}
	}
}

func TestTimeTableKeepsDuplicates(t *testing.T) {
	// Two events at the same instant produce two rows; the time table
	// is per event, not per distinct timestamp.
	in := []records.Record{
		play("1541106106796", "U1", "paid", "101", "Band X", "Song A", "210.5"),
		play("1541106106796", "U2", "free", "102", "Band X", "Song A", "210.5"),
	}
	got := TimeTable(in)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if !reflect.DeepEqual(got[0], got[1]) {
		t.Fatalf("rows for the same instant differ: %#v vs %#v", got[0], got[1])
	}
}
