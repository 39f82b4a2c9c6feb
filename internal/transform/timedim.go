package transform

import (
	"time"

	"songlake/internal/schema"
	"songlake/pkg/records"
)

// StartTime converts an event's epoch-millis "ts" field to epoch
// seconds via truncating integer division.
func StartTime(r records.Record) int64 {
	ms, _ := r.Int("ts")
	return ms / 1000
}

// TimeTable emits one calendar decomposition per filtered event row.
// Timestamps are interpreted as UTC. The table is intentionally not
// deduplicated by timestamp: it is computed per event, so duplicate
// timestamps yield duplicate rows.
//
// Week is the ISO week-of-year. Weekday runs 1..7 with Sunday=1.
func TimeTable(filtered []records.Record) []schema.TimeEntry {
	out := make([]schema.TimeEntry, 0, len(filtered))
	for _, r := range filtered {
		out = append(out, DecomposeTime(StartTime(r)))
	}
	return out
}

// DecomposeTime breaks a single epoch-seconds timestamp into its
// calendar fields.
func DecomposeTime(startTime int64) schema.TimeEntry {
	t := time.Unix(startTime, 0).UTC()
	_, week := t.ISOWeek()
	return schema.TimeEntry{
		StartTime: startTime,
		Hour:      int32(t.Hour()),
		Day:       int32(t.Day()),
		Week:      int32(week),
		Month:     int32(t.Month()),
		Year:      int32(t.Year()),
		Weekday:   int32(t.Weekday()) + 1,
	}
}
