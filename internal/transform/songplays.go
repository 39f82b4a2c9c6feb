package transform

import (
	"sort"
	"strconv"
	"time"

	"songlake/internal/schema"
	"songlake/pkg/records"
)

// SongKey is the composite natural key joining an event to the catalog.
// The raw event carries denormalized free-text artist and song names
// rather than foreign keys, so the join matches on name, title, and
// duration. Duration compares by exact float64 equality: both sides
// decode through the same json.Number path, so equal literals match.
type SongKey struct {
	ArtistName string
	Title      string
	Duration   float64
}

// SongRef is the catalog side of the join: the surrogate identifiers an
// event row gets enriched with.
type SongRef struct {
	SongID   string
	ArtistID string
}

// SongIndex builds the join-side view of the catalog keyed by SongKey.
// The first record wins on key collisions, keeping lookups
// deterministic for a fixed input order.
func SongIndex(catalog []records.Record) map[SongKey]SongRef {
	idx := make(map[SongKey]SongRef, len(catalog))
	for _, r := range catalog {
		name, _ := r.String("artist_name")
		title, _ := r.String("title")
		duration, _ := r.Float("duration")
		k := SongKey{ArtistName: name, Title: title, Duration: duration}
		if _, dup := idx[k]; dup {
			continue
		}
		songID, _ := r.String("song_id")
		artistID, _ := r.String("artist_id")
		idx[k] = SongRef{SongID: songID, ArtistID: artistID}
	}
	return idx
}

// Songplays joins filtered playback events against the catalog view and
// produces the fact table.
//
// The join is an inner join: events with no catalog match are dropped.
// The joined rows are deduplicated by exact full-row equality, ordered
// by start_time ascending with (user_id, session_id) as a deterministic
// tie-break, and assigned a dense 1-based songplay_id.
func Songplays(filtered []records.Record, catalog map[SongKey]SongRef) []schema.Songplay {
	rows := make([]schema.Songplay, 0, len(filtered))
	for _, r := range filtered {
		artist, _ := r.String("artist")
		song, _ := r.String("song")
		length, _ := r.Float("length")
		ref, ok := catalog[SongKey{ArtistName: artist, Title: song, Duration: length}]
		if !ok {
			continue
		}

		startTime := StartTime(r)
		t := time.Unix(startTime, 0).UTC()
		userID, _ := r.String("userId")
		level, _ := r.String("level")
		sessionID, _ := r.Int("sessionId")
		location, _ := r.String("location")
		userAgent, _ := r.String("userAgent")

		rows = append(rows, schema.Songplay{
			StartTime: startTime,
			UserID:    userID,
			Level:     level,
			SongID:    ref.SongID,
			ArtistID:  ref.ArtistID,
			SessionID: sessionID,
			Location:  location,
			UserAgent: userAgent,
			Month:     int32(t.Month()),
			Year:      int32(t.Year()),
		})
	}

	// Dedup before ranking so the surrogate keys stay dense.
	rows = distinctBy(rows, songplayKey)

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.SessionID < b.SessionID
	})
	for i := range rows {
		rows[i].SongplayID = int64(i + 1)
	}
	return rows
}

// songplayKey covers every projected column except the not-yet-assigned
// surrogate key.
func songplayKey(p schema.Songplay) string {
	return tupleKey(
		strconv.FormatInt(p.StartTime, 10),
		p.UserID,
		p.Level,
		p.SongID,
		p.ArtistID,
		strconv.FormatInt(p.SessionID, 10),
		p.Location,
		p.UserAgent,
	)
}
