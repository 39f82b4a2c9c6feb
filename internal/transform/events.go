package transform

import (
	"songlake/internal/schema"
	"songlake/pkg/records"
)

// pageNextSong is the page-type discriminator that marks an actual
// playback event. Every other page value (Home, Login, ...) is noise.
const pageNextSong = "NextSong"

// FilterNextSong keeps only playback events. All downstream event
// tables (users, time, songplays) derive from this filtered set.
func FilterNextSong(recs []records.Record) []records.Record {
	out := make([]records.Record, 0, len(recs))
	for _, r := range recs {
		if page, _ := r.String("page"); page == pageNextSong {
			out = append(out, r)
		}
	}
	return out
}

// Users projects the five user fields from filtered events and removes
// exact-tuple duplicates. The dedup is structural, not last-seen-wins:
// a user whose subscription level changed mid-log keeps one row per
// distinct tuple.
func Users(filtered []records.Record) []schema.User {
	rows := make([]schema.User, 0, len(filtered))
	for _, r := range filtered {
		id, _ := r.String("userId")
		first, _ := r.String("firstName")
		last, _ := r.String("lastName")
		gender, _ := r.String("gender")
		level, _ := r.String("level")
		rows = append(rows, schema.User{
			UserID:    id,
			FirstName: first,
			LastName:  last,
			Gender:    gender,
			Level:     level,
		})
	}
	return distinctBy(rows, userKey)
}

func userKey(u schema.User) string {
	return tupleKey(u.UserID, u.FirstName, u.LastName, u.Gender, u.Level)
}
