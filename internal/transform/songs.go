package transform

import (
	"strconv"

	"songlake/internal/schema"
	"songlake/pkg/records"
)

// nullKey marks an absent value inside a distinct key so that a null
// field and an empty string stay distinguishable.
const nullKey = "\x00"

// Songs projects the five song fields from catalog records, one output
// row per input record. No filtering and no null handling: absent
// fields become zero values, mirroring a straight column select.
func Songs(recs []records.Record) []schema.Song {
	out := make([]schema.Song, 0, len(recs))
	for _, r := range recs {
		id, _ := r.String("song_id")
		title, _ := r.String("title")
		artistID, _ := r.String("artist_id")
		year, _ := r.Int("year")
		duration, _ := r.Float("duration")
		out = append(out, schema.Song{
			SongID:   id,
			Title:    title,
			ArtistID: artistID,
			Year:     int32(year),
			Duration: duration,
		})
	}
	return out
}

// Artists projects the five artist fields from catalog records and
// removes exact-tuple duplicates. Two rows are duplicates iff all five
// projected fields are equal, null geo fields included.
func Artists(recs []records.Record) []schema.Artist {
	rows := make([]schema.Artist, 0, len(recs))
	for _, r := range recs {
		id, _ := r.String("artist_id")
		name, _ := r.String("artist_name")
		a := schema.Artist{ArtistID: id, Name: name}
		if loc, ok := r.String("artist_location"); ok {
			a.Location = &loc
		}
		if lat, ok := r.Float("artist_latitude"); ok {
			a.Latitude = &lat
		}
		if lon, ok := r.Float("artist_longitude"); ok {
			a.Longitude = &lon
		}
		rows = append(rows, a)
	}
	return distinctBy(rows, artistKey)
}

func artistKey(a schema.Artist) string {
	return tupleKey(
		a.ArtistID,
		a.Name,
		optString(a.Location),
		optFloat(a.Latitude),
		optFloat(a.Longitude),
	)
}

func optString(s *string) string {
	if s == nil {
		return nullKey
	}
	return *s
}

func optFloat(f *float64) string {
	if f == nil {
		return nullKey
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}
