package spotify

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Release date precisions reported by Spotify.
const (
	PrecisionYear  = "year"
	PrecisionMonth = "month"
	PrecisionDay   = "day"
)

// Track is a Spotify catalog track.
type Track struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	URI     string   `json:"uri"`
	Artists []Artist `json:"artists"`
	Album   Album    `json:"album"`
}

// Artist is a simplified artist object.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album is a simplified album object.
type Album struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	ReleaseDate          string  `json:"release_date"`
	ReleaseDatePrecision string  `json:"release_date_precision"`
	Images               []Image `json:"images"`
}

// Image is album artwork at one size.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// FormattedReleaseDate renders the release date at its precision: the year
// as-is, "January 2006" for months and "2 January 2006" for days. It
// returns "" when the date does not match its precision.
func (a Album) FormattedReleaseDate() string {
	return FormatReleaseDate(a.ReleaseDate, a.ReleaseDatePrecision)
}

// FormatReleaseDate renders date according to precision.
func FormatReleaseDate(date, precision string) string {
	switch precision {
	case PrecisionYear:
		return date
	case PrecisionMonth:
		t, err := time.Parse("2006-01", date)
		if err != nil {
			return ""
		}
		return t.Format("January 2006")
	default:
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			return ""
		}
		return t.Format("2 January 2006")
	}
}

// LargestImage returns the URL of the widest album image, or "".
func (a Album) LargestImage() string {
	var best Image
	for _, img := range a.Images {
		if img.Width >= best.Width {
			best = img
		}
	}
	return best.URL
}

// GetTrack fetches a track by ID. id may be a bare ID, a spotify:track:
// URI or an open.spotify.com track link.
func (c *Client) GetTrack(ctx context.Context, id string) (*Track, error) {
	trackID, err := ParseTrackID(id)
	if err != nil {
		return nil, err
	}

	var track Track
	if err := c.get(ctx, "tracks/"+url.PathEscape(trackID), nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// ParseTrackID extracts the bare track ID from id.
func ParseTrackID(id string) (string, error) {
	id = strings.TrimSpace(id)

	if rest, ok := strings.CutPrefix(id, "spotify:track:"); ok {
		id = rest
	} else if strings.HasPrefix(id, "https://open.spotify.com/") {
		u, err := url.Parse(id)
		if err != nil {
			return "", ErrInvalidID
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) < 2 || parts[len(parts)-2] != "track" {
			return "", ErrInvalidID
		}
		id = parts[len(parts)-1]
	}

	if id == "" || strings.ContainsAny(id, ":/ ") {
		return "", ErrInvalidID
	}
	return id, nil
}

// IsTrackURI reports whether s names a Spotify track.
func IsTrackURI(s string) bool {
	return strings.Contains(s, "spotify:track:")
}
