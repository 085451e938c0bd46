package radio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jfmyers9/nowplaying/internal/music"
)

const fipEndpoint = "https://www.radiofrance.fr/fip/api/live"

// FIP is Radio France's FIP
type FIP struct {
	client   *http.Client
	endpoint string
}

// NewFIP creates the FIP station
func NewFIP() *FIP {
	return &FIP{
		client:   newHTTPClient(),
		endpoint: fipEndpoint,
	}
}

type fipResponse struct {
	Now *struct {
		FirstLine struct {
			Title string `json:"title"`
		} `json:"firstLine"`
		SecondLine struct {
			Title string `json:"title"`
		} `json:"secondLine"`
		Visuals struct {
			Card struct {
				Src string `json:"src"`
			} `json:"card"`
		} `json:"visuals"`
		Song *struct {
			Year    json.Number `json:"year"`
			Release struct {
				Title string `json:"title"`
			} `json:"release"`
		} `json:"song"`
	} `json:"now"`
}

// Name implements Station
func (f *FIP) Name() string {
	return "FIP"
}

// Matches implements Station
func (f *FIP) Matches(track *music.Track) bool {
	return track.Title == "FIP" ||
		track.Playlist == "FIP" ||
		strings.Contains(track.Source, "Radio France")
}

// Latest implements Station
func (f *FIP) Latest(ctx context.Context) (*Info, error) {
	var result fipResponse
	err := getJSON(ctx, f.client, f.endpoint, func(resp *http.Response) error {
		dec := json.NewDecoder(resp.Body)
		dec.UseNumber()
		if err := dec.Decode(&result); err != nil {
			return fmt.Errorf("failed to parse FIP response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Now == nil || result.Now.FirstLine.Title == "" {
		return nil, ErrNoTrack
	}

	now := result.Now
	info := &Info{
		Station:  f.Name(),
		Title:    now.FirstLine.Title,
		Artist:   now.SecondLine.Title,
		ImageURL: now.Visuals.Card.Src,
	}
	if now.Song != nil {
		info.Album = now.Song.Release.Title
		if y, err := strconv.Atoi(now.Song.Year.String()); err == nil && y > 0 {
			info.ReleaseDate = strconv.Itoa(y)
		}
	}
	return info, nil
}
