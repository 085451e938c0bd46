package radio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jfmyers9/nowplaying/internal/music"
)

const sixMusicEndpoint = "https://rms.api.bbc.co.uk/v2/services/bbc_6music/segments/latest?limit=1"

// sixMusicRecipe is the image size substituted into BBC image URLs
const sixMusicRecipe = "640x640"

var sixMusicNames = []string{"Radio 6 Music", "BBC Radio 6 Music"}

// SixMusic is BBC Radio 6 Music
type SixMusic struct {
	client   *http.Client
	endpoint string
}

// NewSixMusic creates the 6 Music station
func NewSixMusic() *SixMusic {
	return &SixMusic{
		client:   newHTTPClient(),
		endpoint: sixMusicEndpoint,
	}
}

type sixMusicResponse struct {
	Data []struct {
		ImageURL string `json:"image_url"`
		Titles   struct {
			Primary   string `json:"primary"`
			Secondary string `json:"secondary"`
		} `json:"titles"`
	} `json:"data"`
}

// Name implements Station
func (s *SixMusic) Name() string {
	return "BBC Radio 6 Music"
}

// Matches implements Station
func (s *SixMusic) Matches(track *music.Track) bool {
	for _, name := range sixMusicNames {
		if track.Title == name || track.Playlist == name {
			return true
		}
	}
	return false
}

// Latest implements Station. 6 Music segments have no album or release
// date.
func (s *SixMusic) Latest(ctx context.Context) (*Info, error) {
	var result sixMusicResponse
	err := getJSON(ctx, s.client, s.endpoint, func(resp *http.Response) error {
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to parse 6 Music response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, ErrNoTrack
	}

	seg := result.Data[0]
	return &Info{
		Station:  s.Name(),
		Title:    seg.Titles.Secondary,
		Artist:   seg.Titles.Primary,
		ImageURL: strings.ReplaceAll(seg.ImageURL, "{recipe}", sixMusicRecipe),
	}, nil
}
