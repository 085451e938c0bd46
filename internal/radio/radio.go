// Package radio replaces the metadata of live radio streams, which players
// report as just the station name, with the station's own now-playing data.
package radio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jfmyers9/nowplaying/internal/music"
	"github.com/rs/zerolog"
)

// ErrNoTrack is returned when a station reports nothing playing
var ErrNoTrack = errors.New("radio: no current track")

// DefaultRefresh is how long station data is reused before asking again
const DefaultRefresh = 60 * time.Second

// Info is a station's view of what is on air
type Info struct {
	Station     string
	Title       string
	Artist      string
	Album       string
	ReleaseDate string
	ImageURL    string
}

// Station is a radio station with a now-playing API
type Station interface {
	// Name identifies the station in logs and the cache
	Name() string

	// Matches reports whether track is this station's stream
	Matches(track *music.Track) bool

	// Latest fetches what is on air now
	Latest(ctx context.Context) (*Info, error)
}

type cached struct {
	info    *Info
	err     error
	fetched time.Time
}

// Enricher looks up station metadata for radio tracks
type Enricher struct {
	stations []Station
	refresh  time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cached
}

// NewEnricher creates an enricher over stations. A non-positive refresh
// uses DefaultRefresh.
func NewEnricher(refresh time.Duration, logger zerolog.Logger, stations ...Station) *Enricher {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return &Enricher{
		stations: stations,
		refresh:  refresh,
		logger:   logger.With().Str("component", "radio").Logger(),
		now:      time.Now,
		cache:    make(map[string]cached),
	}
}

// Lookup returns station data for track. It returns nil when the track is
// not a known station or the station has nothing on air; failures are
// logged and cached like successes so a broken API is not hammered.
func (e *Enricher) Lookup(ctx context.Context, track *music.Track) *Info {
	if track == nil {
		return nil
	}
	for _, st := range e.stations {
		if !st.Matches(track) {
			continue
		}
		info, err := e.latest(ctx, st)
		if err != nil {
			e.logger.Debug().Err(err).Str("station", st.Name()).Msg("No station data")
			return nil
		}
		return info
	}
	return nil
}

func (e *Enricher) latest(ctx context.Context, st Station) (*Info, error) {
	e.mu.Lock()
	c, ok := e.cache[st.Name()]
	e.mu.Unlock()

	if ok && e.now().Sub(c.fetched) < e.refresh {
		return c.info, c.err
	}

	info, err := st.Latest(ctx)
	if err == nil {
		e.logger.Debug().
			Str("station", st.Name()).
			Str("title", info.Title).
			Str("artist", info.Artist).
			Msg("Station data refreshed")
	}

	e.mu.Lock()
	e.cache[st.Name()] = cached{info: info, err: err, fetched: e.now()}
	e.mu.Unlock()

	return info, err
}

// DefaultStations returns the built-in stations
func DefaultStations() []Station {
	return []Station{NewSixMusic(), NewFIP()}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, decode func(*http.Response) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch station data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status from station: %s", resp.Status)
	}
	return decode(resp)
}
