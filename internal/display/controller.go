// Package display turns polled status documents into on-screen state:
// field values with fade transitions, the last-updated reveal, and artwork
// that switches the particle backdrop off and on.
//
// Controller is clock-driven and holds no goroutines or timers of its own.
// Hosts call Apply when a document arrives and Tick once per frame, both
// from the goroutine that renders.
package display

import (
	"sort"
	"time"

	"github.com/jfmyers9/nowplaying/internal/status"
	"github.com/rs/zerolog"
)

//go:generate mockgen -destination=mock_animator_test.go -package=display . Animator

const (
	// FadeDuration is the length of each half of a value swap
	FadeDuration = 500 * time.Millisecond

	// RevealDuration is how long the last-updated reveal runs
	RevealDuration = 4800 * time.Millisecond
)

// Field names, matching the document keys they display
const (
	FieldTitle       = "title"
	FieldArtist      = "artist"
	FieldAlbum       = "album_name"
	FieldPlaylist    = "playlist"
	FieldReleaseDate = "release_date"
	FieldLastUpdated = "last_updated"
	FieldPlayerState = "player_state"
)

// Fields lists every text field in display order
var Fields = []string{
	FieldTitle,
	FieldArtist,
	FieldAlbum,
	FieldPlaylist,
	FieldReleaseDate,
	FieldLastUpdated,
	FieldPlayerState,
}

// Player state labels
const (
	LabelPlaying    = "Now playing"
	LabelNotPlaying = "Not playing"
)

// Animator is the backdrop animation. *particles.Engine satisfies it.
type Animator interface {
	Stop()
	Restart()
}

// FieldState is what a host should render for one field
type FieldState struct {
	Value string
	Alpha float64
}

// ArtworkState is what a host should render for the artwork. Image is the
// cached artwork name; empty means none has been shown yet.
type ArtworkState struct {
	Image string
	Alpha float64
}

type field struct {
	value string
	fade  tween
}

type timer struct {
	at time.Time
	fn func(at time.Time)
}

// Controller tracks display state across documents
type Controller struct {
	animator Animator
	logger   zerolog.Logger

	now     time.Time
	fields  map[string]*field
	artwork ArtworkState
	artFade tween
	timers  []timer

	// values from the previously applied document
	applied   bool
	last      map[string]string
	lastImage string

	revealStart time.Time
}

// NewController creates a controller driving animator
func NewController(animator Animator, logger zerolog.Logger) *Controller {
	c := &Controller{
		animator: animator,
		logger:   logger.With().Str("component", "display").Logger(),
		fields:   make(map[string]*field, len(Fields)),
		last:     make(map[string]string, len(Fields)),
		artFade:  steady(1),
	}
	for _, name := range Fields {
		c.fields[name] = &field{fade: steady(1)}
	}
	return c
}

// Apply updates the display from doc. Changed fields fade out, swap and
// fade back in; unchanged ones are left alone.
func (c *Controller) Apply(doc *status.Document, now time.Time) {
	c.Tick(now)

	values := map[string]string{
		FieldTitle:       doc.Title,
		FieldArtist:      doc.Artist,
		FieldAlbum:       doc.AlbumName,
		FieldPlaylist:    doc.PlaylistName(),
		FieldReleaseDate: doc.ReleaseDate,
		FieldLastUpdated: doc.LastUpdated,
		FieldPlayerState: stateLabel(doc.PlayerState),
	}
	for _, name := range Fields {
		c.updateField(name, values[name], now)
	}

	c.revealStart = now
	c.updateArtwork(doc.Image, now)

	c.last = values
	c.lastImage = doc.Image
	c.applied = true
}

// Tick advances the clock and runs any deferred swaps that are due
func (c *Controller) Tick(now time.Time) {
	if now.After(c.now) {
		c.now = now
	}

	if len(c.timers) == 0 {
		return
	}
	var due, rest []timer
	for _, t := range c.timers {
		if !t.at.After(c.now) {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	c.timers = rest

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.fn(t.at)
	}
}

// Field returns the current state of the named field
func (c *Controller) Field(name string) FieldState {
	f, ok := c.fields[name]
	if !ok {
		return FieldState{}
	}
	return FieldState{Value: f.value, Alpha: f.fade.at(c.now)}
}

// Artwork returns the current artwork state
func (c *Controller) Artwork() ArtworkState {
	return ArtworkState{Image: c.artwork.Image, Alpha: c.artFade.at(c.now)}
}

// Revealing reports whether the last-updated reveal is running at now
func (c *Controller) Revealing(now time.Time) bool {
	return !c.revealStart.IsZero() && now.Before(c.revealStart.Add(RevealDuration))
}

// RevealProgress returns how far through the reveal now is, from 0 to 1.
// It is 1 when no reveal is running.
func (c *Controller) RevealProgress(now time.Time) float64 {
	if !c.Revealing(now) {
		return 1
	}
	return float64(now.Sub(c.revealStart)) / float64(RevealDuration)
}

func (c *Controller) updateField(name, val string, now time.Time) {
	if c.applied && c.last[name] == val {
		return
	}

	f := c.fields[name]
	f.fade = fadeTo(f.fade.at(now), 0, now)
	c.after(now.Add(FadeDuration), func(at time.Time) {
		f.value = val
		f.fade = fadeTo(f.fade.at(at), 1, at)
	})
}

func (c *Controller) updateArtwork(image string, now time.Time) {
	if c.applied && c.lastImage != "" && image == c.lastImage {
		return
	}

	c.artFade = fadeTo(c.artFade.at(now), 0, now)

	if image == "" {
		c.logger.Debug().Msg("No artwork, showing backdrop")
		c.animator.Restart()
		return
	}

	c.after(now.Add(FadeDuration), func(at time.Time) {
		c.logger.Debug().Str("image", image).Msg("Showing artwork")
		c.artwork.Image = image
		c.artFade = fadeTo(c.artFade.at(at), 1, at)
		c.animator.Stop()
	})
}

func (c *Controller) after(at time.Time, fn func(at time.Time)) {
	c.timers = append(c.timers, timer{at: at, fn: fn})
}

func stateLabel(state string) string {
	if state == status.StatePlaying {
		return LabelPlaying
	}
	return LabelNotPlaying
}
