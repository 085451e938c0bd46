package music

import (
	"context"
	"time"
)

// Track represents a music track with its metadata and current state
type Track struct {
	Title     string        // Track name/title
	Artist    string        // Artist name
	Album     string        // Album name
	Playlist  string        // Playlist or station the track is playing from
	ArtURL    string        // Artwork URL reported by the player, if any
	ContentID string        // Player specific track identifier (e.g. spotify:track:...)
	Source    string        // Name of the player reporting the track
	Duration  time.Duration // Total track duration
	Position  time.Duration // Current playback position
	State     PlayState     // Current playback state
}

// SameTrack reports whether two tracks describe the same song, ignoring
// position and state
func (t *Track) SameTrack(other *Track) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Title == other.Title &&
		t.Artist == other.Artist &&
		t.Album == other.Album &&
		t.Playlist == other.Playlist
}

// PlayState represents the current playback state of the music player
type PlayState int

const (
	StateStopped PlayState = iota // No track playing
	StatePlaying                  // Track is currently playing
	StatePaused                   // Track is paused
)

// String returns a human-readable representation of the PlayState
func (s PlayState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Client reads the current track from a music player
type Client interface {
	// GetCurrentTrack returns the currently playing/paused track, or nil if stopped
	GetCurrentTrack(ctx context.Context) (*Track, error)
}
