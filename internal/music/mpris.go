package music

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPrefix = "org.mpris.MediaPlayer2."
	mprisPath   = "/org/mpris/MediaPlayer2"

	propMetadata       = "org.mpris.MediaPlayer2.Player.Metadata"
	propPlaybackStatus = "org.mpris.MediaPlayer2.Player.PlaybackStatus"
	propIdentity       = "org.mpris.MediaPlayer2.Identity"
)

// DBusConn is the subset of a D-Bus session connection the MPRIS client
// uses
type DBusConn interface {
	// ListNames returns all names on the bus
	ListNames() ([]string, error)

	// GetProperty retrieves a property from the MPRIS object of player
	GetProperty(player, prop string) (dbus.Variant, error)

	Close() error
}

// sessionConn is the real DBusConn backed by godbus
type sessionConn struct {
	conn *dbus.Conn
}

func (c *sessionConn) ListNames() ([]string, error) {
	var names []string
	err := c.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	return names, err
}

func (c *sessionConn) GetProperty(player, prop string) (dbus.Variant, error) {
	return c.conn.Object(player, dbus.ObjectPath(mprisPath)).GetProperty(prop)
}

func (c *sessionConn) Close() error {
	return c.conn.Close()
}

// MPRISClient reads the current track from MPRIS players on the session
// bus. When several players are present the first playing one wins,
// then the first paused one.
type MPRISClient struct {
	conn DBusConn
}

// NewMPRISClient connects to the session bus
func NewMPRISClient() (*MPRISClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &MPRISClient{conn: &sessionConn{conn: conn}}, nil
}

// NewMPRISClientWithConn creates a client over an existing connection
func NewMPRISClientWithConn(conn DBusConn) *MPRISClient {
	return &MPRISClient{conn: conn}
}

// Close closes the bus connection
func (c *MPRISClient) Close() error {
	return c.conn.Close()
}

// GetCurrentTrack returns the track of the most relevant player, or nil
// when no player is playing or paused
func (c *MPRISClient) GetCurrentTrack(ctx context.Context) (*Track, error) {
	names, err := c.conn.ListNames()
	if err != nil {
		return nil, fmt.Errorf("failed to list bus names: %w", err)
	}

	var paused string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(name, mprisPrefix) {
			continue
		}

		state, err := c.playbackState(name)
		if err != nil {
			// Players come and go; skip one that vanished mid-scan
			continue
		}
		switch state {
		case StatePlaying:
			return c.track(name, state)
		case StatePaused:
			if paused == "" {
				paused = name
			}
		}
	}

	if paused == "" {
		return nil, nil
	}
	return c.track(paused, StatePaused)
}

func (c *MPRISClient) playbackState(player string) (PlayState, error) {
	v, err := c.conn.GetProperty(player, propPlaybackStatus)
	if err != nil {
		return StateStopped, err
	}
	s, ok := v.Value().(string)
	if !ok {
		return StateStopped, fmt.Errorf("invalid playback status format")
	}
	return parsePlaybackStatus(s), nil
}

func (c *MPRISClient) track(player string, state PlayState) (*Track, error) {
	v, err := c.conn.GetProperty(player, propMetadata)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	// Some players return nil or a non-map when idle
	metadata, _ := v.Value().(map[string]dbus.Variant)
	track := parseMetadata(metadata)
	track.State = state
	track.Source = strings.TrimPrefix(player, mprisPrefix)

	if id, err := c.conn.GetProperty(player, propIdentity); err == nil {
		if s, ok := id.Value().(string); ok && s != "" {
			track.Source = s
		}
	}

	return track, nil
}

func parsePlaybackStatus(s string) PlayState {
	switch s {
	case "Playing":
		return StatePlaying
	case "Paused":
		return StatePaused
	default:
		return StateStopped
	}
}

// parseMetadata converts MPRIS metadata to a Track
func parseMetadata(metadata map[string]dbus.Variant) *Track {
	track := &Track{}
	if metadata == nil {
		return track
	}

	track.Title = variantString(metadata["xesam:title"])
	track.Album = variantString(metadata["xesam:album"])
	track.ArtURL = variantString(metadata["mpris:artUrl"])

	// xesam:artist should be a list but some players send a plain string
	if v, ok := metadata["xesam:artist"]; ok {
		switch artists := v.Value().(type) {
		case []string:
			track.Artist = strings.Join(artists, ", ")
		case string:
			track.Artist = artists
		}
	}

	if v, ok := metadata["mpris:length"]; ok {
		switch n := v.Value().(type) {
		case int64:
			track.Duration = microseconds(n)
		case uint64:
			track.Duration = microseconds(int64(n))
		}
	}

	track.ContentID = contentID(metadata)
	return track
}

// contentID derives a player-neutral identifier. Spotify's object path
// track ids become spotify:track: URIs.
func contentID(metadata map[string]dbus.Variant) string {
	if v, ok := metadata["mpris:trackid"]; ok {
		var id string
		switch t := v.Value().(type) {
		case dbus.ObjectPath:
			id = string(t)
		case string:
			id = t
		}
		if rest, ok := strings.CutPrefix(id, "/com/spotify/track/"); ok {
			return "spotify:track:" + rest
		}
		if strings.HasPrefix(id, "spotify:track:") {
			return id
		}
	}
	return variantString(metadata["xesam:url"])
}

// microseconds converts an MPRIS length
func microseconds(n int64) time.Duration {
	return time.Duration(n) * time.Microsecond
}

func variantString(v dbus.Variant) string {
	s, _ := v.Value().(string)
	return s
}
