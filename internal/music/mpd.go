package music

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/fhs/gompd/v2/mpd"
)

// mpdConn is the part of *mpd.Client the MPD source reads from
type mpdConn interface {
	CurrentSong() (mpd.Attrs, error)
	Status() (mpd.Attrs, error)
	Close() error
}

// MPDClient reads the current song from an MPD server. Each call dials a
// short-lived connection so a restarted server is picked up without
// reconnect logic.
type MPDClient struct {
	network  string
	addr     string
	password string
	dial     func(network, addr, password string) (mpdConn, error)
}

// NewMPDClient creates a client for the server at addr. An addr starting
// with "/" is treated as a unix socket.
func NewMPDClient(addr, password string) *MPDClient {
	network := "tcp"
	if strings.HasPrefix(addr, "/") {
		network = "unix"
	}
	return &MPDClient{
		network:  network,
		addr:     addr,
		password: password,
		dial: func(network, addr, password string) (mpdConn, error) {
			if password == "" {
				return mpd.Dial(network, addr)
			}
			return mpd.DialAuthenticated(network, addr, password)
		},
	}
}

// GetCurrentTrack returns the current song, or nil when MPD is stopped
func (c *MPDClient) GetCurrentTrack(ctx context.Context) (*Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := c.dial(c.network, c.addr, c.password)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mpd: %w", err)
	}
	defer conn.Close()

	status, err := conn.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get mpd status: %w", err)
	}
	if status["state"] == "stop" {
		return nil, nil
	}

	song, err := conn.CurrentSong()
	if err != nil {
		return nil, fmt.Errorf("failed to get current song: %w", err)
	}
	if len(song) == 0 {
		return nil, nil
	}

	return parseSong(song, status), nil
}

// parseSong builds a Track from MPD currentsong and status attributes
func parseSong(song, status mpd.Attrs) *Track {
	track := &Track{
		Title:     song["Title"],
		Artist:    song["Artist"],
		Album:     song["Album"],
		Playlist:  song["Name"],
		ContentID: song["file"],
		Source:    "MPD",
		Duration:  attrSeconds(status, "duration"),
		Position:  attrSeconds(status, "elapsed"),
	}

	switch status["state"] {
	case "play":
		track.State = StatePlaying
	case "pause":
		track.State = StatePaused
	}

	// Streams usually carry "Artist - Title" in Title and the station in Name
	if track.Artist == "" {
		if artist, title, ok := strings.Cut(track.Title, " - "); ok {
			track.Artist = strings.TrimSpace(artist)
			track.Title = strings.TrimSpace(title)
		}
	}
	if track.Title == "" && track.ContentID != "" && !strings.Contains(track.ContentID, "://") {
		track.Title = strings.TrimSuffix(path.Base(track.ContentID), path.Ext(track.ContentID))
	}
	if track.Duration == 0 {
		track.Duration = attrSeconds(song, "duration")
	}

	return track
}

func attrSeconds(attrs mpd.Attrs, key string) time.Duration {
	v, ok := attrs[key]
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return secondsToDuration(f)
}
