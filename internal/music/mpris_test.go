package music

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

// fakeBus is an in-memory DBusConn keyed by player then property
type fakeBus struct {
	names []string
	props map[string]map[string]interface{}
	err   error
}

func (b *fakeBus) ListNames() ([]string, error) {
	return b.names, b.err
}

func (b *fakeBus) GetProperty(player, prop string) (dbus.Variant, error) {
	p, ok := b.props[player]
	if !ok {
		return dbus.Variant{}, errors.New("org.freedesktop.DBus.Error.ServiceUnknown")
	}
	v, ok := p[prop]
	if !ok {
		return dbus.Variant{}, errors.New("org.freedesktop.DBus.Error.UnknownProperty")
	}
	return dbus.MakeVariant(v), nil
}

func (b *fakeBus) Close() error { return nil }

func player(status string, metadata map[string]dbus.Variant) map[string]interface{} {
	return map[string]interface{}{
		propPlaybackStatus: status,
		propMetadata:       metadata,
	}
}

func TestMPRISClient_PrefersPlayingPlayer(t *testing.T) {
	bus := &fakeBus{
		names: []string{
			"org.freedesktop.DBus",
			"org.mpris.MediaPlayer2.vlc",
			"org.mpris.MediaPlayer2.spotify",
		},
		props: map[string]map[string]interface{}{
			"org.mpris.MediaPlayer2.vlc": player("Paused", map[string]dbus.Variant{
				"xesam:title": dbus.MakeVariant("Paused Song"),
			}),
			"org.mpris.MediaPlayer2.spotify": player("Playing", map[string]dbus.Variant{
				"xesam:title":   dbus.MakeVariant("Reckoner"),
				"xesam:artist":  dbus.MakeVariant([]string{"Radiohead"}),
				"xesam:album":   dbus.MakeVariant("In Rainbows"),
				"mpris:artUrl":  dbus.MakeVariant("https://i.scdn.co/image/ab67616d0000b273"),
				"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/com/spotify/track/6Qn5zhYkTa37e91HC1D7lb")),
				"mpris:length":  dbus.MakeVariant(int64(290000000)),
			}),
		},
	}
	bus.props["org.mpris.MediaPlayer2.spotify"][propIdentity] = "Spotify"

	track, err := NewMPRISClientWithConn(bus).GetCurrentTrack(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentTrack() error = %v", err)
	}
	if track == nil {
		t.Fatal("expected a track")
	}

	want := Track{
		Title:     "Reckoner",
		Artist:    "Radiohead",
		Album:     "In Rainbows",
		ArtURL:    "https://i.scdn.co/image/ab67616d0000b273",
		ContentID: "spotify:track:6Qn5zhYkTa37e91HC1D7lb",
		Source:    "Spotify",
		Duration:  290 * time.Second,
		State:     StatePlaying,
	}
	if *track != want {
		t.Errorf("GetCurrentTrack() = %+v, want %+v", *track, want)
	}
}

func TestMPRISClient_FallsBackToPaused(t *testing.T) {
	bus := &fakeBus{
		names: []string{"org.mpris.MediaPlayer2.mpv", "org.mpris.MediaPlayer2.vlc"},
		props: map[string]map[string]interface{}{
			"org.mpris.MediaPlayer2.mpv": player("Stopped", nil),
			"org.mpris.MediaPlayer2.vlc": player("Paused", map[string]dbus.Variant{
				"xesam:title":  dbus.MakeVariant("FIP"),
				"xesam:artist": dbus.MakeVariant("Radio France"),
				"xesam:url":    dbus.MakeVariant("https://icecast.radiofrance.fr/fip-hifi.aac"),
			}),
		},
	}

	track, err := NewMPRISClientWithConn(bus).GetCurrentTrack(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentTrack() error = %v", err)
	}
	if track == nil {
		t.Fatal("expected a track")
	}
	if track.State != StatePaused || track.Title != "FIP" || track.Artist != "Radio France" {
		t.Errorf("unexpected track %+v", track)
	}
	if track.Source != "vlc" {
		t.Errorf("Source = %q, want vlc", track.Source)
	}
	if track.ContentID != "https://icecast.radiofrance.fr/fip-hifi.aac" {
		t.Errorf("ContentID = %q", track.ContentID)
	}
}

func TestMPRISClient_NoPlayers(t *testing.T) {
	tests := []struct {
		name string
		bus  *fakeBus
	}{
		{"no mpris names", &fakeBus{names: []string{"org.freedesktop.Notifications"}}},
		{"only stopped", &fakeBus{
			names: []string{"org.mpris.MediaPlayer2.vlc"},
			props: map[string]map[string]interface{}{
				"org.mpris.MediaPlayer2.vlc": player("Stopped", nil),
			},
		}},
		{"vanished player", &fakeBus{names: []string{"org.mpris.MediaPlayer2.gone"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, err := NewMPRISClientWithConn(tt.bus).GetCurrentTrack(context.Background())
			if err != nil {
				t.Fatalf("GetCurrentTrack() error = %v", err)
			}
			if track != nil {
				t.Errorf("expected nil track, got %+v", track)
			}
		})
	}
}

func TestMPRISClient_ListError(t *testing.T) {
	bus := &fakeBus{err: errors.New("bus closed")}
	if _, err := NewMPRISClientWithConn(bus).GetCurrentTrack(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]dbus.Variant
		want     Track
	}{
		{
			name:     "nil metadata",
			metadata: nil,
			want:     Track{},
		},
		{
			name: "string artist",
			metadata: map[string]dbus.Variant{
				"xesam:title":  dbus.MakeVariant("Song"),
				"xesam:artist": dbus.MakeVariant("Solo"),
			},
			want: Track{Title: "Song", Artist: "Solo"},
		},
		{
			name: "multiple artists",
			metadata: map[string]dbus.Variant{
				"xesam:artist": dbus.MakeVariant([]string{"Daft Punk", "Pharrell Williams"}),
			},
			want: Track{Artist: "Daft Punk, Pharrell Williams"},
		},
		{
			name: "unsigned length",
			metadata: map[string]dbus.Variant{
				"mpris:length": dbus.MakeVariant(uint64(1500000)),
			},
			want: Track{Duration: 1500 * time.Millisecond},
		},
		{
			name: "spotify uri trackid",
			metadata: map[string]dbus.Variant{
				"mpris:trackid": dbus.MakeVariant("spotify:track:abc"),
			},
			want: Track{ContentID: "spotify:track:abc"},
		},
		{
			name: "wrong types ignored",
			metadata: map[string]dbus.Variant{
				"xesam:title":  dbus.MakeVariant(int32(42)),
				"xesam:artist": dbus.MakeVariant(3.5),
			},
			want: Track{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseMetadata(tt.metadata)
			if *got != tt.want {
				t.Errorf("parseMetadata() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}
