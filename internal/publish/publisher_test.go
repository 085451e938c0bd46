package publish

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jfmyers9/nowplaying/internal/history"
	"github.com/jfmyers9/nowplaying/internal/music"
	"github.com/jfmyers9/nowplaying/internal/radio"
	"github.com/jfmyers9/nowplaying/internal/status"
	"github.com/jfmyers9/nowplaying/pkg/spotify"
	"github.com/rs/zerolog"
)

type fakeClient struct {
	track *music.Track
	err   error
}

func (f *fakeClient) GetCurrentTrack(ctx context.Context) (*music.Track, error) {
	return f.track, f.err
}

type fakeLookup struct {
	calls int
	track *spotify.Track
	err   error
}

func (f *fakeLookup) GetTrack(ctx context.Context, id string) (*spotify.Track, error) {
	f.calls++
	return f.track, f.err
}

type fakeFinder struct {
	url   string
	calls int
}

func (f *fakeFinder) Find(ctx context.Context, artist, album, title string) string {
	f.calls++
	return f.url
}

type fakeStation struct {
	info *radio.Info
}

func (s *fakeStation) Name() string { return "FIP" }

func (s *fakeStation) Matches(track *music.Track) bool {
	return track.Title == "FIP" || track.Playlist == "FIP"
}

func (s *fakeStation) Latest(ctx context.Context) (*radio.Info, error) {
	return s.info, nil
}

// fixedClock returns a clock that advances by a second per call
func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 1, 20, 15, 0, 0, time.Local)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// writeArt writes a small PNG and returns its file:// URL
func writeArt(t *testing.T, name string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return "file://" + path
}

func newTestPublisher(t *testing.T, opts ...Option) *Publisher {
	t.Helper()

	opts = append([]Option{
		WithClock(fixedClock()),
		WithLocalIP(func() string { return "192.168.1.20" }),
	}, opts...)

	p, err := New(Config{StaticDir: t.TempDir()}, &fakeClient{}, zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func playing(title, artist, album string) *music.Track {
	return &music.Track{
		Title:  title,
		Artist: artist,
		Album:  album,
		Source: "MPD",
		State:  music.StatePlaying,
	}
}

func TestNew_RequiresStaticDir(t *testing.T) {
	if _, err := New(Config{}, &fakeClient{}, zerolog.Nop()); err == nil {
		t.Error("expected error without a static directory")
	}
}

func TestPublish_WritesDocument(t *testing.T) {
	p := newTestPublisher(t)

	track := playing("Reckoner", "Radiohead", "In Rainbows")
	track.Playlist = "Evening"
	track.ArtURL = writeArt(t, "cover.png")

	if err := p.Publish(context.Background(), track); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	doc, err := status.Read(p.DocumentPath())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if doc.Title != "Reckoner" || doc.Artist != "Radiohead" || doc.AlbumName != "In Rainbows" {
		t.Errorf("unexpected metadata %+v", doc)
	}
	if doc.PlaylistName() != "Evening" {
		t.Errorf("Playlist = %v, want Evening", doc.Playlist)
	}
	if doc.PlayerState != status.StatePlaying {
		t.Errorf("PlayerState = %q", doc.PlayerState)
	}
	if doc.IP != "192.168.1.20" {
		t.Errorf("IP = %q", doc.IP)
	}
	if doc.LastUpdated != "2024-03-01 20:15:01" {
		t.Errorf("LastUpdated = %q", doc.LastUpdated)
	}
	if doc.Image == "" {
		t.Fatal("expected cached artwork name")
	}
	if _, err := os.Stat(filepath.Join(p.config.StaticDir, CacheDir, doc.Image)); err != nil {
		t.Errorf("artwork not cached: %v", err)
	}
}

func TestPublish_SkipsUnchangedContent(t *testing.T) {
	p := newTestPublisher(t)
	ctx := context.Background()
	track := playing("Reckoner", "Radiohead", "In Rainbows")

	if err := p.Publish(ctx, track); err != nil {
		t.Fatal(err)
	}
	first := p.Last().LastUpdated

	// Only the position moved
	track.Position = 30 * time.Second
	if err := p.Publish(ctx, track); err != nil {
		t.Fatal(err)
	}

	doc, err := status.Read(p.DocumentPath())
	if err != nil {
		t.Fatal(err)
	}
	if doc.LastUpdated != first {
		t.Errorf("document rewritten: last_updated %q, want %q", doc.LastUpdated, first)
	}

	track.State = music.StatePaused
	if err := p.Publish(ctx, track); err != nil {
		t.Fatal(err)
	}
	doc, err = status.Read(p.DocumentPath())
	if err != nil {
		t.Fatal(err)
	}
	if doc.PlayerState != status.StatePaused {
		t.Errorf("PlayerState = %q, want PAUSED", doc.PlayerState)
	}
	if doc.LastUpdated == first {
		t.Error("expected last_updated to change with the state")
	}
}

func TestBuild_PlayerStates(t *testing.T) {
	paused := playing("Nude", "Radiohead", "In Rainbows")
	paused.State = music.StatePaused
	stopped := playing("Nude", "Radiohead", "In Rainbows")
	stopped.State = music.StateStopped

	tests := []struct {
		name      string
		track     *music.Track
		wantState string
		wantTitle string
	}{
		{"no track", nil, status.StateIdle, ""},
		{"stopped", stopped, status.StateIdle, ""},
		{"paused", paused, status.StatePaused, "Nude"},
		{"playing", playing("Nude", "Radiohead", "In Rainbows"), status.StatePlaying, "Nude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPublisher(t)
			doc := p.Build(context.Background(), tt.track)
			if doc.PlayerState != tt.wantState {
				t.Errorf("PlayerState = %q, want %q", doc.PlayerState, tt.wantState)
			}
			if doc.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", doc.Title, tt.wantTitle)
			}
			if doc.Playlist != nil {
				t.Errorf("Playlist = %q, want nil", *doc.Playlist)
			}
		})
	}
}

func TestBuild_Radio(t *testing.T) {
	station := &fakeStation{info: &radio.Info{
		Station:     "FIP",
		Title:       "Sodade",
		Artist:      "Cesária Évora",
		Album:       "Miss Perfumado",
		ReleaseDate: "1992",
	}}
	enricher := radio.NewEnricher(time.Minute, zerolog.Nop(), station)
	p := newTestPublisher(t, WithRadio(enricher))

	track := playing("FIP", "", "")
	doc := p.Build(context.Background(), track)

	if doc.PlaylistName() != "FIP" {
		t.Errorf("Playlist = %v, want FIP", doc.Playlist)
	}
	if doc.Title != "Sodade" || doc.Artist != "Cesária Évora" || doc.AlbumName != "Miss Perfumado" {
		t.Errorf("station data not applied: %+v", doc)
	}
	if doc.ReleaseDate != "1992" {
		t.Errorf("ReleaseDate = %q", doc.ReleaseDate)
	}

	// Paused streams keep the player's metadata
	track.State = music.StatePaused
	doc = p.Build(context.Background(), track)
	if doc.Title != "FIP" {
		t.Errorf("paused Title = %q, want FIP", doc.Title)
	}
}

func TestBuild_ReleaseDate(t *testing.T) {
	lookup := &fakeLookup{track: &spotify.Track{Album: spotify.Album{
		ReleaseDate:          "2007-10-10",
		ReleaseDatePrecision: spotify.PrecisionDay,
	}}}
	p := newTestPublisher(t, WithTrackLookup(lookup))
	ctx := context.Background()

	track := playing("Reckoner", "Radiohead", "In Rainbows")
	track.ContentID = "spotify:track:abc123"

	for i := 0; i < 2; i++ {
		doc := p.Build(ctx, track)
		if doc.ReleaseDate != "10 October 2007" {
			t.Errorf("ReleaseDate = %q", doc.ReleaseDate)
		}
	}
	if lookup.calls != 1 {
		t.Errorf("lookup called %d times, want 1", lookup.calls)
	}

	// Incomplete metadata and other players are not looked up
	noAlbum := playing("Reckoner", "Radiohead", "")
	noAlbum.ContentID = "spotify:track:def456"
	if doc := p.Build(ctx, noAlbum); doc.ReleaseDate != "" {
		t.Errorf("ReleaseDate without album = %q", doc.ReleaseDate)
	}
	other := playing("Reckoner", "Radiohead", "In Rainbows")
	other.ContentID = "/org/mpd/Tracks/1"
	p.Build(ctx, other)
	if lookup.calls != 1 {
		t.Errorf("lookup called %d times, want 1", lookup.calls)
	}
}

func TestBuild_ReleaseDateFailure(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("boom")}
	p := newTestPublisher(t, WithTrackLookup(lookup))

	track := playing("Reckoner", "Radiohead", "In Rainbows")
	track.ContentID = "spotify:track:abc123"

	p.Build(context.Background(), track)
	doc := p.Build(context.Background(), track)
	if doc.ReleaseDate != "" {
		t.Errorf("ReleaseDate = %q, want empty", doc.ReleaseDate)
	}
	if lookup.calls != 1 {
		t.Errorf("failed lookup retried: %d calls", lookup.calls)
	}
}

func TestBuild_ArtworkFinder(t *testing.T) {
	finder := &fakeFinder{url: writeArt(t, "found.png")}
	p := newTestPublisher(t, WithArtworkFinder(finder))

	doc := p.Build(context.Background(), playing("Reckoner", "Radiohead", "In Rainbows"))
	if doc.Image == "" {
		t.Error("expected artwork from finder")
	}
	if finder.calls != 1 {
		t.Errorf("finder called %d times, want 1", finder.calls)
	}

	// Player artwork wins
	withArt := playing("Nude", "Radiohead", "In Rainbows")
	withArt.ArtURL = writeArt(t, "player.png")
	p.Build(context.Background(), withArt)
	if finder.calls != 1 {
		t.Errorf("finder called for track with art: %d calls", finder.calls)
	}
}

func TestBuild_ArtworkFailure(t *testing.T) {
	p := newTestPublisher(t)

	track := playing("Reckoner", "Radiohead", "In Rainbows")
	track.ArtURL = "file:///does/not/exist.png"

	doc := p.Build(context.Background(), track)
	if doc.Image != "" {
		t.Errorf("Image = %q, want empty on failure", doc.Image)
	}
}

func TestPublish_RecordsHistory(t *testing.T) {
	store, err := history.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	p := newTestPublisher(t, WithHistory(store))
	ctx := context.Background()

	a := playing("15 Step", "Radiohead", "In Rainbows")
	b := playing("Bodysnatchers", "Radiohead", "In Rainbows")
	pausedB := playing("Bodysnatchers", "Radiohead", "In Rainbows")
	pausedB.State = music.StatePaused

	for _, track := range []*music.Track{a, a, b, pausedB, b} {
		if err := p.Publish(ctx, track); err != nil {
			t.Fatal(err)
		}
	}

	plays, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(plays) != 2 {
		t.Fatalf("recorded %d plays, want 2", len(plays))
	}
	if plays[0].Title != "Bodysnatchers" || plays[1].Title != "15 Step" {
		t.Errorf("plays = %q, %q", plays[0].Title, plays[1].Title)
	}
	if plays[0].Source != "MPD" {
		t.Errorf("Source = %q, want MPD", plays[0].Source)
	}
}

func TestPublish_ResumesHistory(t *testing.T) {
	store, err := history.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	_, err = store.Record(ctx, history.Play{
		Title:    "15 Step",
		Artist:   "Radiohead",
		Album:    "In Rainbows",
		PlayedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	// A restarted publisher does not record the same track again
	p := newTestPublisher(t, WithHistory(store))
	if err := p.Publish(ctx, playing("15 Step", "Radiohead", "In Rainbows")); err != nil {
		t.Fatal(err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestPoller_SendsUpdates(t *testing.T) {
	client := &fakeClient{track: playing("Reckoner", "Radiohead", "In Rainbows")}
	poller := NewPoller(client, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan TrackUpdate, 1)
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx, updates) }()

	select {
	case u := <-updates:
		if u.Err != nil || u.Track == nil || u.Track.Title != "Reckoner" {
			t.Errorf("unexpected update %+v", u)
		}
	case <-time.After(time.Second):
		t.Fatal("no immediate poll")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestShutdown_CleansHistory(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_, _ = store.Record(ctx, history.Play{Title: "Old", Artist: "X", PlayedAt: time.Now().Add(-400 * 24 * time.Hour)})

	p, err := New(Config{StaticDir: t.TempDir(), HistoryRetention: 365 * 24 * time.Hour}, &fakeClient{}, zerolog.Nop(), WithHistory(store))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if _, err := store.Count(ctx); err == nil {
		t.Error("expected store to be closed")
	}
}
