// Package publish turns the state of a local music player into the status
// document read by the display clients, and serves it over HTTP.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/jfmyers9/nowplaying/internal/artwork"
	"github.com/jfmyers9/nowplaying/internal/history"
	"github.com/jfmyers9/nowplaying/internal/music"
	"github.com/jfmyers9/nowplaying/internal/radio"
	"github.com/jfmyers9/nowplaying/internal/status"
	"github.com/jfmyers9/nowplaying/pkg/spotify"
	"github.com/rs/zerolog"
)

const (
	// DocumentName is the status document's file name in the static dir
	DocumentName = "data.json"

	// CacheDir is the artwork directory in the static dir
	CacheDir = "cache"
)

// Config holds publisher configuration
type Config struct {
	StaticDir        string        // Directory holding data.json and cache/
	PollInterval     time.Duration // How often to poll the player
	Listen           string        // HTTP listen address; empty disables the server
	HistoryRetention time.Duration // Plays older than this are removed on shutdown; 0 keeps all
}

// TrackLookup fetches catalog data for Spotify tracks
type TrackLookup interface {
	GetTrack(ctx context.Context, id string) (*spotify.Track, error)
}

// ArtworkFinder finds artwork for tracks the player reports none for
type ArtworkFinder interface {
	Find(ctx context.Context, artist, album, title string) string
}

// Publisher polls the player and keeps the status document current
type Publisher struct {
	config  Config
	client  music.Client
	poller  *Poller
	artwork *artwork.Cache
	finder  ArtworkFinder
	radio   *radio.Enricher
	tracks  TrackLookup
	history *history.Store
	logger  zerolog.Logger

	now     func() time.Time
	localIP func() string

	// Only touched from the update loop
	last         *status.Document
	lastArtURL   string
	lastImage    string
	releaseDates map[string]string
	lastPlay     *history.Play
	historyRead  bool
}

// Option configures a Publisher
type Option func(*Publisher)

// WithRadio enables station metadata for radio streams
func WithRadio(e *radio.Enricher) Option {
	return func(p *Publisher) { p.radio = e }
}

// WithTrackLookup enables release dates for Spotify tracks
func WithTrackLookup(t TrackLookup) Option {
	return func(p *Publisher) { p.tracks = t }
}

// WithArtworkFinder enables artwork lookups for tracks without art
func WithArtworkFinder(f ArtworkFinder) Option {
	return func(p *Publisher) { p.finder = f }
}

// WithHistory records plays in store
func WithHistory(store *history.Store) Option {
	return func(p *Publisher) { p.history = store }
}

// WithClock replaces time.Now for last_updated and history timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// WithLocalIP replaces the local address lookup
func WithLocalIP(f func() string) Option {
	return func(p *Publisher) { p.localIP = f }
}

// New creates a publisher writing into cfg.StaticDir
func New(cfg Config, client music.Client, logger zerolog.Logger, opts ...Option) (*Publisher, error) {
	if cfg.StaticDir == "" {
		return nil, errors.New("publish: static directory is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}

	cacheDir := filepath.Join(cfg.StaticDir, CacheDir)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	p := &Publisher{
		config:       cfg,
		client:       client,
		poller:       NewPoller(client, cfg.PollInterval, logger),
		artwork:      artwork.NewCache(cacheDir, artwork.NewFetcher(), logger),
		logger:       logger.With().Str("component", "publisher").Logger(),
		now:          time.Now,
		localIP:      LocalIP,
		releaseDates: make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// DocumentPath returns where the status document is written
func (p *Publisher) DocumentPath() string {
	return filepath.Join(p.config.StaticDir, DocumentName)
}

// Run starts the publisher and blocks until ctx is cancelled or a shutdown
// signal is received
func (p *Publisher) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// First signal shuts down gracefully, a second forces exit
	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}
		p.logger.Info().Msg("Shutdown signal received, initiating graceful shutdown")
		cancel()

		select {
		case <-sigChan:
			p.logger.Warn().Msg("Second shutdown signal received, forcing exit")
			os.Exit(1)
		case <-time.After(30 * time.Second):
		}
	}()

	if err := p.run(ctx, cancel); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (p *Publisher) run(ctx context.Context, cancel context.CancelFunc) error {
	p.logger.Info().Str("static_dir", p.config.StaticDir).Msg("Starting publisher")

	var wg sync.WaitGroup
	updates := make(chan TrackUpdate, 10)
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.poller.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Error().Err(err).Msg("Poller error")
		}
	}()

	if p.config.Listen != "" {
		server := NewServer(p.config.Listen, p.config.StaticDir, p.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Run(ctx); err != nil {
				errCh <- err
				cancel()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.handleUpdates(ctx, updates)
	}()

	wg.Wait()
	p.logger.Info().Msg("Publisher stopped")

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// handleUpdates publishes each poll result
func (p *Publisher) handleUpdates(ctx context.Context, updates <-chan TrackUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			if update.Err != nil {
				// Player not running or not answering; keep the last document
				p.logger.Debug().Err(update.Err).Msg("Track update error")
				continue
			}
			if err := p.Publish(ctx, update.Track); err != nil {
				p.logger.Error().Err(err).Msg("Failed to publish status")
			}
		}
	}
}

// Publish builds the document for track and writes it when its content
// changed since the last write
func (p *Publisher) Publish(ctx context.Context, track *music.Track) error {
	doc := p.Build(ctx, track)

	if p.last != nil && p.last.SameContent(doc) {
		return nil
	}

	if err := status.Write(p.DocumentPath(), doc); err != nil {
		return err
	}
	p.last = doc

	p.logger.Info().
		Str("title", doc.Title).
		Str("artist", doc.Artist).
		Str("state", doc.PlayerState).
		Str("image", doc.Image).
		Msg("Status updated")

	p.record(ctx, doc, track)
	return nil
}

// Last returns the most recently written document
func (p *Publisher) Last() *status.Document {
	return p.last
}

// Build assembles the status document for track
func (p *Publisher) Build(ctx context.Context, track *music.Track) *status.Document {
	doc := &status.Document{
		PlayerState: playerState(track),
		LastUpdated: p.now().Format(status.TimeLayout),
		IP:          p.localIP(),
	}
	if track == nil || track.State == music.StateStopped {
		return doc
	}

	doc.Title = track.Title
	doc.Artist = track.Artist
	doc.AlbumName = track.Album
	if track.Playlist != "" {
		doc.Playlist = status.StringPtr(track.Playlist)
	}
	artURL := track.ArtURL

	var info *radio.Info
	if track.State == music.StatePlaying && p.radio != nil {
		info = p.radio.Lookup(ctx, track)
	}

	if info != nil {
		doc.Playlist = status.StringPtr(info.Station)
		doc.Title = info.Title
		doc.Artist = info.Artist
		doc.AlbumName = info.Album
		doc.ReleaseDate = info.ReleaseDate
		artURL = info.ImageURL
	} else {
		doc.ReleaseDate = p.releaseDate(ctx, track, doc)
		if artURL == "" && p.finder != nil {
			artURL = p.finder.Find(ctx, doc.Artist, doc.AlbumName, doc.Title)
		}
	}

	doc.Image = p.image(ctx, artURL)
	return doc
}

func playerState(track *music.Track) string {
	if track == nil {
		return status.StateIdle
	}
	switch track.State {
	case music.StatePlaying:
		return status.StatePlaying
	case music.StatePaused:
		return status.StatePaused
	default:
		return status.StateIdle
	}
}

// releaseDate looks up the album release date for Spotify tracks with
// complete metadata. Results, including failures, are kept per track.
func (p *Publisher) releaseDate(ctx context.Context, track *music.Track, doc *status.Document) string {
	if p.tracks == nil || !spotify.IsTrackURI(track.ContentID) {
		return ""
	}
	if doc.Title == "" || doc.Artist == "" || doc.AlbumName == "" {
		return ""
	}

	if date, ok := p.releaseDates[track.ContentID]; ok {
		return date
	}

	var date string
	st, err := p.tracks.GetTrack(ctx, track.ContentID)
	if err != nil {
		p.logger.Warn().Err(err).Str("content_id", track.ContentID).Msg("Failed to look up release date")
	} else {
		date = st.Album.FormattedReleaseDate()
	}

	// One entry is enough; only the current track is ever asked for
	clear(p.releaseDates)
	p.releaseDates[track.ContentID] = date
	return date
}

// image caches the artwork at artURL and returns its file name. A failed
// URL is not retried until the URL changes.
func (p *Publisher) image(ctx context.Context, artURL string) string {
	if artURL == "" {
		return ""
	}
	if artURL == p.lastArtURL {
		return p.lastImage
	}

	name, err := p.artwork.Store(ctx, artURL)
	if err != nil {
		p.logger.Warn().Err(err).Str("url", artURL).Msg("Failed to cache artwork")
		name = ""
	}

	p.lastArtURL = artURL
	p.lastImage = name
	return name
}

// record adds a play to the history when the playing track changed, and
// fills in artwork or a release date that arrived after the play was
// recorded
func (p *Publisher) record(ctx context.Context, doc *status.Document, track *music.Track) {
	if p.history == nil || !doc.Playing() || doc.Title == "" {
		return
	}

	if !p.historyRead {
		last, err := p.history.Last(ctx)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Failed to read play history")
		}
		p.lastPlay = last
		p.historyRead = true
	}

	play := history.Play{
		Title:       doc.Title,
		Artist:      doc.Artist,
		Album:       doc.AlbumName,
		Playlist:    doc.PlaylistName(),
		Image:       doc.Image,
		ReleaseDate: doc.ReleaseDate,
		PlayedAt:    p.now(),
	}
	if track != nil {
		play.Source = track.Source
	}

	if last := p.lastPlay; last != nil && samePlay(last, &play) {
		if last.Image == play.Image && last.ReleaseDate == play.ReleaseDate {
			return
		}
		if err := p.history.UpdateDetails(ctx, last.ID, play.Image, play.ReleaseDate); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to update play")
			return
		}
		last.Image = play.Image
		last.ReleaseDate = play.ReleaseDate
		return
	}

	id, err := p.history.Record(ctx, play)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to record play")
		return
	}
	play.ID = id
	p.lastPlay = &play
}

func samePlay(a, b *history.Play) bool {
	return a.Title == b.Title &&
		a.Artist == b.Artist &&
		a.Album == b.Album &&
		a.Playlist == b.Playlist
}

// Shutdown trims the history and closes it
func (p *Publisher) Shutdown() error {
	if p.history == nil {
		return nil
	}

	p.logger.Info().Msg("Shutting down publisher")

	if p.config.HistoryRetention > 0 {
		ctx := context.Background()
		deleted, err := p.history.Cleanup(ctx, p.config.HistoryRetention)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Failed to cleanup history")
		} else if deleted > 0 {
			p.logger.Info().Int64("deleted", deleted).Msg("Old plays removed")
		}
	}

	if err := p.history.Close(); err != nil {
		return fmt.Errorf("failed to close history: %w", err)
	}
	return nil
}
