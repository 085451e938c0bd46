// Package gui is the windowed display: artwork and track details over the
// particle backdrop, rendered with ebiten.
package gui

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/jfmyers9/nowplaying/internal/display"
	"github.com/jfmyers9/nowplaying/internal/particles"
	"github.com/jfmyers9/nowplaying/internal/status"
	"github.com/rs/zerolog"
)

// Config holds window settings
type Config struct {
	Width      int
	Height     int
	Fullscreen bool
	Title      string
	Particles  particles.Config
}

// ArtworkOpener opens cached artwork by name
type ArtworkOpener interface {
	OpenArtwork(ctx context.Context, image string) (io.ReadCloser, error)
}

type loadedArtwork struct {
	name string
	img  image.Image
	err  error
}

// Game is the ebiten game and the particle engine's host. Frames,
// resizes and status updates all run on ebiten's update goroutine.
type Game struct {
	config     Config
	engine     *particles.Engine
	controller *display.Controller
	artwork    ArtworkOpener
	updates    <-chan status.Update
	logger     zerolog.Logger
	now        func() time.Time

	ctx context.Context

	surface *imageSurface
	started bool
	frames  []func()
	resize  []func()

	// Layout is called from ebiten's main thread
	layoutMu      sync.Mutex
	layoutW       int
	layoutH       int
	layoutChanged bool

	images  map[string]*ebiten.Image
	loading map[string]bool
	loaded  chan loadedArtwork
}

// New creates a game reading status updates from updates
func New(cfg Config, updates <-chan status.Update, artwork ArtworkOpener, logger zerolog.Logger) *Game {
	if cfg.Title == "" {
		cfg.Title = "Now Playing"
	}

	g := &Game{
		config:  cfg,
		artwork: artwork,
		updates: updates,
		logger:  logger.With().Str("component", "gui").Logger(),
		now:     time.Now,
		ctx:     context.Background(),
		images:  make(map[string]*ebiten.Image),
		loading: make(map[string]bool),
		loaded:  make(chan loadedArtwork, 4),
	}
	g.surface = &imageSurface{game: g}
	g.engine = particles.New(g, cfg.Particles, particles.WithLogger(logger))
	g.controller = display.NewController(g.engine, logger)
	return g
}

// Run opens the window and blocks until it is closed or ctx is cancelled
func (g *Game) Run(ctx context.Context) error {
	g.ctx = ctx

	ebiten.SetWindowSize(g.config.Width, g.config.Height)
	ebiten.SetWindowTitle(g.config.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(g.config.Fullscreen)

	g.logger.Info().
		Int("width", g.config.Width).
		Int("height", g.config.Height).
		Bool("fullscreen", g.config.Fullscreen).
		Msg("Opening display")

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("display error: %w", err)
	}
	return nil
}

// Surface implements particles.Host
func (g *Game) Surface() particles.Surface {
	return g.surface
}

// RequestFrame implements particles.Host. Callbacks run at the start of
// the next Draw.
func (g *Game) RequestFrame(fn func()) {
	g.frames = append(g.frames, fn)
}

// OnResize implements particles.Host
func (g *Game) OnResize(fn func()) {
	g.resize = append(g.resize, fn)
}

// Update implements ebiten.Game
func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}

	if err := g.step(g.now()); err != nil {
		return err
	}
	g.receiveArtwork()
	return nil
}

// step starts the engine once a layout is known, fires resize listeners
// and applies pending status updates
func (g *Game) step(now time.Time) error {
	w, h := g.layoutSize()
	if w == 0 || h == 0 {
		return nil
	}

	if !g.started {
		g.takeLayoutChange()
		g.started = true
		if err := g.engine.Init(); err != nil {
			return fmt.Errorf("failed to start particles: %w", err)
		}
	} else if g.takeLayoutChange() {
		for _, fn := range g.resize {
			fn()
		}
	}

	g.applyUpdates(now)
	g.controller.Tick(now)
	return nil
}

// applyUpdates drains the status channel without blocking
func (g *Game) applyUpdates(now time.Time) {
	for {
		select {
		case u, ok := <-g.updates:
			if !ok {
				g.updates = nil
				return
			}
			if u.Doc == nil {
				continue
			}
			g.controller.Apply(u.Doc, now)
			g.requestArtwork(u.Doc.Image)
		default:
			return
		}
	}
}

// requestArtwork starts loading name in the background unless it is
// loaded or already loading
func (g *Game) requestArtwork(name string) {
	if name == "" || g.artwork == nil || g.images[name] != nil || g.loading[name] {
		return
	}
	g.loading[name] = true

	ctx := g.ctx
	go func() {
		img, err := decodeArtwork(ctx, g.artwork, name)
		select {
		case g.loaded <- loadedArtwork{name: name, img: img, err: err}:
		case <-ctx.Done():
		}
	}()
}

func decodeArtwork(ctx context.Context, opener ArtworkOpener, name string) (image.Image, error) {
	rc, err := opener.OpenArtwork(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}
	return img, nil
}

// receiveArtwork turns finished loads into ebiten images, keeping only the
// artwork currently shown
func (g *Game) receiveArtwork() {
	for {
		select {
		case l := <-g.loaded:
			delete(g.loading, l.name)
			if l.err != nil {
				g.logger.Warn().Err(l.err).Str("image", l.name).Msg("Failed to load artwork")
				continue
			}
			g.images[l.name] = ebiten.NewImageFromImage(l.img)
			g.pruneImages()
		default:
			return
		}
	}
}

func (g *Game) pruneImages() {
	keep := g.controller.Artwork().Image
	for name, img := range g.images {
		if name == keep || g.loading[name] {
			continue
		}
		if len(g.images) <= 2 {
			return
		}
		img.Deallocate()
		delete(g.images, name)
	}
}

// Layout implements ebiten.Game
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.layoutMu.Lock()
	defer g.layoutMu.Unlock()

	if outsideWidth != g.layoutW || outsideHeight != g.layoutH {
		g.layoutW, g.layoutH = outsideWidth, outsideHeight
		g.layoutChanged = true
	}
	return outsideWidth, outsideHeight
}

func (g *Game) layoutSize() (int, int) {
	g.layoutMu.Lock()
	defer g.layoutMu.Unlock()
	return g.layoutW, g.layoutH
}

func (g *Game) takeLayoutChange() bool {
	g.layoutMu.Lock()
	defer g.layoutMu.Unlock()
	changed := g.layoutChanged
	g.layoutChanged = false
	return changed
}

// runFrames runs the callbacks queued since the last frame. Callbacks
// queued while running wait for the next frame.
func (g *Game) runFrames() {
	frames := g.frames
	g.frames = nil
	for _, fn := range frames {
		fn()
	}
}
