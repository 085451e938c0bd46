// Package tui is the terminal display: the now-playing panel next to a
// braille particle backdrop, plus a list of recent tracks.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jfmyers9/nowplaying/internal/display"
	"github.com/jfmyers9/nowplaying/internal/particles"
	"github.com/jfmyers9/nowplaying/internal/status"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"
)

const maxRecentTracks = 5

// Config holds TUI configuration options
type Config struct {
	FrameRate time.Duration // Time between animation frames
	Particles particles.Config
}

// DefaultConfig returns the default TUI configuration
func DefaultConfig() Config {
	return Config{
		FrameRate: 50 * time.Millisecond,
		Particles: particles.DefaultConfig(),
	}
}

// RecentTrack stores info about a recently shown track
type RecentTrack struct {
	Title    string
	Artist   string
	PlayedAt time.Time
}

// App is the TUI application. It is the particle engine's host; frames,
// resizes and status updates all run on tview's event goroutine.
type App struct {
	app        *tview.Application
	nowPlaying *tview.TextView
	backdrop   *Backdrop
	recent     *tview.TextView
	status     *tview.TextView

	config     Config
	engine     *particles.Engine
	controller *display.Controller
	logger     zerolog.Logger
	now        func() time.Time

	// Event goroutine only
	frames  []func()
	started bool

	// Mutex protects state shared with the update consumer goroutine
	mu sync.Mutex

	current *status.Document
	errors  int

	// Ring buffer for recent tracks (avoids allocation on every track change)
	recentBuf   [maxRecentTracks]RecentTrack
	recentCount int // total tracks added (recentCount % maxRecentTracks = next write index)

	// Last-rendered content for change detection
	lastNowPlaying string
	lastRecent     string
	lastStatus     string

	cancelFunc context.CancelFunc
}

// New creates a new TUI application with default config
func New(logger zerolog.Logger) *App {
	return NewWithConfig(DefaultConfig(), logger)
}

// NewWithConfig creates a new TUI application with the given config
func NewWithConfig(cfg Config, logger zerolog.Logger) *App {
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultConfig().FrameRate
	}
	a := &App{
		app:    tview.NewApplication(),
		config: cfg,
		logger: logger.With().Str("component", "tui").Logger(),
		now:    time.Now,
	}
	a.setupUI()
	a.engine = particles.New(a, cfg.Particles, particles.WithLogger(logger))
	a.controller = display.NewController(a.engine, logger)
	return a
}

// setupUI creates the UI layout
func (a *App) setupUI() {
	a.nowPlaying = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.nowPlaying.SetBorder(true).
		SetTitle(" Now Playing ").
		SetTitleAlign(tview.AlignLeft)

	a.backdrop = NewBackdrop()
	a.backdrop.SetBorder(true)

	a.recent = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.recent.SetBorder(true).
		SetTitle(" Recent ").
		SetTitleAlign(tview.AlignLeft)

	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	// Top row: backdrop | now playing
	// Middle row: recent tracks
	// Footer: status bar
	topRow := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.backdrop, 0, 1, false).
		AddItem(a.nowPlaying, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 3, false).
		AddItem(a.recent, maxRecentTracks+2, 1, false).
		AddItem(a.status, 1, 1, false)

	a.app.SetInputCapture(a.handleKeyEvent)
	a.app.SetRoot(flex, true)
}

// handleKeyEvent processes keyboard input
func (a *App) handleKeyEvent(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyEscape {
		a.Stop()
		return nil
	}
	switch event.Rune() {
	case 'q', 'Q':
		a.Stop()
		return nil
	}
	return event
}

// Surface implements particles.Host
func (a *App) Surface() particles.Surface {
	return a.backdrop.Canvas()
}

// RequestFrame implements particles.Host
func (a *App) RequestFrame(fn func()) {
	a.frames = append(a.frames, fn)
}

// OnResize implements particles.Host
func (a *App) OnResize(fn func()) {
	a.backdrop.OnResize(fn)
}

// Run starts the TUI, applying documents from updates until ctx is
// cancelled or the user quits
func (a *App) Run(ctx context.Context, updates <-chan status.Update) error {
	ctx, a.cancelFunc = context.WithCancel(ctx)

	go a.handleUpdates(ctx, updates)
	go a.animate(ctx)

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// handleUpdates forwards status updates to the event goroutine
func (a *App) handleUpdates(ctx context.Context, updates <-chan status.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			a.app.QueueUpdateDraw(func() {
				a.applyUpdate(update, a.now())
			})
		}
	}
}

// animate drives frames from a ticker. The ticker is the only source of
// redraws besides status updates.
func (a *App) animate(ctx context.Context) {
	ticker := time.NewTicker(a.config.FrameRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.app.Stop()
			return
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.frame(a.now())
			})
		}
	}
}

// frame starts the engine once the backdrop has a size, runs queued frame
// callbacks and refreshes the panels. Event goroutine only.
func (a *App) frame(now time.Time) {
	if !a.started {
		if w, h := a.backdrop.Canvas().LayoutSize(); w > 0 && h > 0 {
			a.started = true
			if err := a.engine.Init(); err != nil {
				a.logger.Error().Err(err).Msg("Failed to start particles")
			}
		}
	} else {
		frames := a.frames
		a.frames = nil
		for _, fn := range frames {
			fn()
		}
	}

	a.controller.Tick(now)
	a.refresh(now)
}

// applyUpdate applies a status update. Event goroutine only.
func (a *App) applyUpdate(update status.Update, now time.Time) {
	a.mu.Lock()
	if update.Err != nil {
		a.errors++
		a.mu.Unlock()
		a.refresh(now)
		return
	}
	a.errors = 0

	doc := update.Doc
	if doc == nil {
		a.mu.Unlock()
		return
	}
	if prev := a.current; prev != nil && prev.Title != "" &&
		(prev.Title != doc.Title || prev.Artist != doc.Artist) {
		a.addToRecentTracks(prev, now)
	}
	a.current = doc
	a.mu.Unlock()

	a.controller.Apply(doc, now)
	a.refresh(now)
}

// addToRecentTracks adds a track to the ring buffer of recent tracks.
// Must be called with a.mu held.
func (a *App) addToRecentTracks(doc *status.Document, now time.Time) {
	idx := a.recentCount % maxRecentTracks
	a.recentBuf[idx] = RecentTrack{
		Title:    doc.Title,
		Artist:   doc.Artist,
		PlayedAt: now,
	}
	a.recentCount++
}

// getRecentTracks returns recent tracks in most-recent-first order.
// Must be called with a.mu held.
func (a *App) getRecentTracks() []RecentTrack {
	n := a.recentCount
	if n > maxRecentTracks {
		n = maxRecentTracks
	}
	result := make([]RecentTrack, n)
	for i := 0; i < n; i++ {
		// Walk backwards from the most recently written slot
		idx := (a.recentCount - 1 - i) % maxRecentTracks
		result[i] = a.recentBuf[idx]
	}
	return result
}

// refresh updates the text panels. Event goroutine only.
func (a *App) refresh(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.updateNowPlaying(now)
	a.updateRecentTracks()
	a.updateStatus()
}

// updateNowPlaying renders the controller's fields with their fade applied
func (a *App) updateNowPlaying(now time.Time) {
	text := a.renderNowPlaying(now)
	if text != a.lastNowPlaying {
		a.lastNowPlaying = text
		a.nowPlaying.SetText(text)
	}
}

var nowPlayingRows = []struct {
	field string
	color [3]uint8
	bold  bool
}{
	{display.FieldPlayerState, [3]uint8{128, 128, 128}, false},
	{display.FieldTitle, [3]uint8{255, 255, 255}, true},
	{display.FieldArtist, [3]uint8{255, 215, 0}, false},
	{display.FieldAlbum, [3]uint8{192, 192, 192}, false},
	{display.FieldReleaseDate, [3]uint8{128, 128, 128}, false},
	{display.FieldPlaylist, [3]uint8{128, 128, 128}, false},
}

func (a *App) renderNowPlaying(now time.Time) string {
	if a.current == nil {
		return "\n\n[gray]Waiting for status...[-]"
	}

	var sb strings.Builder
	sb.WriteString("\n")
	for _, row := range nowPlayingRows {
		f := a.controller.Field(row.field)
		if f.Value != "" && f.Alpha > 0 {
			attrs := ""
			if row.bold {
				attrs = "::b"
			}
			sb.WriteString(fmt.Sprintf("[%s%s]%s[-:-:-]", fadeHex(row.color, f.Alpha), attrs, tview.Escape(f.Value)))
		}
		sb.WriteString("\n")
	}

	updated := a.controller.Field(display.FieldLastUpdated)
	if updated.Value != "" {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("[%s]%s[-]", fadeHex([3]uint8{128, 128, 128}, updated.Alpha), tview.Escape(updated.Value)))
		if a.controller.Revealing(now) {
			n := int(float64(runewidth.StringWidth(updated.Value)) * a.controller.RevealProgress(now))
			sb.WriteString("\n[gray]" + strings.Repeat("─", n) + "[-]")
		}
	}
	return sb.String()
}

// updateRecentTracks updates the recent tracks panel
func (a *App) updateRecentTracks() {
	var sb strings.Builder

	tracks := a.getRecentTracks()
	if len(tracks) == 0 {
		sb.WriteString("[gray]No recent tracks[-]")
	} else {
		for i, track := range tracks {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(fmt.Sprintf("[gray]%s[-] ", track.PlayedAt.Format("15:04")))
			sb.WriteString(fmt.Sprintf("[white]%s[-]", tview.Escape(runewidth.Truncate(track.Title, 30, "..."))))
			if track.Artist != "" {
				sb.WriteString(fmt.Sprintf(" [yellow]%s[-]", tview.Escape(runewidth.Truncate(track.Artist, 24, "..."))))
			}
		}
	}

	text := sb.String()
	if text != a.lastRecent {
		a.lastRecent = text
		a.recent.SetText(text)
	}
}

// updateStatus updates the footer
func (a *App) updateStatus() {
	text := "[gray]q:quit[-]"
	if a.errors > 0 {
		text = fmt.Sprintf("[red]status unavailable (%d)[-]  %s", a.errors, text)
	}
	if text != a.lastStatus {
		a.lastStatus = text
		a.status.SetText(text)
	}
}

// Stop stops the TUI application
func (a *App) Stop() {
	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	a.app.Stop()
}

// fadeHex returns a tview color tag value for c faded toward black
func fadeHex(c [3]uint8, alpha float64) string {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return fmt.Sprintf("#%02x%02x%02x",
		uint8(float64(c[0])*alpha+0.5),
		uint8(float64(c[1])*alpha+0.5),
		uint8(float64(c[2])*alpha+0.5),
	)
}
