package status

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval matches how often the publisher can change the
// document in practice
const DefaultPollInterval = 5 * time.Second

// Fetcher retrieves the current document
type Fetcher interface {
	Fetch(ctx context.Context) (*Document, error)
}

// Update represents the outcome of one poll
type Update struct {
	Doc *Document // Current document (nil on error)
	Err error     // Error from the fetch
}

// Poller fetches the document at regular intervals
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	logger   zerolog.Logger

	last *Document
}

// NewPoller creates a new Poller instance
func NewPoller(fetcher Fetcher, interval time.Duration, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		logger:   logger.With().Str("component", "poller").Logger(),
	}
}

// Run starts the polling loop and sends updates to the provided channel.
// Fetch errors are logged and forwarded; they never end the loop.
// Blocks until context is cancelled
func (p *Poller) Run(ctx context.Context, updates chan<- Update) error {
	p.logger.Info().
		Dur("interval", p.interval).
		Msg("Starting poller")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Poll immediately on start
	p.poll(ctx, updates)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx, updates)
		}
	}
}

// poll fetches the document and sends an update. An unchanged document is
// sent again so the display still sees a poll happen.
func (p *Poller) poll(ctx context.Context, updates chan<- Update) {
	doc, err := p.fetcher.Fetch(ctx)
	if errors.Is(err, ErrNotModified) && p.last != nil {
		doc, err = p.last, nil
	}
	if err != nil {
		p.logger.Warn().Err(err).Msg("Error fetching status")
		select {
		case updates <- Update{Err: err}:
		case <-ctx.Done():
		}
		return
	}
	p.last = doc

	select {
	case updates <- Update{Doc: doc}:
		p.logger.Debug().
			Str("title", doc.Title).
			Str("artist", doc.Artist).
			Str("state", doc.PlayerState).
			Msg("Poll update")
	case <-ctx.Done():
	}
}
