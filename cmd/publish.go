package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jfmyers9/nowplaying/internal/artwork"
	"github.com/jfmyers9/nowplaying/internal/config"
	"github.com/jfmyers9/nowplaying/internal/history"
	"github.com/jfmyers9/nowplaying/internal/music"
	"github.com/jfmyers9/nowplaying/internal/publish"
	"github.com/jfmyers9/nowplaying/internal/radio"
	"github.com/jfmyers9/nowplaying/pkg/spotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var publishSource string

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Run the status publisher",
	Long: `Run the publisher that reads the current track from your music player and
serves it to the display clients.

The publisher will:
- Poll the music player (MPRIS, MPD or Apple Music) every few seconds
- Fill in station details for known radio streams
- Look up release dates on Spotify when credentials are configured
- Cache artwork under <static dir>/cache as 640x640 JPEGs
- Write <static dir>/data.json whenever the track changes
- Record played tracks in the history database
- Serve the static directory over HTTP

The publisher runs in the foreground and logs to stderr by default.
Use the --log-file flag to log to a file (useful for launchd or systemd).`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringVar(&publishSource, "source", "", "Music source: mpris, mpd or applescript (overrides config)")
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if publishSource != "" {
		cfg.Publish.Source = publishSource
	}

	logger := setupLogger(logFile, logLevel)

	logger.Info().
		Str("version", version).
		Str("source", cfg.Publish.Source).
		Msg("Starting nowplaying publisher")

	dir, err := resolveDataDir()
	if err != nil {
		return err
	}
	logger.Info().Str("data_dir", dir).Msg("Using data directory")

	staticDir := cfg.Publish.StaticDir
	if dataDir != "" {
		staticDir = filepath.Join(dir, "static")
	}

	musicClient, closeClient, err := newMusicClient(cfg.Publish)
	if err != nil {
		return err
	}
	defer closeClient()

	store, err := history.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	opts := []publish.Option{
		publish.WithRadio(radio.NewEnricher(cfg.Publish.RadioRefresh, logger, radio.DefaultStations()...)),
		publish.WithArtworkFinder(artwork.NewLookup()),
		publish.WithHistory(store),
	}

	if cfg.Spotify.Enabled() {
		sp, err := spotify.NewClient(spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			Logger:       spotifyLogger{logger.With().Str("component", "spotify").Logger()},
		})
		if err != nil {
			store.Close()
			return fmt.Errorf("failed to create spotify client: %w", err)
		}
		opts = append(opts, publish.WithTrackLookup(sp))
	} else {
		logger.Info().Msg("Spotify credentials not configured, release dates disabled")
	}

	p, err := publish.New(publish.Config{
		StaticDir:        staticDir,
		PollInterval:     time.Duration(cfg.Publish.PollInterval) * time.Second,
		Listen:           cfg.Publish.Listen,
		HistoryRetention: cfg.Publish.HistoryRetention,
	}, musicClient, logger, opts...)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create publisher: %w", err)
	}

	// Run publisher (blocks until shutdown signal)
	if err := p.Run(cmd.Context()); err != nil {
		p.Shutdown()
		return fmt.Errorf("publisher error: %w", err)
	}

	if err := p.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("Error during shutdown")
		return err
	}

	logger.Info().Msg("Publisher stopped")
	return nil
}

// newMusicClient creates the client for the configured source. The
// returned func releases it.
func newMusicClient(cfg config.PublishConfig) (music.Client, func(), error) {
	switch cfg.Source {
	case "mpris", "":
		c, err := music.NewMPRISClient()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to session bus: %w", err)
		}
		return c, func() { c.Close() }, nil
	case "mpd":
		return music.NewMPDClient(cfg.MPDAddress, cfg.MPDPassword), func() {}, nil
	case "applescript":
		return music.NewAppleScriptClient(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown music source %q (want mpris, mpd or applescript)", cfg.Source)
	}
}

// spotifyLogger adapts zerolog to the spotify client's debug logger
type spotifyLogger struct {
	logger zerolog.Logger
}

func (l spotifyLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}
