package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jfmyers9/nowplaying/internal/gui"
	"github.com/jfmyers9/nowplaying/internal/particles"
	"github.com/jfmyers9/nowplaying/internal/status"
	"github.com/spf13/cobra"
)

// displayCmd represents the display command
var displayCmd = &cobra.Command{
	Use:   "display",
	Short: "Show the now playing display in a window",
	Long: `Open a window showing the track from the published status document.

The display polls the status document (status_url in the config, or
--status-url) and shows the artwork, title, artist, album, playlist and
release date. When there is no artwork, a particle animation runs behind
the text instead.

Keys:
  Esc, q  quit
  f       toggle fullscreen`,
	RunE: runDisplay,
}

func init() {
	rootCmd.AddCommand(displayCmd)

	displayCmd.Flags().Bool("fullscreen", false, "Start fullscreen (overrides config)")
}

func runDisplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("fullscreen") {
		cfg.Display.Fullscreen, _ = cmd.Flags().GetBool("fullscreen")
	}

	logger := setupLogger(logFile, logLevel)
	logger.Info().Str("status_url", cfg.StatusURL).Msg("Starting display")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := status.NewClient(cfg.StatusURL)
	updates := make(chan status.Update, 1)
	poller := status.NewPoller(client, cfg.PollInterval, logger)
	go func() {
		_ = poller.Run(ctx, updates)
	}()

	game := gui.New(gui.Config{
		Width:      cfg.Display.Width,
		Height:     cfg.Display.Height,
		Fullscreen: cfg.Display.Fullscreen,
		Particles: particles.Config{
			ParticleCount:            cfg.Particles.Count,
			MinimumAffectingDistance: cfg.Particles.MinimumAffectingDistance,
		},
	}, updates, client, logger)

	if err := game.Run(ctx); err != nil {
		return fmt.Errorf("display error: %w", err)
	}
	return nil
}
