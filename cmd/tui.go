package cmd

import (
	"context"
	"fmt"

	"github.com/jfmyers9/nowplaying/internal/particles"
	"github.com/jfmyers9/nowplaying/internal/status"
	"github.com/jfmyers9/nowplaying/internal/tui"
	"github.com/spf13/cobra"
)

// tuiCmd represents the tui command
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Show the now playing display in the terminal",
	Long: `Display a terminal-based user interface for the published status document.

The TUI includes:
- Now playing panel with title, artist, album, playlist and release date
- Particle backdrop drawn with braille characters
- Recently shown tracks

Logs go to --log-file when given and are discarded otherwise.

Press 'q' to quit.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupQuietLogger(logFile, logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := status.NewClient(cfg.StatusURL)
	updates := make(chan status.Update, 1)
	poller := status.NewPoller(client, cfg.PollInterval, logger)
	go func() {
		_ = poller.Run(ctx, updates)
	}()

	tuiCfg := tui.DefaultConfig()
	tuiCfg.Particles = particles.Config{
		ParticleCount:            cfg.Particles.Count,
		MinimumAffectingDistance: cfg.Particles.MinimumAffectingDistance,
	}

	app := tui.NewWithConfig(tuiCfg, logger)
	if err := app.Run(ctx, updates); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
