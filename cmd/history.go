package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jfmyers9/nowplaying/internal/history"
	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historyCleanup time.Duration
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently played tracks",
	Long: `List the tracks the publisher has recorded, newest first.

Use --cleanup to remove plays older than the given age, for example
--cleanup 720h to keep the last 30 days.`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of plays to show (0 = all)")
	historyCmd.Flags().DurationVar(&historyCleanup, "cleanup", 0, "Remove plays older than this before listing")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dir, err := resolveDataDir()
	if err != nil {
		return err
	}

	store, err := history.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	if historyCleanup > 0 {
		deleted, err := store.Cleanup(ctx, historyCleanup)
		if err != nil {
			return fmt.Errorf("failed to cleanup history: %w", err)
		}
		fmt.Printf("Removed %d plays older than %s\n", deleted, historyCleanup)
	}

	plays, err := store.Recent(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(plays) == 0 {
		fmt.Println("No plays recorded yet")
		return nil
	}

	for _, p := range plays {
		fmt.Println(formatPlay(p))
	}
	return nil
}

// formatPlay renders one history row in fixed-width columns
func formatPlay(p history.Play) string {
	row := p.PlayedAt.Local().Format("2006-01-02 15:04") + "  " +
		padToWidth(p.Artist, 24) + "  " +
		padToWidth(p.Title, 32)
	if p.Playlist != "" {
		row += "  " + p.Playlist
	}
	return row
}
