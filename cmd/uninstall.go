package cmd

import (
	"fmt"
	"os"

	"github.com/jfmyers9/nowplaying/internal/publish"
	"github.com/spf13/cobra"
)

// uninstallCmd represents the uninstall command
var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the publisher background service",
	Long: `Stop the publisher service and remove its launchd agent or systemd unit.

After uninstalling, the publisher will no longer run automatically on login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		servicePath, err := publish.ServicePath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(servicePath); os.IsNotExist(err) {
			fmt.Println("Publisher is not installed (service file not found)")
			return nil
		}

		fmt.Println("Stopping publisher...")
		if err := unloadService(); err != nil {
			fmt.Printf("Warning: failed to unload service: %v\n", err)
			fmt.Println("Continuing with service file removal...")
		} else {
			fmt.Println("✓ Publisher stopped")
		}

		if err := os.Remove(servicePath); err != nil {
			return fmt.Errorf("failed to remove service file: %w", err)
		}

		fmt.Printf("✓ Removed service from %s\n", servicePath)
		fmt.Println("\nThe publisher has been uninstalled successfully.")
		fmt.Println("\nTo reinstall, run:")
		fmt.Println("  nowplaying install")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
