package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jfmyers9/nowplaying/internal/publish"
	"github.com/spf13/cobra"
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the publisher as a background service",
	Long: `Install the publisher as a service that runs automatically on login.

On macOS this writes a launchd agent to ~/Library/LaunchAgents/ and loads
it with launchctl. On Linux it writes a systemd user unit to
~/.config/systemd/user/ and enables it with systemctl --user.

The publisher will run in the background and keep the status document
current for the display clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get the path to the current executable
		binaryPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		// Resolve symlinks to get the actual binary path
		binaryPath, err = filepath.EvalSymlinks(binaryPath)
		if err != nil {
			return fmt.Errorf("failed to resolve executable path: %w", err)
		}

		logPath, err := publish.GetDefaultLogPath()
		if err != nil {
			return fmt.Errorf("failed to get log path: %w", err)
		}
		if err := os.MkdirAll(logPath, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		content, err := publish.GenerateService(runtime.GOOS, publish.ServiceConfig{
			BinaryPath:       binaryPath,
			LogPath:          logPath,
			WorkingDirectory: home,
		})
		if err != nil {
			return err
		}

		servicePath, err := publish.ServicePath()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(servicePath), 0755); err != nil {
			return fmt.Errorf("failed to create service directory: %w", err)
		}

		if _, err := os.Stat(servicePath); err == nil {
			fmt.Println("Publisher is already installed. Uninstalling first...")
			if err := unloadService(); err != nil {
				fmt.Printf("Warning: failed to unload existing service: %v\n", err)
			}
		}

		if err := os.WriteFile(servicePath, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write service file: %w", err)
		}
		fmt.Printf("✓ Installed service to %s\n", servicePath)

		if err := loadService(servicePath); err != nil {
			return fmt.Errorf("failed to load service: %w", err)
		}

		fmt.Println("✓ Publisher loaded and started successfully")
		fmt.Printf("✓ Logs will be written to %s\n", logPath)
		fmt.Println("\nThe publisher is now running and will start automatically on login.")
		fmt.Println("\nYou can check its status with:")
		if runtime.GOOS == "darwin" {
			fmt.Println("  launchctl list | grep nowplaying")
		} else {
			fmt.Println("  systemctl --user status " + publish.UnitName)
		}
		fmt.Println("\nTo uninstall, run:")
		fmt.Println("  nowplaying uninstall")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}

// loadService starts the installed service
func loadService(servicePath string) error {
	if runtime.GOOS != "darwin" {
		if out, err := exec.Command("systemctl", "--user", "daemon-reload").CombinedOutput(); err != nil {
			return fmt.Errorf("systemctl daemon-reload failed: %s", strings.TrimSpace(string(out)))
		}
		if out, err := exec.Command("systemctl", "--user", "enable", "--now", publish.UnitName).CombinedOutput(); err != nil {
			return fmt.Errorf("systemctl enable failed: %s", strings.TrimSpace(string(out)))
		}
		return nil
	}

	domain, err := launchdDomain()
	if err != nil {
		return err
	}

	output, err := exec.Command("launchctl", "bootstrap", domain, servicePath).CombinedOutput()
	if err != nil {
		if len(output) > 0 {
			return fmt.Errorf("launchctl bootstrap failed: %s", strings.TrimSpace(string(output)))
		}
		return fmt.Errorf("failed to run launchctl bootstrap: %w", err)
	}
	return nil
}

// unloadService stops the installed service. A service that is not
// running only produces a warning.
func unloadService() error {
	var c *exec.Cmd
	if runtime.GOOS != "darwin" {
		c = exec.Command("systemctl", "--user", "disable", "--now", publish.UnitName)
	} else {
		domain, err := launchdDomain()
		if err != nil {
			return err
		}
		c = exec.Command("launchctl", "bootout", domain+"/"+publish.ServiceLabel)
	}

	if output, err := c.CombinedOutput(); err != nil && len(output) > 0 {
		fmt.Printf("Warning: %s\n", strings.TrimSpace(string(output)))
	}
	return nil
}

// launchdDomain returns the gui/<uid> domain of the current user
func launchdDomain() (string, error) {
	out, err := exec.Command("id", "-u").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get user ID: %w", err)
	}
	return "gui/" + strings.TrimSpace(string(out)), nil
}
