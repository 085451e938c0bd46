package publish

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/template"
)

// ServiceLabel names the background service on both platforms
const ServiceLabel = "com.nowplaying.publish"

const plistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Label}}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{.BinaryPath}}</string>
		<string>publish</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>{{.LogPath}}/nowplaying.log</string>
	<key>StandardErrorPath</key>
	<string>{{.LogPath}}/nowplaying.err</string>
	<key>WorkingDirectory</key>
	<string>{{.WorkingDirectory}}</string>
	<key>EnvironmentVariables</key>
	<dict>
		<key>PATH</key>
		<string>/usr/local/bin:/usr/bin:/bin:/usr/sbin:/sbin</string>
	</dict>
</dict>
</plist>
`

const unitTemplate = `[Unit]
Description=nowplaying status publisher
After=network-online.target sound.target

[Service]
Type=simple
ExecStart={{.BinaryPath}} publish --log-file {{.LogPath}}/nowplaying.log
WorkingDirectory={{.WorkingDirectory}}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`

// ServiceConfig holds the values substituted into the service definition
type ServiceConfig struct {
	Label            string
	BinaryPath       string
	LogPath          string
	WorkingDirectory string
}

// GeneratePlist renders a launchd agent plist
func GeneratePlist(config ServiceConfig) (string, error) {
	return render("plist", plistTemplate, config)
}

// GenerateUnit renders a systemd user unit
func GenerateUnit(config ServiceConfig) (string, error) {
	return render("unit", unitTemplate, config)
}

// GenerateService renders the service definition for goos
func GenerateService(goos string, config ServiceConfig) (string, error) {
	if config.Label == "" {
		config.Label = ServiceLabel
	}
	switch goos {
	case "darwin":
		return GeneratePlist(config)
	case "linux":
		return GenerateUnit(config)
	default:
		return "", fmt.Errorf("service install is not supported on %s", goos)
	}
}

func render(name, text string, config ServiceConfig) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, config); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return buf.String(), nil
}

// ServicePath returns where the service definition is installed on this
// platform
func ServicePath() (string, error) {
	return servicePath(runtime.GOOS)
}

func servicePath(goos string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "LaunchAgents", ServiceLabel+".plist"), nil
	case "linux":
		return filepath.Join(home, ".config", "systemd", "user", UnitName), nil
	default:
		return "", fmt.Errorf("service install is not supported on %s", goos)
	}
}

// UnitName is the systemd unit file name
const UnitName = "nowplaying-publish.service"

// GetDefaultLogPath returns the default path for service logs
func GetDefaultLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".local", "share", "nowplaying", "logs"), nil
}
