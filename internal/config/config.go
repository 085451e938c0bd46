package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// URL (or path) of the published status document
	// Default: "http://localhost:8080/data.json"
	StatusURL string

	// How often display clients fetch the status document
	PollInterval time.Duration

	// Output format template for the now command
	// Default: "{{.Artist}} - {{.Title}}"
	OutputFormat string

	// Fixed output width for the now command (0 = disabled)
	OutputWidth int

	// Marquee scrolling for now output longer than OutputWidth
	MarqueeEnabled   bool
	MarqueeSpeed     int    // characters per second
	MarqueeSeparator string // text between loop repetitions

	Particles ParticlesConfig
	Publish   PublishConfig
	Spotify   SpotifyConfig
	Display   DisplayConfig
}

// ParticlesConfig holds the backdrop animation settings
type ParticlesConfig struct {
	Count                    int
	MinimumAffectingDistance float64
}

// PublishConfig holds settings for the status publisher
type PublishConfig struct {
	// music source: mpris, mpd or applescript
	Source string

	// Poll interval for the publisher (in seconds)
	PollInterval int

	StaticDir    string
	Listen       string
	MPDAddress   string
	MPDPassword  string
	RadioRefresh time.Duration

	// Plays older than this are removed when the publisher stops; 0 keeps
	// everything
	HistoryRetention time.Duration
}

// SpotifyConfig holds Spotify API credentials. Both empty disables
// release date lookups.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

// Enabled reports whether credentials are configured
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// DisplayConfig holds graphical window settings
type DisplayConfig struct {
	Width      int
	Height     int
	Fullscreen bool
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(getConfigDir())
	v.AddConfigPath(".")

	setDefaults(v)

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables
	bindEnv(v)

	return fromViper(v), nil
}

// bindEnv maps nested keys to variables like NOWPLAYING_PUBLISH_LISTEN
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("NOWPLAYING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("status_url", "http://localhost:8080/data.json")
	v.SetDefault("poll_interval", 5*time.Second)
	v.SetDefault("output_format", "{{.Artist}} - {{.Title}}")
	v.SetDefault("output_width", 0)
	v.SetDefault("marquee_enabled", false)
	v.SetDefault("marquee_speed", 2)
	v.SetDefault("marquee_separator", " • ")

	v.SetDefault("particles.count", 40)
	v.SetDefault("particles.minimum_affecting_distance", 50.0)

	v.SetDefault("publish.source", "mpris")
	v.SetDefault("publish.poll_interval", 3)
	v.SetDefault("publish.static_dir", filepath.Join(GetDataDir(), "static"))
	v.SetDefault("publish.listen", ":8080")
	v.SetDefault("publish.mpd_address", "localhost:6600")
	v.SetDefault("publish.mpd_password", "")
	v.SetDefault("publish.radio_refresh", 60*time.Second)
	v.SetDefault("publish.history_retention", 0)

	v.SetDefault("display.width", 800)
	v.SetDefault("display.height", 480)
	v.SetDefault("display.fullscreen", false)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		StatusURL:    v.GetString("status_url"),
		PollInterval: v.GetDuration("poll_interval"),
		OutputFormat: v.GetString("output_format"),

		OutputWidth:      v.GetInt("output_width"),
		MarqueeEnabled:   v.GetBool("marquee_enabled"),
		MarqueeSpeed:     v.GetInt("marquee_speed"),
		MarqueeSeparator: v.GetString("marquee_separator"),

		Particles: ParticlesConfig{
			Count:                    v.GetInt("particles.count"),
			MinimumAffectingDistance: v.GetFloat64("particles.minimum_affecting_distance"),
		},
		Publish: PublishConfig{
			Source:       v.GetString("publish.source"),
			PollInterval: v.GetInt("publish.poll_interval"),
			StaticDir:    v.GetString("publish.static_dir"),
			Listen:       v.GetString("publish.listen"),
			MPDAddress:   v.GetString("publish.mpd_address"),
			MPDPassword:  v.GetString("publish.mpd_password"),
			RadioRefresh: v.GetDuration("publish.radio_refresh"),

			HistoryRetention: v.GetDuration("publish.history_retention"),
		},
		Spotify: SpotifyConfig{
			ClientID:     v.GetString("spotify.client_id"),
			ClientSecret: v.GetString("spotify.client_secret"),
		},
		Display: DisplayConfig{
			Width:      v.GetInt("display.width"),
			Height:     v.GetInt("display.height"),
			Fullscreen: v.GetBool("display.fullscreen"),
		},
	}
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "nowplaying")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// GetDataDir returns the directory holding the history database and the
// published static files
func GetDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".local", "share", "nowplaying")
}

// Save writes configuration to file
func (c *Config) Save() error {
	v := viper.New()

	configFile := filepath.Join(getConfigDir(), "config.yaml")

	v.Set("status_url", c.StatusURL)
	v.Set("poll_interval", c.PollInterval.String())
	v.Set("output_format", c.OutputFormat)
	v.Set("output_width", c.OutputWidth)
	v.Set("marquee_enabled", c.MarqueeEnabled)
	v.Set("marquee_speed", c.MarqueeSpeed)
	v.Set("marquee_separator", c.MarqueeSeparator)
	v.Set("particles.count", c.Particles.Count)
	v.Set("particles.minimum_affecting_distance", c.Particles.MinimumAffectingDistance)
	v.Set("publish.source", c.Publish.Source)
	v.Set("publish.poll_interval", c.Publish.PollInterval)
	v.Set("publish.static_dir", c.Publish.StaticDir)
	v.Set("publish.listen", c.Publish.Listen)
	v.Set("publish.mpd_address", c.Publish.MPDAddress)
	v.Set("publish.mpd_password", c.Publish.MPDPassword)
	v.Set("publish.radio_refresh", c.Publish.RadioRefresh.String())
	v.Set("publish.history_retention", c.Publish.HistoryRetention.String())
	v.Set("spotify.client_id", c.Spotify.ClientID)
	v.Set("spotify.client_secret", c.Spotify.ClientSecret)
	v.Set("display.width", c.Display.Width)
	v.Set("display.height", c.Display.Height)
	v.Set("display.fullscreen", c.Display.Fullscreen)

	return v.WriteConfigAs(configFile)
}
