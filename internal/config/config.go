package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Twitch  TwitchConfig  `yaml:"twitch"`
	Kick    KickConfig    `yaml:"kick"`
	Relay   RelayConfig   `yaml:"relay"`
	Buffer  BufferConfig  `yaml:"buffer"`
	Storage StorageConfig `yaml:"storage"`
	UI      UIConfig      `yaml:"ui"`
}

// TwitchConfig holds Twitch chat credentials. Anonymous read-only access
// works without an OAuth token.
type TwitchConfig struct {
	Username string `yaml:"username"`
	OAuth    string `yaml:"oauth"`
}

// KickConfig holds Kick API settings.
type KickConfig struct {
	APIBase string `yaml:"api_base"`
}

// RelayConfig points at the websocket gateway used for sources without a
// native driver.
type RelayConfig struct {
	GatewayURL string `yaml:"gateway_url"`
}

// BufferConfig tunes the in-memory message buffer.
type BufferConfig struct {
	MessageLimit int `yaml:"message_limit"`
	PageSize     int `yaml:"page_size"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// UIConfig holds presentation preferences.
type UIConfig struct {
	CalmMode      bool `yaml:"calm_mode"`
	Notifications bool `yaml:"notifications"`
}

// Load loads configuration from a file. A missing file yields the
// defaults so the app works with zero setup.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Apply environment variable overrides
	if oauth := os.Getenv("TWITCH_OAUTH"); oauth != "" {
		cfg.Twitch.OAuth = oauth
	}
	if username := os.Getenv("TWITCH_USERNAME"); username != "" {
		cfg.Twitch.Username = username
	}
	if dbPath := os.Getenv("CHATDECK_DB"); dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	if gateway := os.Getenv("CHATDECK_RELAY_URL"); gateway != "" {
		cfg.Relay.GatewayURL = gateway
	}

	// Set defaults
	if cfg.Twitch.Username == "" {
		cfg.Twitch.Username = "justinfan12345"
	}
	if cfg.Kick.APIBase == "" {
		cfg.Kick.APIBase = "https://kick.com/api/v2"
	}
	if cfg.Buffer.MessageLimit == 0 {
		cfg.Buffer.MessageLimit = 200
	}
	if cfg.Buffer.PageSize == 0 {
		cfg.Buffer.PageSize = 50
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = defaultDBPath()
	}

	// Validate
	if cfg.Twitch.OAuth != "" && !strings.HasPrefix(cfg.Twitch.OAuth, "oauth:") {
		return nil, fmt.Errorf("twitch.oauth must start with \"oauth:\"")
	}
	if cfg.Relay.GatewayURL != "" &&
		!strings.HasPrefix(cfg.Relay.GatewayURL, "ws://") &&
		!strings.HasPrefix(cfg.Relay.GatewayURL, "wss://") {
		return nil, fmt.Errorf("relay.gateway_url must be a ws:// or wss:// URL")
	}
	if cfg.Buffer.MessageLimit < cfg.Buffer.PageSize {
		return nil, fmt.Errorf("buffer.message_limit must be at least buffer.page_size")
	}

	return &cfg, nil
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "chatdeck", "config.yaml")
	}
	return "config.yaml"
}

func defaultDBPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "chatdeck", "chatdeck.db")
	}
	return "chatdeck.db"
}
