package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the configuration shared by the stillbatch binaries
type Config struct {
	ApiAddr      string `json:"api_addr"`
	ApiPort      int    `json:"api_port"`
	WebAddr      string `json:"web_addr"`
	WebPort      int    `json:"web_port"`
	DatabasePath string `json:"database_path"`
	LogPath      string `json:"log_path"`
	LogLevel     string `json:"log_level"`

	RenderSettings       *RenderSettings       `json:"render_settings,omitempty"`
	StorageSettings      *StorageSettings      `json:"storage_settings,omitempty"`
	NotificationSettings *NotificationSettings `json:"notification_settings,omitempty"`
}

// RenderSettings are the initial scene render settings. They can be changed
// at runtime through the API or the dashboard; the file only seeds them.
type RenderSettings struct {
	OutputDir       string  `json:"output_dir"`
	Format          string  `json:"format"`            // image format, e.g. PNG or JPEG
	Overwrite       bool    `json:"overwrite"`         // overwrite existing output files
	FrameRate       float64 `json:"frame_rate"`        // fallback fps for footage that reports none
	Backend         string  `json:"backend"`           // "ffmpeg" or "opencv"
	TickIntervalMs  int     `json:"tick_interval_ms"`  // modal runner poll interval
	PreviewMaxWidth int     `json:"preview_max_width"` // previews are downscaled to this width
	PreviewCacheMB  int     `json:"preview_cache_mb"`  // in-memory preview cache budget
}

// StorageSettings bound the disk space used by recorded stills
type StorageSettings struct {
	MaxSizeMegabytes int64   `json:"max_size_megabytes"` // 0 means unlimited
	WarningThreshold float64 `json:"warning_threshold"`  // fraction of the budget that triggers a warning
}

// SmtpSettings configure the outgoing mail server
type SmtpSettings struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// NotificationSettings configure email notifications. Without SMTP settings
// all notifiers fall back to their no-op variants.
type NotificationSettings struct {
	Recipient                string        `json:"recipient"`
	Smtp                     *SmtpSettings `json:"smtp,omitempty"`
	NotifyOnBatchFinished    bool          `json:"notify_on_batch_finished"`
	AuthFailureThreshold     int           `json:"auth_failure_threshold"`
	AuthFailureWindowMinutes int           `json:"auth_failure_window_minutes"`
	MinIntervalMinutes       int           `json:"min_interval_minutes"`
}

const (
	BackendFFmpeg = "ffmpeg"
	BackendOpenCV = "opencv"
)

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {

	baseDir := "."

	homeDir, err := os.UserHomeDir()
	if err == nil && homeDir != "" {
		baseDir = filepath.Join(homeDir, "stillbatch")

		// Ensure the directory exists
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			baseDir = "."
		}
	}

	return &Config{
		ApiAddr:      "127.0.0.1",
		ApiPort:      8090,
		WebAddr:      "127.0.0.1",
		WebPort:      8091,
		DatabasePath: filepath.Join(baseDir, "stillbatch.db"),
		LogPath:      "logs",
		LogLevel:     "info",
		RenderSettings: &RenderSettings{
			OutputDir:       filepath.Join(baseDir, "output"),
			Format:          "PNG",
			Overwrite:       false,
			FrameRate:       24,
			Backend:         BackendFFmpeg,
			TickIntervalMs:  250,
			PreviewMaxWidth: 640,
			PreviewCacheMB:  64,
		},
		StorageSettings: &StorageSettings{
			MaxSizeMegabytes: 0,
			WarningThreshold: 0.9,
		},
	}
}

// defaultConfigPath resolves the config file location used when no explicit
// path is given.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "config.json"
	}
	return filepath.Join(homeDir, "stillbatch", "config.json")
}

// LoadConfig loads the configuration from a JSON file. An empty path selects
// the default location. A missing file yields the default configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigPath()
	}

	config := DefaultConfig()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file doesn't exist, we can proceed with the default config
			return config, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ApiPort <= 0 || c.ApiPort > 65535 {
		return fmt.Errorf("invalid api port: %d", c.ApiPort)
	}
	if c.WebPort <= 0 || c.WebPort > 65535 {
		return fmt.Errorf("invalid web port: %d", c.WebPort)
	}
	if c.RenderSettings != nil {
		backend := strings.ToLower(c.RenderSettings.Backend)
		if backend != BackendFFmpeg && backend != BackendOpenCV {
			return fmt.Errorf("invalid render backend: %s", c.RenderSettings.Backend)
		}
		if c.RenderSettings.Format == "" {
			return fmt.Errorf("render format cannot be empty")
		}
		if c.RenderSettings.TickIntervalMs <= 0 {
			return fmt.Errorf("invalid tick interval: %d", c.RenderSettings.TickIntervalMs)
		}
	}
	if c.StorageSettings != nil {
		if c.StorageSettings.WarningThreshold < 0 || c.StorageSettings.WarningThreshold > 1 {
			return fmt.Errorf("invalid storage warning threshold: %f", c.StorageSettings.WarningThreshold)
		}
	}
	return nil
}

// SaveConfig saves the configuration to a JSON file. An empty path selects
// the default location.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		path = defaultConfigPath()
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config file: %w", err)
	}

	return nil
}
