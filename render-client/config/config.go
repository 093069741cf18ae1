package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the CLI configuration
type Config struct {
	OperatorID           string `json:"operator_id"`
	OperatorSecret       string `json:"operator_secret"`
	ServerURL            string `json:"server_url"`
	ServerTimeoutSeconds int    `json:"server_timeout_seconds"` // HTTP timeout for server requests (in seconds)
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file doesn't exist, create a default one
			defaultConfig := &Config{
				OperatorID:           "your-operator-id",
				OperatorSecret:       "your-operator-secret",
				ServerURL:            "http://localhost:8090",
				ServerTimeoutSeconds: 30,
			}
			if err := saveConfig(filename, defaultConfig); err != nil {
				return nil, fmt.Errorf("failed to create default config file: %w", err)
			}
			fmt.Printf("Default config file created at %s\n", filename)
			return defaultConfig, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults for missing values
	if config.ServerURL == "" {
		config.ServerURL = "http://localhost:8090"
	}
	if config.ServerTimeoutSeconds == 0 {
		config.ServerTimeoutSeconds = 30
	}

	return &config, nil
}

// ConfigOverrides holds potential override values for configuration
type ConfigOverrides struct {
	OperatorID           *string
	OperatorSecret       *string
	ServerURL            *string
	ServerTimeoutSeconds *int
}

// Override allows overriding specific configuration values using ConfigOverrides struct
func (c *Config) Override(overrides ConfigOverrides) {
	if overrides.OperatorID != nil && *overrides.OperatorID != "" {
		c.OperatorID = *overrides.OperatorID
	}
	if overrides.OperatorSecret != nil && *overrides.OperatorSecret != "" {
		c.OperatorSecret = *overrides.OperatorSecret
	}
	if overrides.ServerURL != nil && *overrides.ServerURL != "" {
		c.ServerURL = *overrides.ServerURL
	}
	if overrides.ServerTimeoutSeconds != nil && *overrides.ServerTimeoutSeconds > 0 {
		c.ServerTimeoutSeconds = *overrides.ServerTimeoutSeconds
	}
}

// saveConfig saves a configuration to a JSON file
func saveConfig(filename string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
