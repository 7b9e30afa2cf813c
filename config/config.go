package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	API        APIConfig        `toml:"api"`
	Processing ProcessingConfig `toml:"processing"`
	Web        WebConfig        `toml:"web"`
}

type APIConfig struct {
	Provider     string `toml:"provider"`
	BaseURL      string `toml:"base_url"`
	OpenAIAPIKey string `toml:"openai_api_key"`
	Model        string `toml:"model"`
}

type ProcessingConfig struct {
	DebounceMs     int `toml:"debounce_ms"`
	TimeoutSeconds int `toml:"timeout_seconds"`
	CopySettleMs   int `toml:"copy_settle_ms"`
}

type WebConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// Debounce returns the coordinator debounce window.
func (p ProcessingConfig) Debounce() time.Duration {
	return time.Duration(p.DebounceMs) * time.Millisecond
}

// Timeout returns the client-side remote call timeout.
func (p ProcessingConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// CopySettle returns the wait between the copy chord and the clipboard read.
func (p ProcessingConfig) CopySettle() time.Duration {
	return time.Duration(p.CopySettleMs) * time.Millisecond
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Provider: "backend",
			BaseURL:  "https://api.redraft.app",
			Model:    "gpt-4o-mini",
		},
		Processing: ProcessingConfig{
			DebounceMs:     700,
			TimeoutSeconds: 30,
			CopySettleMs:   100,
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8790,
		},
	}
}

// Dir returns the per-user config directory, creating it if needed.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	dir := filepath.Join(base, "redraft")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// ConfigPath returns the path to the configuration file
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the TOML file
// If the file doesn't exist, it creates it with default values
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := defaultConfig()
		if err := save(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	// Decode over defaults so missing keys keep their default values.
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration back to its TOML file.
func (c *Config) Save() error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}
	return save(configPath, c)
}

func save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}
