package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version string        `yaml:"version" json:"version"`
	Backend BackendConfig `yaml:"backend" json:"backend"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	UI      UIConfig      `yaml:"ui" json:"ui"`
	Charts  ChartsConfig  `yaml:"charts" json:"charts"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// BackendConfig configures the analysis backend connection
type BackendConfig struct {
	BaseURL           string        `yaml:"base_url" json:"base_url"`                       // analysis service root
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`                         // 0 disables the client-side deadline
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"` // 0 disables pacing
	Burst             int           `yaml:"burst" json:"burst"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"` // text|json|markdown|csv
	ColorMode     string `yaml:"color_mode" json:"color_mode"`         // auto|always|never
	Verbose       bool   `yaml:"verbose" json:"verbose"`
	NoEmoji       bool   `yaml:"no_emoji" json:"no_emoji"`
}

// UIConfig configures the interactive dashboard
type UIConfig struct {
	Theme    string `yaml:"theme" json:"theme"`       // default|high-contrast|minimal
	StartDir string `yaml:"start_dir" json:"start_dir"` // directory listed by the file picker
}

// ChartsConfig configures chart image export
type ChartsConfig struct {
	ExportDir string `yaml:"export_dir" json:"export_dir"`
}

// LogConfig configures log level and destination
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Backend: BackendConfig{
			BaseURL:           "http://127.0.0.1:8000",
			Timeout:           0,
			RequestsPerSecond: 0,
			Burst:             1,
			UserAgent:         "tabsum",
		},
		Output: OutputConfig{
			DefaultFormat: "text",
			ColorMode:     "auto",
			Verbose:       false,
			NoEmoji:       false,
		},
		UI: UIConfig{
			Theme:    "default",
			StartDir: ".",
		},
		Charts: ChartsConfig{
			ExportDir: "./charts",
		},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateBackendConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	if err := c.validateUIConfig(); err != nil {
		return err
	}
	return nil
}

// validateBackendConfig validates backend connection settings
func (c *Config) validateBackendConfig() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base_url: %s", c.Backend.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid backend base_url scheme: %s (must be http or https)", u.Scheme)
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend timeout must be non-negative")
	}
	if c.Backend.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must be non-negative")
	}
	if c.Backend.Burst < 1 {
		return fmt.Errorf("burst must be greater than 0")
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
			"csv":      true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, markdown, csv)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}

// validateUIConfig validates dashboard settings
func (c *Config) validateUIConfig() error {
	if c.UI.Theme != "" {
		validThemes := map[string]bool{
			"default":       true,
			"high-contrast": true,
			"minimal":       true,
		}
		if !validThemes[c.UI.Theme] {
			return fmt.Errorf("invalid theme: %s (must be one of: default, high-contrast, minimal)", c.UI.Theme)
		}
	}
	return nil
}
