package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Provider  ProviderConfig  `json:"provider" yaml:"provider"`
	Send      SendConfig      `json:"send" yaml:"send"`
	Normalize NormalizeConfig `json:"normalize" yaml:"normalize"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Log       LogConfig       `json:"log" yaml:"log"`
	Workers   int             `json:"workers" yaml:"workers"`
}

// ProviderConfig selects the vision backend
type ProviderConfig struct {
	Backend string   `json:"backend" yaml:"backend"`
	URL     string   `json:"url" yaml:"url"`
	Model   string   `json:"model" yaml:"model"`
	Timeout Duration `json:"timeout" yaml:"timeout"`
}

// SendConfig controls the image re-encoding sent to the model
type SendConfig struct {
	Format  string `json:"format" yaml:"format"`
	MaxSize int    `json:"max_size" yaml:"max_size"`
	Quality int    `json:"quality" yaml:"quality"`
}

// NormalizeConfig holds icon filter settings
type NormalizeConfig struct {
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	OutputDir    string `json:"output_dir" yaml:"output_dir"`
	Overlay      bool   `json:"overlay" yaml:"overlay"`
	OverlayWidth int    `json:"overlay_width" yaml:"overlay_width"`
	Format       string `json:"format" yaml:"format"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level   string `json:"level" yaml:"level"`
	NoColor bool   `json:"no_color" yaml:"no_color"`
}

// Duration is a time.Duration written as "90s" or "5m" in config files
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"90s\": %w", err)
	}
	return d.parse(s)
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Backend: "ollama",
			URL:     "",
			Model:   "qwen2.5vl:7b",
			Timeout: Duration(5 * time.Minute),
		},
		Send: SendConfig{
			Format:  "jpg",
			MaxSize: 1536,
			Quality: 85,
		},
		Normalize: NormalizeConfig{
			Tolerance: 0,
		},
		Output: OutputConfig{
			OutputDir:    "./out",
			Overlay:      false,
			OverlayWidth: 512,
			Format:       "png",
		},
		Log: LogConfig{
			Level: "info",
		},
		Workers: 2,
	}
}

// LoadFromFile loads configuration from a YAML or JSON file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isJSON(filename) {
		err = json.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML or JSON file, chosen by extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isJSON(filename) {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Provider.Backend {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("provider.backend must be ollama or llamacpp, got %q", c.Provider.Backend)
	}

	if c.Provider.Model == "" {
		return fmt.Errorf("provider.model cannot be empty")
	}

	if c.Provider.Timeout < 0 {
		return fmt.Errorf("provider.timeout cannot be negative")
	}

	switch strings.ToLower(c.Send.Format) {
	case "jpg", "jpeg", "png":
	default:
		return fmt.Errorf("send.format must be jpg or png")
	}

	if c.Send.Quality < 1 || c.Send.Quality > 100 {
		return fmt.Errorf("send.quality must be between 1 and 100")
	}

	if c.Send.MaxSize < 0 {
		return fmt.Errorf("send.max_size cannot be negative")
	}

	if c.Normalize.Tolerance < 0 || c.Normalize.Tolerance > 100 {
		return fmt.Errorf("normalize.tolerance must be between 0 and 100")
	}

	switch strings.ToLower(c.Output.Format) {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be jpg, png or webp")
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "minimap-analyzer", "config.yaml")
}

func isJSON(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}
