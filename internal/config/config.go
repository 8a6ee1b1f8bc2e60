package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the static process configuration, read-only after initialization.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Search    SearchConfig    `yaml:"search"`
	LogLevel  string          `yaml:"log_level"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"`
}

// ProvidersConfig holds per-provider credentials and endpoints.
type ProvidersConfig struct {
	OpenAI ProviderConfig `yaml:"openai"`
	Claude ProviderConfig `yaml:"claude"`
}

// ProviderConfig contains configuration for one upstream provider.
type ProviderConfig struct {
	APIBase string   `yaml:"api_base"`
	APIKey  string   `yaml:"api_key"`
	Models  []string `yaml:"models,omitempty"`
}

// SearchConfig configures the external search capability. An empty APIBase
// disables search.
type SearchConfig struct {
	APIBase string `yaml:"api_base"`
}

// LoadConfig loads configuration from a YAML file, with environment variables
// overriding credentials.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
}

func applyEnv(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Providers.OpenAI.APIKey = key
	}
	if key := os.Getenv("CLAUDE_API_KEY"); key != "" {
		cfg.Providers.Claude.APIKey = key
	}
	if key := os.Getenv("SERVER_API_KEY"); key != "" {
		cfg.Server.APIKey = key
	}
}
