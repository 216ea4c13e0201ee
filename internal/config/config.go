package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey          string  `yaml:"api_key" mapstructure:"api_key"`
	Model           string  `yaml:"model" mapstructure:"model"`
	Temperature     float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens       int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxSessionTurns int     `yaml:"max_session_turns" mapstructure:"max_session_turns"`
	AutoSave        bool    `yaml:"auto_save" mapstructure:"auto_save"`
	DefaultStyle    string  `yaml:"default_style" mapstructure:"default_style"`
	SessionsDir     string  `yaml:"sessions_dir" mapstructure:"sessions_dir"`
	RequestTimeout  int     `yaml:"request_timeout" mapstructure:"request_timeout"` // seconds
}

var envVarRe = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)

func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "http://localhost:1234/v1",
		Model:           "local-model",
		Temperature:     0.7,
		MaxTokens:       2048,
		MaxSessionTurns: 50,
		AutoSave:        true,
		DefaultStyle:    "friend",
		SessionsDir:     filepath.Join(configDir(), "sessions"),
		RequestTimeout:  30,
	}
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "companion")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "companion")
}

func Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Search paths
	v.AddConfigPath(".")
	v.AddConfigPath(configDir())

	// Environment variables: COMPANION_BASE_URL, COMPANION_MODEL, ...
	v.SetEnvPrefix("COMPANION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range map[string]any{
		"base_url":          cfg.BaseURL,
		"api_key":           cfg.APIKey,
		"model":             cfg.Model,
		"temperature":       cfg.Temperature,
		"max_tokens":        cfg.MaxTokens,
		"max_session_turns": cfg.MaxSessionTurns,
		"auto_save":         cfg.AutoSave,
		"default_style":     cfg.DefaultStyle,
		"sessions_dir":      cfg.SessionsDir,
		"request_timeout":   cfg.RequestTimeout,
	} {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found; defaults and env apply
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	cfg.BaseURL = expandEnv(cfg.BaseURL)
	cfg.APIKey = expandEnv(cfg.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and normalizes out-of-range values.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: base_url is required")
	}
	if c.Model == "" {
		return fmt.Errorf("config: model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("config: temperature must be between 0 and 2")
	}
	if c.MaxSessionTurns < 1 {
		c.MaxSessionTurns = 50
	}
	if c.MaxTokens < 1 {
		c.MaxTokens = 2048
	}
	if c.RequestTimeout < 1 {
		c.RequestTimeout = 30
	}
	return nil
}
