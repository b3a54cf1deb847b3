package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL   = "http://127.0.0.1:8080"
	defaultTimeout   = 5 * time.Minute // uploads and /run responses can be slow
	defaultStatePath = "configs/client_state.json"
	defaultTheme     = "default"
)

// clientConfig holds terminal client configuration.
type clientConfig struct {
	BaseURL   string        `yaml:"baseURL"`
	Timeout   time.Duration `yaml:"timeout"`
	StatePath string        `yaml:"statePath"`
	Theme     string        `yaml:"theme"`
}

func loadClientConfig(path string) (clientConfig, error) {
	cfg := clientConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file failed: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *clientConfig) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.StatePath == "" {
		cfg.StatePath = defaultStatePath
	}
	if cfg.Theme == "" {
		cfg.Theme = defaultTheme
	}
}
