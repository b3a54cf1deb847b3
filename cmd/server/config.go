package main

import (
	"fmt"
	"os"
	"time"

	"termchat/internal/exec/language"
	"termchat/internal/server"
	"termchat/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 90 * time.Second // /run waits for compile + run phases
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultUsersFile   = "data/users.json"
	defaultUploadsDir  = "data/uploads"
	defaultWorkRoot    = "data/work"
	defaultPoolSize    = 4
	defaultTokenTTL    = 12 * time.Hour
	defaultUploadLimit = 8 << 20
)

// AuthConfig holds auth settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwtSecret"`
	JWTIssuer string        `yaml:"jwtIssuer"`
	TokenTTL  time.Duration `yaml:"tokenTTL"`
	UsersFile string        `yaml:"usersFile"`
}

// UploadConfig holds upload store settings.
type UploadConfig struct {
	Dir      string `yaml:"dir"`
	MaxBytes int64  `yaml:"maxBytes"`
}

// ExecConfig holds execution engine settings.
type ExecConfig struct {
	WorkRoot         string          `yaml:"workRoot"`
	PoolSize         int             `yaml:"poolSize"`
	OutputLimitBytes int64           `yaml:"outputLimitBytes"`
	MaxSourceBytes   int64           `yaml:"maxSourceBytes"`
	Languages        []language.Spec `yaml:"languages"`
}

// AppConfig holds server config.
type AppConfig struct {
	Server  server.Config `yaml:"server"`
	Logger  logger.Config `yaml:"logger"`
	Auth    AuthConfig    `yaml:"auth"`
	Uploads UploadConfig  `yaml:"uploads"`
	Exec    ExecConfig    `yaml:"exec"`
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file failed: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth jwt secret is required")
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = defaultTokenTTL
	}
	if cfg.Auth.UsersFile == "" {
		cfg.Auth.UsersFile = defaultUsersFile
	}
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = defaultUploadsDir
	}
	if cfg.Uploads.MaxBytes == 0 {
		cfg.Uploads.MaxBytes = defaultUploadLimit
	}
	if cfg.Exec.WorkRoot == "" {
		cfg.Exec.WorkRoot = defaultWorkRoot
	}
	if cfg.Exec.PoolSize <= 0 {
		cfg.Exec.PoolSize = defaultPoolSize
	}
	return &cfg, nil
}
