// Package config loads service configuration from an optional YAML file
// with environment variable overrides. Environment always wins, so deploys
// can keep a checked-in base file and override per instance.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the service configuration.
type Config struct {
	Port          string `yaml:"port"`
	DataDir       string `yaml:"data_dir"`
	EnginePath    string `yaml:"engine_path"`
	EngineTimeout int    `yaml:"engine_timeout_s"`
	MaxUploadMB   int64  `yaml:"max_upload_mb"`
	LogLevel      string `yaml:"log_level"`
	AuthPassword  string `yaml:"auth_password"`
	JobsDB        string `yaml:"jobs_db"`
}

func defaults() Config {
	return Config{
		Port:          "8080",
		DataDir:       "data",
		EngineTimeout: 60,
		MaxUploadMB:   100,
		LogLevel:      "info",
		JobsDB:        "db/jobs.db",
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// no file is fine, env and defaults carry the config
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.Port = env("PORT", cfg.Port)
	cfg.DataDir = env("DATA_DIR", cfg.DataDir)
	cfg.EnginePath = env("ENGINE_PATH", cfg.EnginePath)
	cfg.LogLevel = env("LOG_LEVEL", cfg.LogLevel)
	cfg.AuthPassword = env("AUTH_PASSWORD", cfg.AuthPassword)
	cfg.JobsDB = env("JOBS_DB", cfg.JobsDB)
	if v := os.Getenv("ENGINE_TIMEOUT_S"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid ENGINE_TIMEOUT_S %q", v)
		}
		cfg.EngineTimeout = n
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid MAX_UPLOAD_MB %q", v)
		}
		cfg.MaxUploadMB = n
	}
	return cfg, nil
}

// EngineTimeoutDuration returns the engine timeout as a time.Duration.
func (c Config) EngineTimeoutDuration() time.Duration {
	return time.Duration(c.EngineTimeout) * time.Second
}

// MaxUploadBytes returns the upload cap in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
