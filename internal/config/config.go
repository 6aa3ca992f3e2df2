package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Storage backends for quiz state.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"QUIZ_SERVER_PORT"`
	} `yaml:"server"`
	Storage struct {
		Backend    string `yaml:"backend" env:"QUIZ_STORAGE_BACKEND"`
		Key        string `yaml:"key" env:"QUIZ_STORAGE_KEY"`
		QuotaBytes int    `yaml:"quotaBytes" env:"QUIZ_STORAGE_QUOTA_BYTES"`
		SQLitePath string `yaml:"sqlitePath" env:"QUIZ_SQLITE_PATH"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr" env:"QUIZ_REDIS_ADDR"`
		Password string `yaml:"password" env:"QUIZ_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"QUIZ_REDIS_DB"`
		TTL      string `yaml:"ttl" env:"QUIZ_REDIS_TTL"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"QUIZ_POSTGRES_URL"`
	} `yaml:"postgres"`
	Questions struct {
		Dir    string `yaml:"dir" env:"QUIZ_QUESTIONS_DIR"`
		Source string `yaml:"source" env:"QUIZ_QUESTIONS_SOURCE"`
		TTL    string `yaml:"ttl" env:"QUIZ_QUESTIONS_TTL"`
	} `yaml:"questions"`
}

// Default returns the configuration used when a field is left empty.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Storage.Backend = BackendMemory
	cfg.Storage.Key = "quiz-state"
	cfg.Storage.SQLitePath = "data/quiz.db"
	cfg.Redis.TTL = "168h"
	cfg.Questions.Dir = "questions"
	cfg.Questions.Source = "en"
	cfg.Questions.TTL = "10m"
	return cfg
}

// Load reads YAML config from path over the defaults, then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late at startup.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("storage backend redis needs redis.addr")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.QuotaBytes < 0 {
		return fmt.Errorf("storage.quotaBytes must not be negative")
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
