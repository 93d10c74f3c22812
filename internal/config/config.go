package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config for the display sync daemon.
type Config struct {
	ListenAddr      string `yaml:"listen_addr"`
	ServiceURL      string `yaml:"service_url"` // order service REST base
	PushURL         string `yaml:"push_url"`    // order service websocket base
	BranchID        string `yaml:"branch_id"`
	FetchTimeoutSec int    `yaml:"fetch_timeout_sec"`
}

// Load builds the config from defaults, then an optional YAML file, then
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ListenAddr:      ":8082",
		ServiceURL:      "http://localhost:8081",
		PushURL:         "ws://localhost:8081",
		FetchTimeoutSec: 10,
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.ServiceURL = getEnv("ORDER_SERVICE_URL", cfg.ServiceURL)
	cfg.PushURL = getEnv("ORDER_PUSH_URL", cfg.PushURL)
	cfg.BranchID = getEnv("BRANCH_ID", cfg.BranchID)
	if v := os.Getenv("FETCH_TIMEOUT_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("FETCH_TIMEOUT_SEC: %w", err)
		}
		cfg.FetchTimeoutSec = n
	}
	return cfg, nil
}

// FetchTimeout returns the reconciliation fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
