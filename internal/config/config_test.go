// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("read timeout = %s, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Data.Dir != "./data" {
		t.Errorf("data dir = %q, want ./data", cfg.Data.Dir)
	}
	if cfg.Agent.ConfidenceNewUser != 2.0 {
		t.Errorf("new-user confidence = %v, want 2.0", cfg.Agent.ConfidenceNewUser)
	}
	if !reflect.DeepEqual(cfg.API.CORSAllowedOrigins, []string{"*"}) {
		t.Errorf("cors origins = %v, want [*]", cfg.API.CORSAllowedOrigins)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %q/%q, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TONEARM_SERVER_PORT", "9090")
	t.Setenv("TONEARM_SERVER_READ_TIMEOUT", "5s")
	t.Setenv("TONEARM_DATA_DIR", "/srv/hetrec")
	t.Setenv("TONEARM_LOGGING_LEVEL", "debug")
	t.Setenv("TONEARM_AGENT_SOPHISTICATION_THRESHOLD", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("read timeout = %s, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Data.Dir != "/srv/hetrec" {
		t.Errorf("data dir = %q, want /srv/hetrec", cfg.Data.Dir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Agent.SophisticationThreshold != 0.5 {
		t.Errorf("threshold = %v, want 0.5", cfg.Agent.SophisticationThreshold)
	}
}

func TestLoadEnvSliceField(t *testing.T) {
	t.Setenv("TONEARM_API_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.API.CORSAllowedOrigins, want) {
		t.Errorf("cors origins = %v, want %v", cfg.API.CORSAllowedOrigins, want)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 7171\nlogging:\n  format: console\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7171 {
		t.Errorf("port = %d, want 7171 from file", cfg.Server.Port)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("format = %q, want console from file", cfg.Logging.Format)
	}
	// Untouched fields keep their defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q, want default", cfg.Server.Host)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7171\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("TONEARM_SERVER_PORT", "7272")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7272 {
		t.Errorf("port = %d, want env override 7272", cfg.Server.Port)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("TONEARM_SERVER_PORT", "99999")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for out-of-range port")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TONEARM_SERVER_PORT", "server.port"},
		{"TONEARM_SERVER_READ_TIMEOUT", "server.read_timeout"},
		{"TONEARM_DATA_DIR", "data.dir"},
		{"TONEARM_API_CORS_ALLOWED_ORIGINS", "api.cors_allowed_origins"},
		{"TONEARM_AGENT_SOPHISTICATION_THRESHOLD", "agent.sophistication_threshold"},
		{"TONEARM_LOGGING", "logging"},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, true},
		{"empty data dir", func(c *Config) { c.Data.Dir = "" }, true},
		{"zero rate limit", func(c *Config) { c.API.RateLimitRequests = 0 }, true},
		{"zero rate limit but disabled", func(c *Config) {
			c.API.RateLimitRequests = 0
			c.API.RateLimitDisabled = true
		}, false},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"bad agent config", func(c *Config) { c.Agent.HistoryWindow = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
