package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config must validate: %v", err)
	}
	if len(cfg.Queue.Categories) != 6 {
		t.Errorf("Expected 6 default categories, got %d", len(cfg.Queue.Categories))
	}
	public := 0
	for _, cat := range cfg.Queue.Categories {
		if cat.Public {
			public++
		}
	}
	if public != 4 {
		t.Errorf("Expected 4 public categories, got %d", public)
	}
	if cfg.Queue.WaitUnit != 5*time.Minute {
		t.Errorf("Expected 5m wait unit, got %v", cfg.Queue.WaitUnit)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.HTTP.Port = 0 }},
		{"port out of range", func(c *Config) { c.HTTP.Port = 70000 }},
		{"empty host", func(c *Config) { c.HTTP.Host = "" }},
		{"no categories", func(c *Config) { c.Queue.Categories = nil }},
		{"duplicate category name", func(c *Config) {
			c.Queue.Categories[1].Name = c.Queue.Categories[0].Name
		}},
		{"duplicate category prefix", func(c *Config) {
			c.Queue.Categories[1].Prefix = c.Queue.Categories[0].Prefix
		}},
		{"empty prefix", func(c *Config) { c.Queue.Categories[0].Prefix = "" }},
		{"zero wait unit", func(c *Config) { c.Queue.WaitUnit = 0 }},
		{"negative session ttl", func(c *Config) { c.Session.TTL = -time.Hour }},
		{"empty cookie name", func(c *Config) { c.Session.CookieName = "" }},
		{"empty passcode", func(c *Config) { c.Admin.Passcode = "" }},
		{"zero token ttl", func(c *Config) { c.Admin.TokenTTL = 0 }},
		{"zero buffer size", func(c *Config) { c.WebSocket.BufferSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("QUEUELINE_HTTP_PORT", "9090")
	t.Setenv("QUEUELINE_WAIT_UNIT", "3m")
	t.Setenv("QUEUELINE_SESSION_COOKIE", "visit")
	t.Setenv("QUEUELINE_ADMIN_PASSCODE", "hunter2")

	cfg := LoadFromEnv()
	if cfg.HTTP.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Queue.WaitUnit != 3*time.Minute {
		t.Errorf("Expected 3m wait unit, got %v", cfg.Queue.WaitUnit)
	}
	if cfg.Session.CookieName != "visit" {
		t.Errorf("Expected cookie name visit, got %s", cfg.Session.CookieName)
	}
	if cfg.Admin.Passcode != "hunter2" {
		t.Errorf("Expected overridden passcode, got %s", cfg.Admin.Passcode)
	}
}

func TestLoadFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("QUEUELINE_HTTP_PORT", "not-a-port")
	t.Setenv("QUEUELINE_WAIT_UNIT", "five minutes")

	cfg := LoadFromEnv()
	if cfg.HTTP.Port != 8080 {
		t.Errorf("Expected default port on malformed value, got %d", cfg.HTTP.Port)
	}
	if cfg.Queue.WaitUnit != 5*time.Minute {
		t.Errorf("Expected default wait unit on malformed value, got %v", cfg.Queue.WaitUnit)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"http": {"port": 9999, "read_timeout": "45s"},
		"queue": {
			"categories": [
				{"name": "Passport Submission", "prefix": "PS", "public": true},
				{"name": "PTPTN", "prefix": "PT", "public": false}
			],
			"wait_unit": "2m"
		},
		"admin": {"passcode": "filepass"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.HTTP.Port != 9999 {
		t.Errorf("Expected port 9999, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeout != 45*time.Second {
		t.Errorf("Expected 45s read timeout, got %v", cfg.HTTP.ReadTimeout)
	}
	if len(cfg.Queue.Categories) != 2 {
		t.Errorf("Expected 2 categories from file, got %d", len(cfg.Queue.Categories))
	}
	if cfg.Queue.WaitUnit != 2*time.Minute {
		t.Errorf("Expected 2m wait unit, got %v", cfg.Queue.WaitUnit)
	}
	if cfg.Admin.Passcode != "filepass" {
		t.Errorf("Expected passcode from file, got %s", cfg.Admin.Passcode)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Session.CookieName != "queueline_session" {
		t.Errorf("Expected default cookie name, got %s", cfg.Session.CookieName)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/config.json"); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0o600)
	if _, err := LoadFromFile(path); err == nil {
		t.Error("Expected error for malformed JSON")
	}

	invalid := filepath.Join(t.TempDir(), "invalid.json")
	os.WriteFile(invalid, []byte(`{"http": {"port": 70000}}`), 0o600)
	if _, err := LoadFromFile(invalid); err == nil {
		t.Error("Expected validation error for out-of-range port")
	}
}

func TestLoadConfigWithPrecedence(t *testing.T) {
	t.Setenv("QUEUELINE_HTTP_PORT", "9090")

	// Without a file, env wins over defaults.
	cfg := LoadConfigWithPrecedence("")
	if cfg.HTTP.Port != 9090 {
		t.Errorf("Expected env port 9090, got %d", cfg.HTTP.Port)
	}

	// With a file, file wins over env.
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"http": {"port": 7070}}`), 0o600)
	cfg = LoadConfigWithPrecedence(path)
	if cfg.HTTP.Port != 7070 {
		t.Errorf("Expected file port 7070, got %d", cfg.HTTP.Port)
	}

	// A broken file falls back to env.
	cfg = LoadConfigWithPrecedence("/nonexistent/config.json")
	if cfg.HTTP.Port != 9090 {
		t.Errorf("Expected fallback to env port 9090, got %d", cfg.HTTP.Port)
	}
}
