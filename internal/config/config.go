package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"queueline/pkg/types"
)

// Config is the system-wide runtime configuration.
type Config struct {
	HTTP      *HTTPConfig      `json:"http"`
	WebSocket *WebSocketConfig `json:"websocket"`
	Queue     *QueueConfig     `json:"queue"`
	Session   *SessionConfig   `json:"session"`
	Admin     *AdminConfig     `json:"admin"`
}

type HTTPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type WebSocketConfig struct {
	PingInterval time.Duration `json:"ping_interval"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	BufferSize   int           `json:"buffer_size"`
}

// QueueConfig fixes the category enumeration and the wait-estimate
// unit. Categories are externally configured, never created at
// runtime.
type QueueConfig struct {
	Categories []types.Category `json:"categories"`
	WaitUnit   time.Duration    `json:"wait_unit"`
}

type SessionConfig struct {
	TTL        time.Duration `json:"ttl"`
	CookieName string        `json:"cookie_name"`
}

// AdminConfig is the shared-secret gate in front of counter
// management. Passcode login yields a short-lived JWT.
type AdminConfig struct {
	Passcode  string        `json:"passcode"`
	JWTSecret string        `json:"jwt_secret"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// DefaultConfig mirrors the original deployment: six categories, four
// of them visitor-visible, five-minute wait unit.
func DefaultConfig() *Config {
	return &Config{
		HTTP: &HTTPConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: &WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
			BufferSize:   100,
		},
		Queue: &QueueConfig{
			Categories: []types.Category{
				{Name: "Passport Submission", Prefix: "PS", Public: true},
				{Name: "Passport Collection", Prefix: "PC", Public: true},
				{Name: "I-Kad Collection", Prefix: "IK", Public: true},
				{Name: "Medical Insurance Inquiry", Prefix: "MI", Public: true},
				{Name: "EMGS Bank Letter", Prefix: "BL", Public: false},
				{Name: "PTPTN", Prefix: "PT", Public: false},
			},
			WaitUnit: 5 * time.Minute,
		},
		Session: &SessionConfig{
			TTL:        12 * time.Hour,
			CookieName: "queueline_session",
		},
		Admin: &AdminConfig{
			Passcode:  "changeme",
			JWTSecret: "changeme-too",
			TokenTTL:  8 * time.Hour,
		},
	}
}

// Validate rejects configurations that would fail at runtime.
func (c *Config) Validate() error {
	if c.HTTP == nil {
		return fmt.Errorf("http configuration is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535")
	}
	if c.HTTP.Host == "" {
		return fmt.Errorf("http host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("http timeouts must be positive")
	}

	if c.WebSocket == nil {
		return fmt.Errorf("websocket configuration is required")
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.ReadTimeout <= 0 || c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("websocket intervals must be positive")
	}
	if c.WebSocket.BufferSize <= 0 {
		return fmt.Errorf("websocket buffer size must be positive")
	}

	if c.Queue == nil || len(c.Queue.Categories) == 0 {
		return fmt.Errorf("at least one service category is required")
	}
	seenName := make(map[string]bool)
	seenPrefix := make(map[string]bool)
	for _, cat := range c.Queue.Categories {
		if cat.Name == "" || cat.Prefix == "" {
			return fmt.Errorf("category name and prefix cannot be empty")
		}
		if seenName[cat.Name] {
			return fmt.Errorf("duplicate category name: %s", cat.Name)
		}
		if seenPrefix[cat.Prefix] {
			return fmt.Errorf("duplicate category prefix: %s", cat.Prefix)
		}
		seenName[cat.Name] = true
		seenPrefix[cat.Prefix] = true
	}
	if c.Queue.WaitUnit <= 0 {
		return fmt.Errorf("wait unit must be positive")
	}

	if c.Session == nil {
		return fmt.Errorf("session configuration is required")
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session ttl cannot be negative")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name cannot be empty")
	}

	if c.Admin == nil {
		return fmt.Errorf("admin configuration is required")
	}
	if c.Admin.Passcode == "" || c.Admin.JWTSecret == "" {
		return fmt.Errorf("admin passcode and jwt secret cannot be empty")
	}
	if c.Admin.TokenTTL <= 0 {
		return fmt.Errorf("admin token ttl must be positive")
	}

	return nil
}

// LoadFromEnv overlays QUEUELINE_* environment variables on the
// defaults. Malformed values fall back silently, same as the rest of
// the precedence chain.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	if host := os.Getenv("QUEUELINE_HTTP_HOST"); host != "" {
		cfg.HTTP.Host = host
	}
	if port := os.Getenv("QUEUELINE_HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.HTTP.Port = p
		}
	}
	envDuration("QUEUELINE_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout)
	envDuration("QUEUELINE_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout)

	envDuration("QUEUELINE_WS_PING_INTERVAL", &cfg.WebSocket.PingInterval)
	envDuration("QUEUELINE_WS_READ_TIMEOUT", &cfg.WebSocket.ReadTimeout)
	envDuration("QUEUELINE_WS_WRITE_TIMEOUT", &cfg.WebSocket.WriteTimeout)
	if size := os.Getenv("QUEUELINE_WS_BUFFER_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			cfg.WebSocket.BufferSize = n
		}
	}

	envDuration("QUEUELINE_WAIT_UNIT", &cfg.Queue.WaitUnit)
	envDuration("QUEUELINE_SESSION_TTL", &cfg.Session.TTL)
	if name := os.Getenv("QUEUELINE_SESSION_COOKIE"); name != "" {
		cfg.Session.CookieName = name
	}

	if pass := os.Getenv("QUEUELINE_ADMIN_PASSCODE"); pass != "" {
		cfg.Admin.Passcode = pass
	}
	if secret := os.Getenv("QUEUELINE_ADMIN_JWT_SECRET"); secret != "" {
		cfg.Admin.JWTSecret = secret
	}
	envDuration("QUEUELINE_ADMIN_TOKEN_TTL", &cfg.Admin.TokenTTL)

	return cfg
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// ConfigFile is the JSON form, with durations as strings ("30s").
type ConfigFile struct {
	HTTP      *HTTPConfigFile      `json:"http"`
	WebSocket *WebSocketConfigFile `json:"websocket"`
	Queue     *QueueConfigFile     `json:"queue"`
	Session   *SessionConfigFile   `json:"session"`
	Admin     *AdminConfigFile     `json:"admin"`
}

type HTTPConfigFile struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
}

type WebSocketConfigFile struct {
	PingInterval string `json:"ping_interval"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
	BufferSize   int    `json:"buffer_size"`
}

type QueueConfigFile struct {
	Categories []types.Category `json:"categories"`
	WaitUnit   string           `json:"wait_unit"`
}

type SessionConfigFile struct {
	TTL        string `json:"ttl"`
	CookieName string `json:"cookie_name"`
}

type AdminConfigFile struct {
	Passcode  string `json:"passcode"`
	JWTSecret string `json:"jwt_secret"`
	TokenTTL  string `json:"token_ttl"`
}

// LoadFromFile reads a JSON configuration file and overlays it on the
// defaults, validating the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file ConfigFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg := DefaultConfig()

	if file.HTTP != nil {
		if file.HTTP.Host != "" {
			cfg.HTTP.Host = file.HTTP.Host
		}
		if file.HTTP.Port > 0 {
			cfg.HTTP.Port = file.HTTP.Port
		}
		fileDuration(file.HTTP.ReadTimeout, &cfg.HTTP.ReadTimeout)
		fileDuration(file.HTTP.WriteTimeout, &cfg.HTTP.WriteTimeout)
	}

	if file.WebSocket != nil {
		fileDuration(file.WebSocket.PingInterval, &cfg.WebSocket.PingInterval)
		fileDuration(file.WebSocket.ReadTimeout, &cfg.WebSocket.ReadTimeout)
		fileDuration(file.WebSocket.WriteTimeout, &cfg.WebSocket.WriteTimeout)
		if file.WebSocket.BufferSize > 0 {
			cfg.WebSocket.BufferSize = file.WebSocket.BufferSize
		}
	}

	if file.Queue != nil {
		if len(file.Queue.Categories) > 0 {
			cfg.Queue.Categories = file.Queue.Categories
		}
		fileDuration(file.Queue.WaitUnit, &cfg.Queue.WaitUnit)
	}

	if file.Session != nil {
		fileDuration(file.Session.TTL, &cfg.Session.TTL)
		if file.Session.CookieName != "" {
			cfg.Session.CookieName = file.Session.CookieName
		}
	}

	if file.Admin != nil {
		if file.Admin.Passcode != "" {
			cfg.Admin.Passcode = file.Admin.Passcode
		}
		if file.Admin.JWTSecret != "" {
			cfg.Admin.JWTSecret = file.Admin.JWTSecret
		}
		fileDuration(file.Admin.TokenTTL, &cfg.Admin.TokenTTL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

func fileDuration(raw string, dst *time.Duration) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}

// LoadConfigWithPrecedence resolves configuration as file > env >
// defaults. A missing or broken file is ignored; env and defaults
// still apply.
func LoadConfigWithPrecedence(path string) *Config {
	cfg := LoadFromEnv()

	if path != "" {
		if fileCfg, err := LoadFromFile(path); err == nil {
			cfg = fileCfg
		}
	}

	return cfg
}
