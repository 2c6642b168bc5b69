package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config collects everything the daemon needs to run. Values come from an
// optional YAML file and can be overridden per-key by environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Store     StoreConfig     `yaml:"store"`
	Cache     CacheConfig     `yaml:"cache"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
	AMQP      AMQPConfig      `yaml:"amqp"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Location  LocationConfig  `yaml:"location"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	WSURL          string `yaml:"ws_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the HTTP client timeout.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

type StoreConfig struct {
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

type CacheConfig struct {
	DefaultTTLSeconds int `yaml:"default_ttl_seconds"`
}

// DefaultTTL returns how long cached responses stay fresh.
func (c CacheConfig) DefaultTTL() time.Duration {
	return time.Duration(c.DefaultTTLSeconds) * time.Second
}

type RealtimeConfig struct {
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts"`
	ReconnectDelayMS     int `yaml:"reconnect_delay_ms"`
	MaxReconnectDelayMS  int `yaml:"max_reconnect_delay_ms"`
}

// ReconnectDelay returns the initial delay between reconnect attempts.
func (r RealtimeConfig) ReconnectDelay() time.Duration {
	return time.Duration(r.ReconnectDelayMS) * time.Millisecond
}

// MaxReconnectDelay returns the cap on the growing reconnect delay.
func (r RealtimeConfig) MaxReconnectDelay() time.Duration {
	return time.Duration(r.MaxReconnectDelayMS) * time.Millisecond
}

type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Environment  string `yaml:"environment"`
}

type LocationConfig struct {
	Latitude       float64 `yaml:"latitude"`
	Longitude      float64 `yaml:"longitude"`
	SearchRadiusKM float64 `yaml:"search_radius_km"`
}

// Env abstracts environment lookup so overrides are testable.
type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

// Load reads the YAML file at path (when path is non-empty), applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, osEnv{})
}

// LoadWithEnv is Load with an injectable environment.
func LoadWithEnv(path string, env Env) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Server:  ServerConfig{ListenAddr: "127.0.0.1:8090"},
		Backend: BackendConfig{TimeoutSeconds: 15},
		Store:   StoreConfig{Path: "breadshare.db", Namespace: "breadshare"},
		Cache:   CacheConfig{DefaultTTLSeconds: 300},
		Realtime: RealtimeConfig{
			MaxReconnectAttempts: 5,
			ReconnectDelayMS:     1000,
			MaxReconnectDelayMS:  30000,
		},
		AMQP:      AMQPConfig{Exchange: "breadshare.events"},
		Telemetry: TelemetryConfig{Environment: "development"},
		Location:  LocationConfig{SearchRadiusKM: 10},
	}
}

func applyEnv(cfg *Config, env Env) error {
	if raw := env.Getenv("LISTEN_ADDR"); raw != "" {
		cfg.Server.ListenAddr = raw
	}
	if raw := env.Getenv("BACKEND_BASE_URL"); raw != "" {
		cfg.Backend.BaseURL = raw
	}
	if raw := env.Getenv("BACKEND_WS_URL"); raw != "" {
		cfg.Backend.WSURL = raw
	}
	if raw := env.Getenv("BACKEND_TIMEOUT_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("invalid BACKEND_TIMEOUT_SECONDS")
		}
		cfg.Backend.TimeoutSeconds = seconds
	}
	if raw := env.Getenv("STORE_PATH"); raw != "" {
		cfg.Store.Path = raw
	}
	if raw := env.Getenv("CACHE_TTL_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("invalid CACHE_TTL_SECONDS")
		}
		cfg.Cache.DefaultTTLSeconds = seconds
	}
	if raw := env.Getenv("MAX_RECONNECT_ATTEMPTS"); raw != "" {
		attempts, err := strconv.Atoi(raw)
		if err != nil || attempts <= 0 {
			return fmt.Errorf("invalid MAX_RECONNECT_ATTEMPTS")
		}
		cfg.Realtime.MaxReconnectAttempts = attempts
	}
	if raw := env.Getenv("AMQP_URL"); raw != "" {
		cfg.AMQP.URL = raw
	}
	if raw := env.Getenv("OTLP_ENDPOINT"); raw != "" {
		cfg.Telemetry.OTLPEndpoint = raw
	}
	return nil
}

func (c Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url is required")
	}
	if c.Backend.WSURL == "" {
		return fmt.Errorf("backend ws_url is required")
	}
	if c.Store.Namespace == "" {
		return fmt.Errorf("store namespace is required")
	}
	if c.Realtime.ReconnectDelayMS <= 0 || c.Realtime.MaxReconnectDelayMS < c.Realtime.ReconnectDelayMS {
		return fmt.Errorf("invalid reconnect delay bounds")
	}
	return nil
}
