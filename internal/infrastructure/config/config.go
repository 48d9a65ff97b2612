package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
	Surface    SurfaceConfig
	Extraction ExtractionConfig
	Gesture    GestureConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// CORSOrigins lists allowed presentation origins; "*" allows any.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string { return s.Host + ":" + s.Port }

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// SurfaceConfig selects and tunes the rendering surface driver.
type SurfaceConfig struct {
	Driver         string        `envconfig:"SURFACE_DRIVER" default:"sandbox"`
	Origin         string        `envconfig:"SURFACE_ORIGIN" default:"https://old.reddit.com"`
	ChromeBin      string        `envconfig:"CHROME_BIN"`
	ChromeHeadless bool          `envconfig:"CHROME_HEADLESS" default:"true"`
	NavTimeout     time.Duration `envconfig:"SURFACE_NAV_TIMEOUT" default:"30s"`
	Observe        string        `envconfig:"SURFACE_OBSERVE" default:"native"`
	PollInterval   time.Duration `envconfig:"SURFACE_POLL_INTERVAL" default:"500ms"`
	LoaderRPS      float64       `envconfig:"LOADER_RPS" default:"2"`
}

// ExtractionConfig tunes the content scripts.
type ExtractionConfig struct {
	Delay    time.Duration `envconfig:"EXTRACT_DELAY" default:"200ms"`
	MaxDelay time.Duration `envconfig:"EXTRACT_MAX_DELAY" default:"1s"`
	Rules    string        `envconfig:"EXTRACT_RULES"`
}

// GestureConfig holds swipe recognizer thresholds in points.
type GestureConfig struct {
	EdgeWidth         float64 `envconfig:"GESTURE_EDGE_WIDTH" default:"24"`
	DragThreshold     float64 `envconfig:"GESTURE_DRAG_THRESHOLD" default:"10"`
	VelocityThreshold float64 `envconfig:"GESTURE_VELOCITY_THRESHOLD" default:"300"`
	ScreenWidth       float64 `envconfig:"GESTURE_SCREEN_WIDTH" default:"390"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Surface.Driver {
	case "sandbox", "chrome":
	default:
		return fmt.Errorf("invalid SURFACE_DRIVER %q", c.Surface.Driver)
	}
	switch c.Surface.Observe {
	case "native", "poll":
	default:
		return fmt.Errorf("invalid SURFACE_OBSERVE %q", c.Surface.Observe)
	}
	if c.Gesture.ScreenWidth <= 2*c.Gesture.EdgeWidth {
		return fmt.Errorf("GESTURE_SCREEN_WIDTH %.0f too small for edge width %.0f",
			c.Gesture.ScreenWidth, c.Gesture.EdgeWidth)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Surface: SurfaceConfig{
			Driver:         "sandbox",
			Origin:         "https://old.reddit.com",
			ChromeHeadless: true,
			NavTimeout:     30 * time.Second,
			Observe:        "native",
			PollInterval:   500 * time.Millisecond,
			LoaderRPS:      2,
		},
		Extraction: ExtractionConfig{
			Delay:    200 * time.Millisecond,
			MaxDelay: time.Second,
		},
		Gesture: GestureConfig{
			EdgeWidth:         24,
			DragThreshold:     10,
			VelocityThreshold: 300,
			ScreenWidth:       390,
		},
	}
}
