package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port             int           `envconfig:"PORT" default:"8080"`
	RenderServiceURL string        `envconfig:"RENDER_SERVICE_URL" default:"http://localhost:8000"`
	RequestTimeout   time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	ViewportWidth    int           `envconfig:"VIEWPORT_WIDTH" default:"1280"`
	ViewportHeight   int           `envconfig:"VIEWPORT_HEIGHT" default:"720"`
	HandleOffset     float64       `envconfig:"HANDLE_OFFSET" default:"10"`
	HandleRadius     float64       `envconfig:"HANDLE_RADIUS" default:"6"`
	CloseRadius      float64       `envconfig:"CLOSE_RADIUS" default:"10"`
	ClipDebounce     time.Duration `envconfig:"CLIP_DEBOUNCE" default:"100ms"`
	AllowedOrigins   string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.ViewportWidth <= 0 || cfg.ViewportHeight <= 0 {
		return nil, fmt.Errorf("invalid viewport %dx%d", cfg.ViewportWidth, cfg.ViewportHeight)
	}
	return &cfg, nil
}

// Origins splits ALLOWED_ORIGINS into trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Level maps LOG_LEVEL onto a slog level. Unknown values mean info.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
