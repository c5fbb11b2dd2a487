package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	Env  string `envconfig:"APP_ENV" default:"development" validate:"oneof=development production test"`
	Port string `envconfig:"PORT" default:"5000" validate:"required,numeric"`

	// DatabasePath is the SQLite file holding widgets.
	DatabasePath string `envconfig:"DATABASE_PATH" default:"widgets.db" validate:"required"`
	CORSOrigin   string `envconfig:"CORS_ORIGIN" default:"http://localhost:3000" validate:"required"`

	// Weather cache freshness window, in milliseconds.
	CacheTTLMs         int           `envconfig:"WEATHER_CACHE_TTL_MS" default:"300000" validate:"gt=0"`
	CacheSweepInterval time.Duration `envconfig:"WEATHER_CACHE_SWEEP_INTERVAL" default:"1h" validate:"gt=0"`

	// WidgetRefreshInterval warms the cache for every widget (0 = disabled).
	WidgetRefreshInterval time.Duration `envconfig:"WIDGET_REFRESH_INTERVAL" default:"0" validate:"gte=0"`

	UpstreamTimeout  time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"8s" validate:"gt=0"`
	GeocodingBaseURL string        `envconfig:"GEOCODING_BASE_URL" default:"https://geocoding-api.open-meteo.com/v1" validate:"required,url"`
	ForecastBaseURL  string        `envconfig:"FORECAST_BASE_URL" default:"https://api.open-meteo.com/v1" validate:"required,url"`

	// Optional fallback geocoder; empty disables it.
	GoogleGeocoderAPIKey string `envconfig:"GOOGLE_GEOCODER_API_KEY"`
}

// CacheTTL returns the cache TTL as a duration.
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMs) * time.Millisecond
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from the environment with sensible defaults and validates it.
// Callers load any .env file beforehand.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
