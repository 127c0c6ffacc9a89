package config

import (
	"time"

	"github.com/kayrahq/fetchkit/fetch"
	"github.com/kayrahq/fetchkit/logger"
	"github.com/kayrahq/fetchkit/resilience"
	"github.com/kayrahq/fetchkit/validation"
)

// File is the on-disk shape of a fetchkit configuration.
type File struct {
	Client Client        `yaml:"client" mapstructure:"client"`
	Logger logger.Config `yaml:"logger" mapstructure:"logger"`
}

// Client is the loadable subset of fetch.Config, plus retry and breaker
// sections that are only applied when enabled.
type Client struct {
	BaseURL   string            `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	Timeout   time.Duration     `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	UserAgent string            `yaml:"user_agent" mapstructure:"user_agent"`
	Headers   map[string]string `yaml:"headers" mapstructure:"headers"`
	Tracing   bool              `yaml:"tracing" mapstructure:"tracing"`
	Metrics   bool              `yaml:"metrics" mapstructure:"metrics"`

	Retry struct {
		Enabled                bool `yaml:"enabled" mapstructure:"enabled"`
		resilience.RetryConfig `yaml:",inline" mapstructure:",squash"`
	} `yaml:"retry" mapstructure:"retry"`

	Breaker struct {
		Enabled                  bool `yaml:"enabled" mapstructure:"enabled"`
		resilience.BreakerConfig `yaml:",inline" mapstructure:",squash"`
	} `yaml:"breaker" mapstructure:"breaker"`

	Limiter struct {
		Enabled                  bool `yaml:"enabled" mapstructure:"enabled"`
		resilience.LimiterConfig `yaml:",inline" mapstructure:",squash"`
	} `yaml:"limiter" mapstructure:"limiter"`
}

// Validate checks the loaded file against its validation tags.
func (f *File) Validate() error {
	return validation.Validate(f)
}

// FetchConfig converts the loaded client section into a fetch.Config, with
// log as the pipeline logger.
func (f *File) FetchConfig(log *logger.Logger) fetch.Config {
	cfg := fetch.Config{
		BaseURL:   f.Client.BaseURL,
		Timeout:   f.Client.Timeout,
		UserAgent: f.Client.UserAgent,
		Headers:   f.Client.Headers,
		Logger:    log,
		Tracing:   f.Client.Tracing,
		Metrics:   f.Client.Metrics,
	}
	if f.Client.Retry.Enabled {
		retry := f.Client.Retry.RetryConfig
		cfg.Retry = &retry
	}
	if f.Client.Breaker.Enabled {
		breaker := f.Client.Breaker.BreakerConfig
		cfg.Breaker = &breaker
	}
	if f.Client.Limiter.Enabled {
		limiter := f.Client.Limiter.LimiterConfig
		cfg.Limiter = &limiter
	}
	return cfg
}
