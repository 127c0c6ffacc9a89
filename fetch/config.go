package fetch

import (
	"time"

	"github.com/kayrahq/fetchkit/logger"
	"github.com/kayrahq/fetchkit/resilience"
	"github.com/kayrahq/fetchkit/validation"
)

const defaultTimeout = 30 * time.Second

// Config configures a Fetcher.
type Config struct {
	// BaseURL is the base URL prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// Timeout is the default per-request deadline. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// UserAgent is sent as the User-Agent header unless overridden.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Auth configures default authentication applied to all requests.
	// Individual requests can override this.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// Retry configures retry behavior for Do. Nil disables retry. Streams
	// are never retried. The zero-value RetryIf is replaced with the
	// client's IsRetryable classification.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`

	// Breaker configures circuit breaking. Nil disables it.
	Breaker *resilience.BreakerConfig `yaml:"-" mapstructure:"-"`

	// Limiter configures client-side rate limiting. Nil disables it.
	// Calls wait for a token before the transport round trip; a context
	// that expires while waiting surfaces as a cancellation.
	Limiter *resilience.LimiterConfig `yaml:"-" mapstructure:"-"`

	// Transport executes round trips. Nil uses net/http.
	Transport Transport `yaml:"-" mapstructure:"-"`

	// Logger receives structured pipeline logs. Nil discards them.
	Logger *logger.Logger `yaml:"-" mapstructure:"-"`

	// Tracing enables an OpenTelemetry span per call, using the globally
	// registered tracer provider.
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`

	// Metrics enables request counters and duration histograms, using the
	// globally registered meter provider.
	Metrics bool `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = "fetchkit"
	}
	if c.Retry != nil && c.Retry.RetryIf == nil {
		c.Retry.RetryIf = IsRetryable
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return NewConfigurationError(err.Error())
	}
	return nil
}

// DefaultRetryConfig returns a retry config classified by IsRetryable.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

// DefaultBreakerConfig returns a default circuit breaker config.
func DefaultBreakerConfig(name string) *resilience.BreakerConfig {
	cfg := resilience.DefaultBreakerConfig(name)
	return &cfg
}
