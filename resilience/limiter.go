package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a call is denied without waiting.
var ErrRateLimited = errors.New("resilience: rate limit exceeded")

// LimiterConfig configures a client-side rate limiter.
type LimiterConfig struct {
	// Name identifies this limiter in callbacks and logs.
	Name string `yaml:"name" mapstructure:"name"`
	// Rate is the sustained number of calls allowed per second.
	Rate float64 `yaml:"rate" mapstructure:"rate"`
	// Burst is the bucket capacity. Defaults to Rate.
	Burst int `yaml:"burst" mapstructure:"burst"`
	// OnLimit is called when a call is limited.
	OnLimit func(name string) `yaml:"-" mapstructure:"-"`
}

// DefaultLimiterConfig returns sensible defaults.
func DefaultLimiterConfig(name string) LimiterConfig {
	return LimiterConfig{
		Name:  name,
		Rate:  10,
		Burst: 20,
	}
}

// Limiter is a token-bucket rate limiter. The bucket refills continuously
// at Rate tokens per second up to Burst.
type Limiter struct {
	config LimiterConfig

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewLimiter creates a rate limiter with a full bucket.
func NewLimiter(config LimiterConfig) *Limiter {
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Burst <= 0 {
		config.Burst = int(config.Rate)
	}
	return &Limiter{
		config: config,
		tokens: float64(config.Burst),
		last:   time.Now(),
	}
}

// Allow reports whether one call may proceed immediately, consuming a
// token when it may.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill(time.Now())
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	if l.config.OnLimit != nil {
		l.config.OnLimit(l.config.Name)
	}
	return false
}

// Wait blocks until a call may proceed or ctx is done. A cancelled wait
// returns the token so later callers are not charged for it.
func (l *Limiter) Wait(ctx context.Context) error {
	wait := l.reserve()
	if wait <= 0 {
		return nil
	}
	if l.config.OnLimit != nil {
		l.config.OnLimit(l.config.Name)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		l.mu.Lock()
		l.tokens++
		l.mu.Unlock()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute runs fn if a token is available, ErrRateLimited otherwise.
func (l *Limiter) Execute(fn func() error) error {
	if !l.Allow() {
		return ErrRateLimited
	}
	return fn()
}

// reserve consumes a token eagerly and returns how long the caller must
// wait before using it. Concurrent reservations queue up by driving the
// token count further negative.
func (l *Limiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.refill(now)
	l.tokens--
	if l.tokens >= 0 {
		return 0
	}
	return time.Duration(-l.tokens / l.config.Rate * float64(time.Second))
}

// refill credits tokens for the time elapsed since the last refill.
func (l *Limiter) refill(now time.Time) {
	elapsed := now.Sub(l.last).Seconds()
	if elapsed > 0 {
		l.tokens += elapsed * l.config.Rate
		if limit := float64(l.config.Burst); l.tokens > limit {
			l.tokens = limit
		}
	}
	l.last = now
}
