package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned when the circuit is open and calls fail fast.
var ErrBreakerOpen = errors.New("resilience: circuit breaker is open")

// BreakerState represents the circuit breaker state.
type BreakerState int

const (
	// BreakerClosed allows calls to pass through.
	BreakerClosed BreakerState = iota
	// BreakerOpen fails all calls immediately.
	BreakerOpen
	// BreakerHalfOpen allows limited probe calls to test recovery.
	BreakerHalfOpen
)

// String returns the state name.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	// Name identifies this breaker in logs.
	Name string `yaml:"name" mapstructure:"name"`
	// MaxFailures is the consecutive-failure threshold before opening.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures"`
	// CoolDown is how long the breaker stays open before probing.
	CoolDown time.Duration `yaml:"cool_down" mapstructure:"cool_down"`
	// HalfOpenMaxCalls is the number of probe calls allowed when half-open.
	HalfOpenMaxCalls int `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls"`
	// OnStateChange is called when the state changes.
	OnStateChange func(name string, from, to BreakerState) `yaml:"-" mapstructure:"-"`
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxFailures:      5,
		CoolDown:         30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// Breaker implements the circuit breaker pattern: after MaxFailures
// consecutive failures it opens and fails fast, then after CoolDown it
// half-opens and lets probe calls decide whether to close again.
type Breaker struct {
	config BreakerConfig

	mu            sync.Mutex
	state         BreakerState
	failures      int
	lastFailure   time.Time
	halfOpenCalls int
}

// NewBreaker creates a circuit breaker.
func NewBreaker(config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.CoolDown <= 0 {
		config.CoolDown = 30 * time.Second
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}
	return &Breaker{config: config, state: BreakerClosed}
}

// Execute runs fn through the breaker. Returns ErrBreakerOpen without
// invoking fn when the circuit is open.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allow() {
		return ErrBreakerOpen
	}
	err := fn()
	b.record(err)
	return err
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// allow reports whether a call may proceed, claiming a half-open slot when
// relevant.
func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.stateLocked() {
	case BreakerClosed:
		return true
	case BreakerHalfOpen:
		if b.halfOpenCalls < b.config.HalfOpenMaxCalls {
			b.halfOpenCalls++
			return true
		}
		return false
	default:
		return false
	}
}

// record updates breaker state after a call.
func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.stateLocked()
	if err == nil {
		if state == BreakerHalfOpen {
			b.transition(state, BreakerClosed)
		}
		b.failures = 0
		b.halfOpenCalls = 0
		return
	}

	b.failures++
	b.lastFailure = time.Now()
	switch state {
	case BreakerHalfOpen:
		b.transition(state, BreakerOpen)
		b.halfOpenCalls = 0
	case BreakerClosed:
		if b.failures >= b.config.MaxFailures {
			b.transition(state, BreakerOpen)
		}
	}
}

// stateLocked resolves the effective state, moving open→half-open after the
// cool-down elapses. Caller holds b.mu.
func (b *Breaker) stateLocked() BreakerState {
	if b.state == BreakerOpen && time.Since(b.lastFailure) >= b.config.CoolDown {
		b.transition(BreakerOpen, BreakerHalfOpen)
		b.halfOpenCalls = 0
	}
	return b.state
}

func (b *Breaker) transition(from, to BreakerState) {
	if from == to {
		return
	}
	b.state = to
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(b.config.Name, from, to)
	}
}
