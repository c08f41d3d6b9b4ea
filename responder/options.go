package responder

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/joshuafuller/beacon/internal/security"
	"github.com/joshuafuller/beacon/internal/transport"
)

// Option is a functional option for configuring an Engine at construction.
type Option func(*Engine) error

// WithLogger overrides the engine's default silent logger, following the
// "verbose bool -> logging switch" shape of the original's mdnsd_start.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithTransport installs a test-double transport instead of opening a real
// multicast socket. Used by engine tests; production callers never need
// this, since New already opens the right socket for hostAddr.
func WithTransport(t transport.Transport) Option {
	return func(e *Engine) error {
		e.transport = t
		return nil
	}
}

// WithWakeupBuffer overrides the wakeup channel's buffer size (default 8).
// A buffer of at least 1 is required; registrations/removals that arrive
// faster than the worker drains them simply coalesce into one wakeup.
func WithWakeupBuffer(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			n = 1
		}
		e.wakeup = make(chan struct{}, n)
		return nil
	}
}

// WithRateLimiter overrides the default per-source-IP query rate limiter.
func WithRateLimiter(rl *security.RateLimiter) Option {
	return func(e *Engine) error {
		e.rateLimiter = rl
		return nil
	}
}

// WithSourceFilter overrides the default source-address filter (normally
// derived automatically from the interface hostAddr resolves to).
func WithSourceFilter(sf *security.SourceFilter) Option {
	return func(e *Engine) error {
		e.sourceFilter = sf
		return nil
	}
}

// WithPollInterval overrides how often the worker loop's Receive call times
// out to check for queued announcements/withdrawals and the stop flag.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) error {
		e.pollInterval = d
		return nil
	}
}
