// Package ratelimiter provides token bucket limiting for the accept path.
package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles how fast new connections are accepted using the
// token bucket algorithm from golang.org/x/time/rate.
//
// Tokens are added at a constant rate (accepts per second) and each accept
// consumes one token. Burst capacity allows short spikes above the
// sustained rate. The acceptor calls Wait before each accept, so clients
// are queued in the kernel backlog rather than rejected.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing acceptsPerSecond sustained with the
// given burst capacity.
//
// Special cases:
//   - acceptsPerSecond = 0: no limiting (effectively unlimited)
//   - burst < acceptsPerSecond: burst is raised to acceptsPerSecond so the
//     bucket can hold one second of tokens
func New(acceptsPerSecond, burst uint) *RateLimiter {
	if acceptsPerSecond == 0 {
		// rate.Inf has awkward burst semantics, so use a huge finite rate.
		acceptsPerSecond = 1_000_000_000
		burst = acceptsPerSecond
	}
	if burst < acceptsPerSecond {
		burst = acceptsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(acceptsPerSecond), int(burst)),
	}
}

// Allow reports whether one accept is currently allowed, consuming a token
// if so. This is the non-blocking fast path.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
//
// Returns nil once a token was acquired, or the context error if ctx was
// cancelled first.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Delay returns how long the caller would have to wait for the next token
// without consuming one. Used for diagnostics.
func (r *RateLimiter) Delay() time.Duration {
	reservation := r.limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel()
	return delay
}
