package oracle

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces provider calls so batch runs stay inside API quotas.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing rps requests per second with the
// given burst. Non-positive values fall back to one request per second.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until the limiter allows the next call or ctx is canceled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}
