package ratelimit

import (
	"context"
	"time"
)

// Window is the fixed-window length for abuse mitigation counters.
const Window = time.Minute

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error)
}
