package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of one fixed-window check.
type Result struct {
	Allowed   bool
	Remaining int

	// ResetAt is when the current window expires; callers use it to build
	// retry-after responses.
	ResetAt time.Time
}

// Store is a fixed-window rate limiter keyed by an arbitrary identity string
// (e.g. "incoming-call:+15551234567").
//
// The limiter is advisory: a race at the window boundary may let one extra
// request through, which callers tolerate. Implementations must still make the
// read-check-increment per key effectively atomic so counters do not undercount.
//
// Inject a Store; never reach for a package-level singleton. Tests control
// time through the MemoryStore clock.
type Store interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
