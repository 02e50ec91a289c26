package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Decision is the outcome of an admission check. On denial, RetryAfter says
// how long until the current window rolls over.
type Decision struct {
	Admitted   bool          `json:"admitted"`
	Limit      PolicyLimit   `json:"limit"`
	Remaining  int           `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// AdmissionCounter enforces fixed-window limits. The counter for a window is
// created on the first admission attempt, incremented atomically per attempt,
// and expires with the window, so elapsed windows clean themselves up.
type AdmissionCounter struct {
	resolver *Resolver
	counters CounterStore
	now      func() time.Time
}

func NewAdmissionCounter(resolver *Resolver, counters CounterStore) *AdmissionCounter {
	return &AdmissionCounter{
		resolver: resolver,
		counters: counters,
		now:      time.Now,
	}
}

// TryAdmit resolves the effective limit and consumes one permit against the
// current window. Unlimited tiers never touch the counter store.
func (c *AdmissionCounter) TryAdmit(ctx context.Context, userID uuid.UUID, policy string) (*Decision, error) {
	now := c.now()

	limit, err := c.resolver.Resolve(ctx, userID, policy, now)
	if err != nil {
		return nil, err
	}

	if limit.Unlimited() {
		return &Decision{
			Admitted:  true,
			Limit:     limit,
			Remaining: NoLimit,
		}, nil
	}

	windowStart := now.Truncate(limit.Window)
	key := counterKey(userID, policy, windowStart)

	count, err := c.counters.IncrWithExpiry(ctx, key, limit.Window)
	if err != nil {
		return nil, err
	}

	remaining := limit.PermitLimit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	if count > int64(limit.PermitLimit) {
		return &Decision{
			Admitted:   false,
			Limit:      limit,
			Remaining:  0,
			RetryAfter: windowStart.Add(limit.Window).Sub(now),
		}, nil
	}

	return &Decision{
		Admitted:  true,
		Limit:     limit,
		Remaining: remaining,
	}, nil
}

func counterKey(userID uuid.UUID, policy string, windowStart time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", userID, policy, windowStart.Unix())
}
