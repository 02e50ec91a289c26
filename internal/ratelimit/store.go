package ratelimit

import (
	"context"
	"time"

	"convertly-api/internal/models"

	"github.com/google/uuid"
)

// SettingsStore persists per-user rate limit settings. Implementations must
// make CreateIfAbsent genuinely conditional on userID so that concurrent first
// accesses for the same user converge on a single record.
type SettingsStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.UserRateLimitSettings, error)
	CreateIfAbsent(ctx context.Context, settings *models.UserRateLimitSettings) (*models.UserRateLimitSettings, error)
	SaveTier(ctx context.Context, userID uuid.UUID, tier models.RateLimitTier) error
	SaveOverride(ctx context.Context, override *models.RateLimitOverride) error
	DeleteOverride(ctx context.Context, userID uuid.UUID, policy string) error
}

// CounterStore tracks admission counts per window. IncrWithExpiry must be a
// single atomic read-modify-write: the returned count is the post-increment
// value, and the key expires once the window elapses.
type CounterStore interface {
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// IdentityStore answers whether a user exists. Used to validate admin
// operations before they touch rate limit state.
type IdentityStore interface {
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}
