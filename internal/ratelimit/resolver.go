package ratelimit

import (
	"context"
	"time"

	"convertly-api/internal/models"
	"convertly-api/internal/pkg/errors"

	"github.com/google/uuid"
)

// Resolver computes the limit actually in force for a (user, policy) pair by
// merging tier defaults with any active override. Resolution is recomputed on
// every call so tier changes and override expiry take effect immediately.
type Resolver struct {
	catalog  *TierCatalog
	settings SettingsStore
}

func NewResolver(catalog *TierCatalog, settings SettingsStore) *Resolver {
	return &Resolver{
		catalog:  catalog,
		settings: settings,
	}
}

// GetOrCreateSettings fetches the user's settings, lazily creating a default
// Free-tier record when none is stored. Safe under concurrent first access:
// creation is conditional on userID in the store.
func (r *Resolver) GetOrCreateSettings(ctx context.Context, userID uuid.UUID) (*models.UserRateLimitSettings, error) {
	settings, err := r.settings.Get(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	return r.settings.CreateIfAbsent(ctx, &models.UserRateLimitSettings{
		UserID: userID,
		Tier:   models.FreeTier,
	})
}

// Resolve returns the effective limit for (userID, policy) at now. An
// override with a past expiry is never used; the tier default applies.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID, policy string, now time.Time) (PolicyLimit, error) {
	settings, err := r.GetOrCreateSettings(ctx, userID)
	if err != nil {
		return PolicyLimit{}, err
	}

	if ov, ok := settings.ActiveOverride(policy, now); ok {
		return PolicyLimit{
			PermitLimit: ov.PermitLimit,
			Window:      ov.Window(),
		}, nil
	}

	return r.catalog.DefaultLimit(settings.Tier, policy)
}
