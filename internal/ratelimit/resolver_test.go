package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"convertly-api/internal/models"
	"convertly-api/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_TierDefaultsWithoutOverride(t *testing.T) {
	catalog := testCatalog()
	now := time.Now()

	tiers := []models.RateLimitTier{
		models.FreeTier, models.BasicTier, models.PremiumTier, models.UnlimitedTier,
	}

	for _, tier := range tiers {
		for _, policy := range catalog.Policies() {
			store := newFakeSettingsStore()
			resolver := NewResolver(catalog, store)

			userID := uuid.New()
			_, err := store.CreateIfAbsent(context.Background(), &models.UserRateLimitSettings{
				UserID: userID,
				Tier:   tier,
			})
			require.NoError(t, err)

			got, err := resolver.Resolve(context.Background(), userID, policy, now)
			require.NoError(t, err)

			want, err := catalog.DefaultLimit(tier, policy)
			require.NoError(t, err)
			assert.Equal(t, want, got, "tier %s policy %s", tier, policy)
		}
	}
}

func TestResolver_ActiveOverrideWins(t *testing.T) {
	store := newFakeSettingsStore()
	resolver := NewResolver(testCatalog(), store)
	now := time.Now()

	userID := uuid.New()
	_, err := store.CreateIfAbsent(context.Background(), &models.UserRateLimitSettings{UserID: userID})
	require.NoError(t, err)

	expires := now.Add(time.Hour)
	require.NoError(t, store.SaveOverride(context.Background(), &models.RateLimitOverride{
		UserID:        userID,
		Policy:        PolicyConversion,
		PermitLimit:   2,
		WindowSeconds: 3600,
		ExpiresAt:     &expires,
	}))

	got, err := resolver.Resolve(context.Background(), userID, PolicyConversion, now)
	require.NoError(t, err)
	assert.Equal(t, PolicyLimit{PermitLimit: 2, Window: time.Hour}, got)

	// The other policy still resolves to the tier default.
	got, err = resolver.Resolve(context.Background(), userID, PolicyStandard, now)
	require.NoError(t, err)
	assert.Equal(t, PolicyLimit{PermitLimit: 100, Window: time.Minute}, got)
}

func TestResolver_ExpiredOverrideIgnored(t *testing.T) {
	store := newFakeSettingsStore()
	resolver := NewResolver(testCatalog(), store)
	now := time.Now()

	userID := uuid.New()
	_, err := store.CreateIfAbsent(context.Background(), &models.UserRateLimitSettings{UserID: userID})
	require.NoError(t, err)

	expired := now.Add(-time.Second)
	require.NoError(t, store.SaveOverride(context.Background(), &models.RateLimitOverride{
		UserID:        userID,
		Policy:        PolicyConversion,
		PermitLimit:   1000,
		WindowSeconds: 60,
		ExpiresAt:     &expired,
	}))

	got, err := resolver.Resolve(context.Background(), userID, PolicyConversion, now)
	require.NoError(t, err)
	assert.Equal(t, PolicyLimit{PermitLimit: 5, Window: time.Hour}, got)
}

func TestResolver_OverrideWithoutExpiryNeverExpires(t *testing.T) {
	store := newFakeSettingsStore()
	resolver := NewResolver(testCatalog(), store)

	userID := uuid.New()
	_, err := store.CreateIfAbsent(context.Background(), &models.UserRateLimitSettings{UserID: userID})
	require.NoError(t, err)

	require.NoError(t, store.SaveOverride(context.Background(), &models.RateLimitOverride{
		UserID:        userID,
		Policy:        PolicyStandard,
		PermitLimit:   7,
		WindowSeconds: 30,
	}))

	farFuture := time.Now().Add(365 * 24 * time.Hour)
	got, err := resolver.Resolve(context.Background(), userID, PolicyStandard, farFuture)
	require.NoError(t, err)
	assert.Equal(t, PolicyLimit{PermitLimit: 7, Window: 30 * time.Second}, got)
}

func TestResolver_UnknownPolicyWithoutOverride(t *testing.T) {
	store := newFakeSettingsStore()
	resolver := NewResolver(testCatalog(), store)

	_, err := resolver.Resolve(context.Background(), uuid.New(), "no-such-policy", time.Now())
	assert.ErrorIs(t, err, errors.ErrUnknownPolicy)
}

func TestResolver_OverrideCoversUnregisteredPolicy(t *testing.T) {
	store := newFakeSettingsStore()
	resolver := NewResolver(testCatalog(), store)
	now := time.Now()

	userID := uuid.New()
	_, err := store.CreateIfAbsent(context.Background(), &models.UserRateLimitSettings{UserID: userID})
	require.NoError(t, err)

	require.NoError(t, store.SaveOverride(context.Background(), &models.RateLimitOverride{
		UserID:        userID,
		Policy:        "beta-feature",
		PermitLimit:   3,
		WindowSeconds: 60,
	}))

	got, err := resolver.Resolve(context.Background(), userID, "beta-feature", now)
	require.NoError(t, err)
	assert.Equal(t, PolicyLimit{PermitLimit: 3, Window: time.Minute}, got)
}

func TestResolver_GetOrCreateSettingsLazyDefault(t *testing.T) {
	store := newFakeSettingsStore()
	resolver := NewResolver(testCatalog(), store)

	userID := uuid.New()
	settings, err := resolver.GetOrCreateSettings(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, userID, settings.UserID)
	assert.Equal(t, models.FreeTier, settings.Tier)
	assert.Empty(t, settings.Overrides)
	assert.Equal(t, 1, store.creates)
}

func TestResolver_GetOrCreateSettingsConcurrentFirstAccess(t *testing.T) {
	store := newFakeSettingsStore()
	resolver := NewResolver(testCatalog(), store)

	userID := uuid.New()

	const callers = 20
	results := make([]*models.UserRateLimitSettings, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			settings, err := resolver.GetOrCreateSettings(context.Background(), userID)
			if assert.NoError(t, err) {
				results[i] = settings
			}
		}(i)
	}
	wg.Wait()

	// Exactly one record was persisted and every caller saw the same defaults.
	assert.Equal(t, 1, store.creates)
	for _, settings := range results {
		assert.Equal(t, models.FreeTier, settings.Tier)
		assert.Empty(t, settings.Overrides)
	}
}
