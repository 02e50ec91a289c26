package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"convertly-api/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCounter(t *testing.T, tier models.RateLimitTier, overrides ...models.RateLimitOverride) (*AdmissionCounter, *MemoryCounterStore, uuid.UUID) {
	t.Helper()

	store := newFakeSettingsStore()
	counters := NewMemoryCounterStore()

	userID := uuid.New()
	_, err := store.CreateIfAbsent(context.Background(), &models.UserRateLimitSettings{
		UserID: userID,
		Tier:   tier,
	})
	require.NoError(t, err)

	for i := range overrides {
		overrides[i].UserID = userID
		require.NoError(t, store.SaveOverride(context.Background(), &overrides[i]))
	}

	return NewAdmissionCounter(NewResolver(testCatalog(), store), counters), counters, userID
}

func TestAdmissionCounter_AdmitsUpToLimitThenDenies(t *testing.T) {
	counter, _, userID := newTestCounter(t, models.FreeTier, models.RateLimitOverride{
		Policy:        PolicyStandard,
		PermitLimit:   5,
		WindowSeconds: 60,
	})

	for i := 0; i < 5; i++ {
		decision, err := counter.TryAdmit(context.Background(), userID, PolicyStandard)
		require.NoError(t, err)
		assert.True(t, decision.Admitted, "call %d should be admitted", i+1)
		assert.Equal(t, 5-(i+1), decision.Remaining)
	}

	decision, err := counter.TryAdmit(context.Background(), userID, PolicyStandard)
	require.NoError(t, err)
	assert.False(t, decision.Admitted)
	assert.Equal(t, 0, decision.Remaining)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, decision.RetryAfter, time.Minute)
}

func TestAdmissionCounter_WindowRollover(t *testing.T) {
	counter, _, userID := newTestCounter(t, models.FreeTier, models.RateLimitOverride{
		Policy:        PolicyStandard,
		PermitLimit:   2,
		WindowSeconds: 60,
	})

	// Pin time to mid-window so the rollover below is deterministic.
	base := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)
	now := base
	counter.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		decision, err := counter.TryAdmit(context.Background(), userID, PolicyStandard)
		require.NoError(t, err)
		require.True(t, decision.Admitted)
	}

	decision, err := counter.TryAdmit(context.Background(), userID, PolicyStandard)
	require.NoError(t, err)
	require.False(t, decision.Admitted)

	// Advance past the window boundary: the denied caller is now admitted and
	// the fresh window's count starts at 1.
	now = base.Add(decision.RetryAfter)

	decision, err = counter.TryAdmit(context.Background(), userID, PolicyStandard)
	require.NoError(t, err)
	assert.True(t, decision.Admitted)
	assert.Equal(t, 1, decision.Limit.PermitLimit-decision.Remaining)
}

func TestAdmissionCounter_UnlimitedNeverWritesCounters(t *testing.T) {
	counter, counters, userID := newTestCounter(t, models.UnlimitedTier)

	const calls = 50
	var wg sync.WaitGroup
	admitted := make([]bool, calls)

	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decision, err := counter.TryAdmit(context.Background(), userID, PolicyStandard)
			if assert.NoError(t, err) {
				admitted[i] = decision.Admitted
			}
		}(i)
	}
	wg.Wait()

	for i, ok := range admitted {
		assert.True(t, ok, "call %d", i)
	}
	assert.Equal(t, 0, counters.Len(), "unlimited tier must not write counter entries")
}

func TestAdmissionCounter_ConcurrentAdmissionsNeverOverAdmit(t *testing.T) {
	counter, _, userID := newTestCounter(t, models.FreeTier, models.RateLimitOverride{
		Policy:        PolicyStandard,
		PermitLimit:   10,
		WindowSeconds: 3600,
	})

	const calls = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted, denied := 0, 0

	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := counter.TryAdmit(context.Background(), userID, PolicyStandard)
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			if decision.Admitted {
				admitted++
			} else {
				denied++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, admitted)
	assert.Equal(t, 40, denied)
}

func TestMemoryCounterStore_ExpiryResetsCount(t *testing.T) {
	store := NewMemoryCounterStore()

	now := time.Now()
	store.now = func() time.Time { return now }

	count, err := store.IncrWithExpiry(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.IncrWithExpiry(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	now = now.Add(2 * time.Minute)

	count, err = store.IncrWithExpiry(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryCounterStore_RespectsCancelledContext(t *testing.T) {
	store := NewMemoryCounterStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.IncrWithExpiry(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
