package ratelimit

import (
	"context"
	"sync"
	"time"

	"convertly-api/internal/models"
	"convertly-api/internal/pkg/errors"

	"github.com/google/uuid"
)

func testCatalog() *TierCatalog {
	return NewTierCatalog(map[models.RateLimitTier]map[string]PolicyLimit{
		models.FreeTier: {
			PolicyStandard:   {PermitLimit: 100, Window: time.Minute},
			PolicyConversion: {PermitLimit: 5, Window: time.Hour},
		},
		models.BasicTier: {
			PolicyStandard:   {PermitLimit: 1000, Window: time.Minute},
			PolicyConversion: {PermitLimit: 50, Window: time.Hour},
		},
		models.PremiumTier: {
			PolicyStandard:   {PermitLimit: 10000, Window: time.Minute},
			PolicyConversion: {PermitLimit: 500, Window: time.Hour},
		},
		models.UnlimitedTier: {
			PolicyStandard:   {PermitLimit: NoLimit, Window: time.Minute},
			PolicyConversion: {PermitLimit: NoLimit, Window: time.Hour},
		},
	})
}

// fakeSettingsStore is an in-memory SettingsStore with the same conditional
// insert semantics the real repository provides.
type fakeSettingsStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.UserRateLimitSettings
	creates int
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{
		records: make(map[uuid.UUID]*models.UserRateLimitSettings),
	}
}

func cloneSettings(s *models.UserRateLimitSettings) *models.UserRateLimitSettings {
	out := *s
	out.Overrides = make([]models.RateLimitOverride, len(s.Overrides))
	copy(out.Overrides, s.Overrides)
	return &out
}

func (s *fakeSettingsStore) Get(ctx context.Context, userID uuid.UUID) (*models.UserRateLimitSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return cloneSettings(rec), nil
}

func (s *fakeSettingsStore) CreateIfAbsent(ctx context.Context, settings *models.UserRateLimitSettings) (*models.UserRateLimitSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[settings.UserID]; ok {
		return cloneSettings(rec), nil
	}

	rec := cloneSettings(settings)
	if rec.Tier == "" {
		rec.Tier = models.FreeTier
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	s.records[settings.UserID] = rec
	s.creates++

	return cloneSettings(rec), nil
}

func (s *fakeSettingsStore) SaveTier(ctx context.Context, userID uuid.UUID, tier models.RateLimitTier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return errors.ErrNotFound
	}
	rec.Tier = tier
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *fakeSettingsStore) SaveOverride(ctx context.Context, override *models.RateLimitOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[override.UserID]
	if !ok {
		return errors.ErrNotFound
	}

	for i := range rec.Overrides {
		if rec.Overrides[i].Policy == override.Policy {
			rec.Overrides[i] = *override
			return nil
		}
	}

	rec.Overrides = append(rec.Overrides, *override)
	return nil
}

func (s *fakeSettingsStore) DeleteOverride(ctx context.Context, userID uuid.UUID, policy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil
	}

	for i := range rec.Overrides {
		if rec.Overrides[i].Policy == policy {
			rec.Overrides = append(rec.Overrides[:i], rec.Overrides[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeIdentityStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]bool
}

func newFakeIdentityStore(ids ...uuid.UUID) *fakeIdentityStore {
	users := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		users[id] = true
	}
	return &fakeIdentityStore{users: users}
}

func (s *fakeIdentityStore) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID], nil
}

// flakyCounterStore fails the first failures calls, then delegates.
type flakyCounterStore struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
	inner    CounterStore
}

func (s *flakyCounterStore) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	s.mu.Lock()
	s.calls++
	fail := s.calls <= s.failures
	s.mu.Unlock()

	if fail {
		return 0, s.err
	}
	if s.inner == nil {
		return 0, s.err
	}
	return s.inner.IncrWithExpiry(ctx, key, expiry)
}

func (s *flakyCounterStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
