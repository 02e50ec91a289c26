package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"convertly-api/internal/models"
	"convertly-api/internal/pkg/errors"
	"convertly-api/internal/ratelimit"
	"convertly-api/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSettingsStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.UserRateLimitSettings
}

func (s *stubSettingsStore) Get(ctx context.Context, userID uuid.UUID) (*models.UserRateLimitSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[userID]; ok {
		return rec, nil
	}
	return nil, errors.ErrNotFound
}

func (s *stubSettingsStore) CreateIfAbsent(ctx context.Context, settings *models.UserRateLimitSettings) (*models.UserRateLimitSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[settings.UserID]; ok {
		return rec, nil
	}
	if settings.Tier == "" {
		settings.Tier = models.FreeTier
	}
	s.records[settings.UserID] = settings
	return settings, nil
}

func (s *stubSettingsStore) SaveTier(ctx context.Context, userID uuid.UUID, tier models.RateLimitTier) error {
	return nil
}

func (s *stubSettingsStore) SaveOverride(ctx context.Context, override *models.RateLimitOverride) error {
	return nil
}

func (s *stubSettingsStore) DeleteOverride(ctx context.Context, userID uuid.UUID, policy string) error {
	return nil
}

type stubIdentityStore struct{}

func (stubIdentityStore) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return true, nil
}

func newTestEngine() *ratelimit.Engine {
	catalog := ratelimit.NewTierCatalog(map[models.RateLimitTier]map[string]ratelimit.PolicyLimit{
		models.FreeTier: {
			ratelimit.PolicyStandard: {PermitLimit: 2, Window: time.Minute},
		},
	})

	settings := &stubSettingsStore{records: make(map[uuid.UUID]*models.UserRateLimitSettings)}

	return ratelimit.NewEngine(catalog, settings, ratelimit.NewMemoryCounterStore(), stubIdentityStore{}, ratelimit.FailOpen)
}

func TestRateLimit_AdmitsThenDenies(t *testing.T) {
	engine := newTestEngine()
	user := &models.User{ID: uuid.New()}

	handler := RateLimit(engine, ratelimit.PolicyStandard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/conversions", nil)
		req = req.WithContext(services.WithUserContext(req.Context(), user))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		rec := do()
		require.Equal(t, http.StatusOK, rec.Code, "call %d", i+1)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "retry_after")
}

func TestRateLimit_RequiresAuthenticatedUser(t *testing.T) {
	engine := newTestEngine()

	handler := RateLimit(engine, ratelimit.PolicyStandard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
