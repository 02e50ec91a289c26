package ratelimit

import (
	"context"
	"fmt"
	"time"

	"convertly-api/internal/logger"
	"convertly-api/internal/models"
	"convertly-api/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FailMode decides what happens to an admission check when the counter store
// times out: fail-open admits the request, fail-closed denies it. Both are
// defensible, so it is deployment configuration rather than a hardcoded choice.
type FailMode string

const (
	FailOpen   FailMode = "open"
	FailClosed FailMode = "closed"
)

const (
	storeAttempts  = 3
	retryBaseDelay = 50 * time.Millisecond
)

// Engine is the rate limit policy facade the rest of the API calls. All
// collaborators are constructor-supplied; the engine holds no in-process lock
// across calls and is safe for concurrent use.
type Engine struct {
	catalog  *TierCatalog
	settings SettingsStore
	identity IdentityStore
	resolver *Resolver
	counter  *AdmissionCounter
	failMode FailMode
	now      func() time.Time
}

type EngineOption func(*Engine)

// WithClock overrides the engine's notion of now. Tests use it to advance
// time past window boundaries and override expiries.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
		e.counter.now = now
	}
}

func NewEngine(
	catalog *TierCatalog,
	settings SettingsStore,
	counters CounterStore,
	identity IdentityStore,
	failMode FailMode,
	opts ...EngineOption,
) *Engine {
	resolver := NewResolver(catalog, settings)

	e := &Engine{
		catalog:  catalog,
		settings: settings,
		identity: identity,
		resolver: resolver,
		counter:  NewAdmissionCounter(resolver, counters),
		failMode: failMode,
		now:      time.Now,
	}

	if e.failMode != FailClosed {
		e.failMode = FailOpen
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// GetOrCreateSettings never fails for a valid userID: a default Free-tier
// record is created when none exists. Idempotent.
func (e *Engine) GetOrCreateSettings(ctx context.Context, userID uuid.UUID) (*models.UserRateLimitSettings, error) {
	return e.resolver.GetOrCreateSettings(ctx, userID)
}

// GetEffectiveLimits returns the limit currently in force for (userID, policy).
func (e *Engine) GetEffectiveLimits(ctx context.Context, userID uuid.UUID, policy string) (PolicyLimit, error) {
	return e.resolver.Resolve(ctx, userID, policy, e.now())
}

// EffectiveLimits resolves every catalog policy for userID. Backs the admin
// "inspect user" view.
func (e *Engine) EffectiveLimits(ctx context.Context, userID uuid.UUID) (map[string]PolicyLimit, error) {
	limits := make(map[string]PolicyLimit)
	for _, policy := range e.catalog.Policies() {
		limit, err := e.resolver.Resolve(ctx, userID, policy, e.now())
		if err != nil {
			return nil, err
		}
		limits[policy] = limit
	}
	return limits, nil
}

// UpdateTier assigns a new tier to an existing user. Takes effect on the very
// next resolution; there is no cache to invalidate.
func (e *Engine) UpdateTier(ctx context.Context, userID uuid.UUID, tier models.RateLimitTier) error {
	if !tier.Valid() {
		return errors.Wrap(errors.ErrInvalidInput, fmt.Sprintf("unknown tier %q", tier))
	}

	if err := e.requireUser(ctx, userID); err != nil {
		return err
	}

	if _, err := e.resolver.GetOrCreateSettings(ctx, userID); err != nil {
		return err
	}

	return e.settings.SaveTier(ctx, userID, tier)
}

// SetOverride installs a per-policy override for userID, optionally expiring
// at expiresAt.
func (e *Engine) SetOverride(ctx context.Context, userID uuid.UUID, policy string, limit PolicyLimit, expiresAt *time.Time) error {
	if limit.PermitLimit <= 0 {
		return errors.Wrap(errors.ErrInvalidInput, "permit limit must be positive")
	}
	if limit.Window <= 0 {
		return errors.Wrap(errors.ErrInvalidInput, "window must be positive")
	}
	if expiresAt != nil && !expiresAt.After(e.now()) {
		return errors.Wrap(errors.ErrInvalidInput, "expiry must be in the future")
	}

	if err := e.requireUser(ctx, userID); err != nil {
		return err
	}

	if _, err := e.resolver.GetOrCreateSettings(ctx, userID); err != nil {
		return err
	}

	return e.settings.SaveOverride(ctx, &models.RateLimitOverride{
		UserID:        userID,
		Policy:        policy,
		PermitLimit:   limit.PermitLimit,
		WindowSeconds: int(limit.Window / time.Second),
		ExpiresAt:     expiresAt,
	})
}

// ClearOverride removes the override for (userID, policy). Idempotent even if
// no override existed.
func (e *Engine) ClearOverride(ctx context.Context, userID uuid.UUID, policy string) error {
	err := e.settings.DeleteOverride(ctx, userID, policy)
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	return err
}

// CheckAndConsume is the request-time hot path: it consumes one permit for
// (userID, policy) and reports the admission decision. Transient store errors
// are retried a bounded number of times; a timeout is resolved by the
// configured fail mode.
func (e *Engine) CheckAndConsume(ctx context.Context, userID uuid.UUID, policy string) (*Decision, error) {
	var decision *Decision

	err := e.withRetry(ctx, func() error {
		var opErr error
		decision, opErr = e.counter.TryAdmit(ctx, userID, policy)
		return opErr
	})

	if err == nil {
		return decision, nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return e.resolveTimeout(userID, policy, err), nil
	}

	if retryable(err) {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, fmt.Sprintf("admission check failed: %v", err))
	}

	return nil, err
}

func (e *Engine) resolveTimeout(userID uuid.UUID, policy string, cause error) *Decision {
	admitted := e.failMode == FailOpen

	logger.LogEvent(logrus.WarnLevel, "Rate limit store timeout", logrus.Fields{
		"user_id":   userID.String(),
		"policy":    policy,
		"fail_mode": string(e.failMode),
		"admitted":  admitted,
		"error":     cause.Error(),
	})

	return &Decision{Admitted: admitted}
}

func (e *Engine) requireUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := e.identity.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.ErrUserNotFound
	}
	return nil
}

// withRetry runs op up to storeAttempts times with doubling backoff, bailing
// out early on non-retryable errors and on context cancellation.
func (e *Engine) withRetry(ctx context.Context, op func() error) error {
	delay := retryBaseDelay

	var err error
	for attempt := 0; attempt < storeAttempts; attempt++ {
		err = op()
		if err == nil || !retryable(err) {
			return err
		}

		if attempt == storeAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, errors.ErrUnknownPolicy),
		errors.Is(err, errors.ErrUserNotFound),
		errors.Is(err, errors.ErrNotFound),
		errors.Is(err, errors.ErrInvalidInput):
		return false
	}
	return true
}
