package repository

import (
	"context"
	"time"

	"convertly-api/internal/models"
	"convertly-api/internal/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RateLimitSettingsRepository is the persistence side of the rate limit
// engine's SettingsStore collaborator.
type RateLimitSettingsRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.UserRateLimitSettings, error)
	CreateIfAbsent(ctx context.Context, settings *models.UserRateLimitSettings) (*models.UserRateLimitSettings, error)
	SaveTier(ctx context.Context, userID uuid.UUID, tier models.RateLimitTier) error
	SaveOverride(ctx context.Context, override *models.RateLimitOverride) error
	DeleteOverride(ctx context.Context, userID uuid.UUID, policy string) error
}

type rateLimitSettingsRepository struct {
	db *gorm.DB
}

func NewRateLimitSettingsRepository(db *gorm.DB) RateLimitSettingsRepository {
	return &rateLimitSettingsRepository{db: db}
}

func (r *rateLimitSettingsRepository) Get(ctx context.Context, userID uuid.UUID) (*models.UserRateLimitSettings, error) {
	var settings models.UserRateLimitSettings
	result := r.db.WithContext(ctx).
		Preload("Overrides").
		First(&settings, "user_id = ?", userID)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get rate limit settings")
	}

	return &settings, nil
}

// CreateIfAbsent is a conditional insert on userID: when two first accesses
// race, exactly one row is written and both callers read the same record back.
func (r *rateLimitSettingsRepository) CreateIfAbsent(ctx context.Context, settings *models.UserRateLimitSettings) (*models.UserRateLimitSettings, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(settings)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to create rate limit settings")
	}

	return r.Get(ctx, settings.UserID)
}

func (r *rateLimitSettingsRepository) SaveTier(ctx context.Context, userID uuid.UUID, tier models.RateLimitTier) error {
	result := r.db.WithContext(ctx).
		Model(&models.UserRateLimitSettings{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"tier":       tier,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to save tier")
	}

	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}

	return nil
}

func (r *rateLimitSettingsRepository) SaveOverride(ctx context.Context, override *models.RateLimitOverride) error {
	now := time.Now()
	if override.CreatedAt.IsZero() {
		override.CreatedAt = now
	}
	override.UpdatedAt = now

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "policy"}},
			DoUpdates: clause.AssignmentColumns([]string{"permit_limit", "window_seconds", "expires_at", "updated_at"}),
		}).
		Create(override)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to save override")
	}

	return nil
}

func (r *rateLimitSettingsRepository) DeleteOverride(ctx context.Context, userID uuid.UUID, policy string) error {
	result := r.db.WithContext(ctx).
		Delete(&models.RateLimitOverride{}, "user_id = ? AND policy = ?", userID, policy)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete override")
	}

	// Deleting a missing override is a no-op, not an error.
	return nil
}
