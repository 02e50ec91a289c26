package repository

import (
	"context"

	"convertly-api/internal/models"
	"convertly-api/internal/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type APIKeyRepository interface {
	Create(ctx context.Context, apiKey *models.APIKey) error
	GetByKey(ctx context.Context, key string) (*models.APIKey, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.APIKey, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

type apiKeyRepository struct {
	db *gorm.DB
}

func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, apiKey *models.APIKey) error {
	result := r.db.WithContext(ctx).Create(apiKey)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to create API key")
	}
	return nil
}

func (r *apiKeyRepository) GetByKey(ctx context.Context, key string) (*models.APIKey, error) {
	var apiKey models.APIKey
	result := r.db.WithContext(ctx).First(&apiKey, "key = ?", key)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get API key")
	}

	return &apiKey, nil
}

func (r *apiKeyRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.APIKey, error) {
	var apiKey models.APIKey
	result := r.db.WithContext(ctx).First(&apiKey, "user_id = ?", userID)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get API key by user")
	}

	return &apiKey, nil
}

func (r *apiKeyRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.APIKey{}, "user_id = ?", userID)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete API key")
	}
	return nil
}
