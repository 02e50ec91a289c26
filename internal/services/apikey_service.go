package services

import (
	"context"
	"time"

	"convertly-api/internal/models"
	"convertly-api/internal/repository"

	"github.com/google/uuid"
)

type APIKeyService interface {
	GenerateAPIKey() string
	AssignAPIKeyToUser(ctx context.Context, userID uuid.UUID) (*models.APIKey, error)
	GetAPIKeyByKey(ctx context.Context, key string) (*models.APIKey, error)
	GetAPIKeyByUserID(ctx context.Context, userID uuid.UUID) (*models.APIKey, error)
}

type apiKeyService struct {
	apiKeyRepo repository.APIKeyRepository
}

func NewAPIKeyService(apiKeyRepo repository.APIKeyRepository) APIKeyService {
	return &apiKeyService{
		apiKeyRepo: apiKeyRepo,
	}
}

func (s *apiKeyService) GenerateAPIKey() string {
	return uuid.NewString()
}

func (s *apiKeyService) AssignAPIKeyToUser(ctx context.Context, userID uuid.UUID) (*models.APIKey, error) {
	apiKey := &models.APIKey{
		ID:        uuid.New(),
		UserID:    userID,
		Key:       s.GenerateAPIKey(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.apiKeyRepo.Create(ctx, apiKey); err != nil {
		return nil, err
	}

	return apiKey, nil
}

func (s *apiKeyService) GetAPIKeyByKey(ctx context.Context, key string) (*models.APIKey, error) {
	return s.apiKeyRepo.GetByKey(ctx, key)
}

func (s *apiKeyService) GetAPIKeyByUserID(ctx context.Context, userID uuid.UUID) (*models.APIKey, error) {
	return s.apiKeyRepo.GetByUserID(ctx, userID)
}
