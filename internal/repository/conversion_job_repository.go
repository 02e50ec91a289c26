package repository

import (
	"context"

	"convertly-api/internal/models"
	"convertly-api/internal/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversionJobRepository interface {
	Create(ctx context.Context, job *models.ConversionJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ConversionJob, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*models.ConversionJob, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ConversionStatus, errorMessage string) error
}

type conversionJobRepository struct {
	db *gorm.DB
}

func NewConversionJobRepository(db *gorm.DB) ConversionJobRepository {
	return &conversionJobRepository{db: db}
}

func (r *conversionJobRepository) Create(ctx context.Context, job *models.ConversionJob) error {
	result := r.db.WithContext(ctx).Create(job)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to create conversion job")
	}
	return nil
}

func (r *conversionJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ConversionJob, error) {
	var job models.ConversionJob
	result := r.db.WithContext(ctx).First(&job, "id = ?", id)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get conversion job")
	}

	return &job, nil
}

func (r *conversionJobRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*models.ConversionJob, int64, error) {
	var jobs []*models.ConversionJob
	var total int64

	offset := (page - 1) * pageSize

	err := r.db.WithContext(ctx).
		Model(&models.ConversionJob{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to count conversion jobs")
	}

	err = r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list conversion jobs")
	}

	return jobs, total, nil
}

func (r *conversionJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ConversionStatus, errorMessage string) error {
	result := r.db.WithContext(ctx).
		Model(&models.ConversionJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errorMessage,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update conversion job status")
	}

	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}

	return nil
}
