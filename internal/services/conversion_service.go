package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"convertly-api/internal/models"
	"convertly-api/internal/pkg/errors"
	"convertly-api/internal/repository"

	"github.com/google/uuid"
)

// Formats the conversion pipeline understands. Submissions outside this set
// are rejected up front.
var supportedFormats = map[string]bool{
	"pdf": true, "docx": true, "xlsx": true, "pptx": true,
	"png": true, "jpg": true, "webp": true, "svg": true,
	"csv": true, "json": true, "html": true, "txt": true,
}

type ConversionService interface {
	SubmitJob(ctx context.Context, userID uuid.UUID, sourceFormat, targetFormat, sourceURL string) (*models.ConversionJob, error)
	GetJob(ctx context.Context, userID, jobID uuid.UUID) (*models.ConversionJob, error)
	ListJobs(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*models.ConversionJob, int64, error)
}

type conversionService struct {
	jobRepo repository.ConversionJobRepository
	cache   CacheService
}

func NewConversionService(jobRepo repository.ConversionJobRepository, cache CacheService) ConversionService {
	return &conversionService{
		jobRepo: jobRepo,
		cache:   cache,
	}
}

func (s *conversionService) SubmitJob(ctx context.Context, userID uuid.UUID, sourceFormat, targetFormat, sourceURL string) (*models.ConversionJob, error) {
	if !supportedFormats[sourceFormat] {
		return nil, errors.Wrap(errors.ErrInvalidInput, fmt.Sprintf("unsupported source format %q", sourceFormat))
	}
	if !supportedFormats[targetFormat] {
		return nil, errors.Wrap(errors.ErrInvalidInput, fmt.Sprintf("unsupported target format %q", targetFormat))
	}
	if sourceFormat == targetFormat {
		return nil, errors.Wrap(errors.ErrInvalidInput, "source and target formats must differ")
	}

	job := &models.ConversionJob{
		ID:           uuid.New(),
		UserID:       userID,
		SourceFormat: sourceFormat,
		TargetFormat: targetFormat,
		SourceURL:    sourceURL,
		Status:       models.ConversionPending,
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	return job, nil
}

func (s *conversionService) GetJob(ctx context.Context, userID, jobID uuid.UUID) (*models.ConversionJob, error) {
	cacheKey := fmt.Sprintf("conversion:job:%s", jobID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var job models.ConversionJob
			if err := json.Unmarshal([]byte(cached), &job); err == nil && job.UserID == userID {
				return &job, nil
			}
		}
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.UserID != userID {
		return nil, errors.ErrNotFound
	}

	// Finished jobs are immutable, so they are safe to cache.
	if s.cache != nil && (job.Status == models.ConversionCompleted || job.Status == models.ConversionFailed) {
		_ = s.cache.Set(ctx, cacheKey, job, 15*time.Minute)
	}

	return job, nil
}

func (s *conversionService) ListJobs(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*models.ConversionJob, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.jobRepo.ListByUser(ctx, userID, page, pageSize)
}
