package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversionStatus string

const (
	ConversionPending    ConversionStatus = "PENDING"
	ConversionProcessing ConversionStatus = "PROCESSING"
	ConversionCompleted  ConversionStatus = "COMPLETED"
	ConversionFailed     ConversionStatus = "FAILED"
)

type ConversionJob struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	SourceFormat string           `gorm:"type:varchar(16);not null" json:"source_format"`
	TargetFormat string           `gorm:"type:varchar(16);not null" json:"target_format"`
	SourceURL    string           `gorm:"type:text" json:"source_url,omitempty"`
	ResultURL    string           `gorm:"type:text" json:"result_url,omitempty"`
	Status       ConversionStatus `gorm:"type:varchar(20);not null" json:"status"`
	ErrorMessage string           `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
	User         User             `gorm:"foreignKey:UserID" json:"-"`
}

func (j *ConversionJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = ConversionPending
	}

	now := time.Now()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = now
	}

	return nil
}

func (j *ConversionJob) BeforeUpdate(tx *gorm.DB) error {
	j.UpdatedAt = time.Now()
	return nil
}

func (ConversionJob) TableName() string {
	return "conversion_jobs"
}
