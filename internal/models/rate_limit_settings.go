package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RateLimitTier string

// Tiers ordered by increasing generosity. A user's tier is only changed by
// explicit admin action.
const (
	FreeTier      RateLimitTier = "FREE"
	BasicTier     RateLimitTier = "BASIC"
	PremiumTier   RateLimitTier = "PREMIUM"
	UnlimitedTier RateLimitTier = "UNLIMITED"
)

func (t RateLimitTier) Valid() bool {
	switch t {
	case FreeTier, BasicTier, PremiumTier, UnlimitedTier:
		return true
	}
	return false
}

// UserRateLimitSettings holds a user's tier assignment plus any per-policy
// overrides. A record conceptually exists for every user; it is created
// lazily on first access and never hard-deleted.
type UserRateLimitSettings struct {
	UserID    uuid.UUID           `gorm:"type:uuid;primaryKey" json:"user_id"`
	Tier      RateLimitTier       `gorm:"type:varchar(20);not null;default:'FREE'" json:"tier"`
	Overrides []RateLimitOverride `gorm:"foreignKey:UserID" json:"overrides,omitempty"`
	CreatedAt time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt      `gorm:"index" json:"-"`
}

func (s *UserRateLimitSettings) BeforeCreate(tx *gorm.DB) error {
	if s.Tier == "" {
		s.Tier = FreeTier
	}

	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}

	return nil
}

func (s *UserRateLimitSettings) BeforeUpdate(tx *gorm.DB) error {
	s.UpdatedAt = time.Now()
	return nil
}

// ActiveOverride returns the override for policy if one exists and has not
// expired at now.
func (s *UserRateLimitSettings) ActiveOverride(policy string, now time.Time) (*RateLimitOverride, bool) {
	for i := range s.Overrides {
		ov := &s.Overrides[i]
		if ov.Policy == policy && !ov.Expired(now) {
			return ov, true
		}
	}
	return nil, false
}

func (UserRateLimitSettings) TableName() string {
	return "user_rate_limit_settings"
}

// RateLimitOverride is an admin-set limit that supersedes the tier default
// for one user/policy, optionally until ExpiresAt.
type RateLimitOverride struct {
	UserID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	Policy        string     `gorm:"type:varchar(64);primaryKey" json:"policy"`
	PermitLimit   int        `gorm:"not null" json:"permit_limit"`
	WindowSeconds int        `gorm:"not null" json:"window_seconds"`
	ExpiresAt     *time.Time `gorm:"default:null" json:"expires_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (o *RateLimitOverride) Expired(now time.Time) bool {
	return o.ExpiresAt != nil && !now.Before(*o.ExpiresAt)
}

func (o *RateLimitOverride) Window() time.Duration {
	return time.Duration(o.WindowSeconds) * time.Second
}

func (RateLimitOverride) TableName() string {
	return "user_rate_limit_overrides"
}
