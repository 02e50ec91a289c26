package config

import (
	"os"
	"time"

	"convertly-api/internal/models"
	"convertly-api/internal/ratelimit"
)

type RateLimitConfig struct {
	Defaults map[models.RateLimitTier]map[string]ratelimit.PolicyLimit
	FailMode ratelimit.FailMode
}

// NewRateLimitConfig returns the tier default schedule. Loaded once at
// startup; never mutated at runtime.
func NewRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Defaults: map[models.RateLimitTier]map[string]ratelimit.PolicyLimit{
			models.FreeTier: {
				ratelimit.PolicyStandard:   {PermitLimit: 100, Window: time.Minute},
				ratelimit.PolicyConversion: {PermitLimit: 5, Window: time.Hour},
			},
			models.BasicTier: {
				ratelimit.PolicyStandard:   {PermitLimit: 1000, Window: time.Minute},
				ratelimit.PolicyConversion: {PermitLimit: 50, Window: time.Hour},
			},
			models.PremiumTier: {
				ratelimit.PolicyStandard:   {PermitLimit: 10000, Window: time.Minute},
				ratelimit.PolicyConversion: {PermitLimit: 500, Window: time.Hour},
			},
			models.UnlimitedTier: {
				ratelimit.PolicyStandard:   {PermitLimit: ratelimit.NoLimit, Window: time.Minute},
				ratelimit.PolicyConversion: {PermitLimit: ratelimit.NoLimit, Window: time.Hour},
			},
		},
		FailMode: failModeFromEnv(),
	}
}

func failModeFromEnv() ratelimit.FailMode {
	if os.Getenv("RATE_LIMIT_FAIL_MODE") == "closed" {
		return ratelimit.FailClosed
	}
	return ratelimit.FailOpen
}
