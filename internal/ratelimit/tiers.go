package ratelimit

import (
	"sort"
	"time"

	"convertly-api/internal/models"
	"convertly-api/internal/pkg/errors"
)

// Policy names registered by the API. The catalog accepts an open set; these
// are the ones the shipped endpoints use.
const (
	PolicyStandard   = "standard"
	PolicyConversion = "conversion"
)

// NoLimit marks a tier/policy pair with no numeric cap (no counter is kept).
const NoLimit = -1

// PolicyLimit is the limit in force for a policy: at most PermitLimit admitted
// actions per window.
type PolicyLimit struct {
	PermitLimit int           `json:"permit_limit"`
	Window      time.Duration `json:"window"`
}

func (l PolicyLimit) Unlimited() bool {
	return l.PermitLimit < 0
}

// TierCatalog maps (tier, policy) to the default PolicyLimit. It is built once
// at startup and never mutated, so concurrent reads need no locking.
type TierCatalog struct {
	defaults map[models.RateLimitTier]map[string]PolicyLimit
	policies []string
}

func NewTierCatalog(defaults map[models.RateLimitTier]map[string]PolicyLimit) *TierCatalog {
	seen := make(map[string]bool)
	for _, byPolicy := range defaults {
		for policy := range byPolicy {
			seen[policy] = true
		}
	}

	policies := make([]string, 0, len(seen))
	for policy := range seen {
		policies = append(policies, policy)
	}
	sort.Strings(policies)

	return &TierCatalog{
		defaults: defaults,
		policies: policies,
	}
}

// DefaultLimit returns the tier default for policy.
func (c *TierCatalog) DefaultLimit(tier models.RateLimitTier, policy string) (PolicyLimit, error) {
	byPolicy, ok := c.defaults[tier]
	if !ok {
		// Unknown tiers fall back to the most restrictive defaults.
		byPolicy = c.defaults[models.FreeTier]
	}

	limit, ok := byPolicy[policy]
	if !ok {
		return PolicyLimit{}, errors.ErrUnknownPolicy
	}

	return limit, nil
}

// Policies lists every policy name registered in the catalog.
func (c *TierCatalog) Policies() []string {
	out := make([]string, len(c.policies))
	copy(out, c.policies)
	return out
}
