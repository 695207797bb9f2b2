package domain

import (
	"math"

	orgdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
)

// CanAccessModel compares the organization's tier rank against the model's
// minimum tier rank. Unknown tiers rank negative and never pass.
func CanAccessModel(tier orgdomain.Tier, model ModelTier) bool {
	rank := tier.Rank()
	minRank := model.MinTier.Rank()
	if rank < 0 || minRank < 0 {
		return false
	}
	return rank >= minRank
}

// CalculateEffectiveTokens converts real token usage into billed tokens by
// applying the model multiplier, rounding up.
func CalculateEffectiveTokens(realTokens int64, multiplier float64) int64 {
	if realTokens <= 0 {
		return 0
	}
	if multiplier < 1 {
		multiplier = 1
	}
	return int64(math.Ceil(float64(realTokens) * multiplier))
}

// HasTokens reports whether the combined monthly and pack balances cover
// the required amount.
func HasTokens(monthly, pack, required int64) bool {
	return monthly+pack >= required
}
