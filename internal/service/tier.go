package service

import (
	"time"

	"oxide-coins-bot/internal/model"
)

// Account-age thresholds for the derived tiers.
const (
	strongAge  = 30 * 24 * time.Hour
	traineeAge = 7 * 24 * time.Hour
)

// DeriveTier computes the tier an account should hold at the given time.
// Youtuber and admin are sticky grants and pass through unchanged; the
// rest follow account age.
func DeriveTier(current model.Tier, registeredAt, now time.Time) model.Tier {
	if current.Special() {
		return current
	}
	age := now.Sub(registeredAt)
	switch {
	case age >= strongAge:
		return model.TierStrong
	case age >= traineeAge:
		return model.TierTrainee
	default:
		return model.TierNewbie
	}
}
