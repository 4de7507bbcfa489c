package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"oxide-coins-bot/internal/model"
)

func TestDeriveTier(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		current    model.Tier
		accountAge time.Duration
		want       model.Tier
	}{
		{"fresh account is newbie", model.TierNewbie, 0, model.TierNewbie},
		{"six days is still newbie", model.TierNewbie, 6 * 24 * time.Hour, model.TierNewbie},
		{"seven days becomes trainee", model.TierNewbie, 7 * 24 * time.Hour, model.TierTrainee},
		{"twenty nine days stays trainee", model.TierTrainee, 29 * 24 * time.Hour, model.TierTrainee},
		{"thirty days becomes strong", model.TierTrainee, 30 * 24 * time.Hour, model.TierStrong},
		{"a year stays strong", model.TierStrong, 365 * 24 * time.Hour, model.TierStrong},
		{"youtuber grant is sticky", model.TierYoutuber, 365 * 24 * time.Hour, model.TierYoutuber},
		{"youtuber grant survives young account", model.TierYoutuber, time.Hour, model.TierYoutuber},
		{"admin grant is sticky", model.TierAdmin, 2 * 24 * time.Hour, model.TierAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registeredAt := now.Add(-tt.accountAge)
			got := DeriveTier(tt.current, registeredAt, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveTierNeverDemotesGrants(t *testing.T) {
	// A strong-aged account that was granted youtuber keeps the grant even
	// though age alone would map it to strong.
	registeredAt := time.Now().Add(-90 * 24 * time.Hour)
	got := DeriveTier(model.TierYoutuber, registeredAt, time.Now())
	assert.Equal(t, model.TierYoutuber, got)
}
