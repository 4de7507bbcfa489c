// Property-based tests for order escrow math.
package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestTotalRewardCoversExecutor checks that the escrowed total is always
// at least the executor's reward, so confirmation can never pay out more
// than was held.
func TestTotalRewardCoversExecutor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reward := rapid.Int64Range(1, 1_000_000).Draw(t, "reward")
		commission := rapid.Float64Range(0, 0.99).Draw(t, "commission")

		total := TotalReward(reward, commission)

		if total < reward {
			t.Fatalf("total %d is less than executor reward %d (commission %v)", total, reward, commission)
		}
	})
}

// TestTotalRewardMonotonic checks that a bigger executor reward never
// escrows less.
func TestTotalRewardMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		commission := rapid.Float64Range(0, 0.9).Draw(t, "commission")
		a := rapid.Int64Range(1, 500_000).Draw(t, "a")
		b := rapid.Int64Range(1, 500_000).Draw(t, "b")
		if a > b {
			a, b = b, a
		}

		if TotalReward(a, commission) > TotalReward(b, commission) {
			t.Fatalf("reward %d escrows more than reward %d at commission %v", a, b, commission)
		}
	})
}

// TestTotalRewardZeroCommission checks that with no commission the escrow
// equals the reward exactly.
func TestTotalRewardZeroCommission(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reward := rapid.Int64Range(1, 1_000_000).Draw(t, "reward")
		if got := TotalReward(reward, 0); got != reward {
			t.Fatalf("zero commission should escrow exactly %d, got %d", reward, got)
		}
	})
}

func TestTotalRewardKnownValues(t *testing.T) {
	tests := []struct {
		reward     int64
		commission float64
		want       int64
	}{
		{50, 0.2, 62},
		{100, 0.2, 125},
		{80, 0.2, 100},
		{1, 0.2, 1},
		{100, 0.5, 200},
		{33, 0.1, 36},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalReward(tt.reward, tt.commission),
			"reward %d at commission %v", tt.reward, tt.commission)
	}
}
