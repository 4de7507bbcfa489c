// Property-based tests for daily bonus eligibility.
package service

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

// TestDailyEligibilityNeverClaimed checks that an account with no prior
// claim is always eligible.
func TestDailyEligibilityNeverClaimed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := time.Unix(rapid.Int64Range(0, 4_000_000_000).Draw(t, "now"), 0)

		ok, remaining := dailyEligibility(nil, now)
		if !ok {
			t.Fatalf("never-claimed account should be eligible at %v", now)
		}
		if remaining != 0 {
			t.Fatalf("eligible claim should report zero remaining, got %v", remaining)
		}
	})
}

// TestDailyEligibilityCooldown checks the 24-hour rule: eligible exactly
// when a full day has passed, with the remaining time covering the gap.
func TestDailyEligibilityCooldown(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
		elapsed := time.Duration(rapid.Int64Range(0, 72*int64(time.Hour)).Draw(t, "elapsed"))
		last := now.Add(-elapsed)

		ok, remaining := dailyEligibility(&last, now)

		if elapsed >= 24*time.Hour {
			if !ok {
				t.Fatalf("claim %v after the last one should be eligible", elapsed)
			}
			if remaining != 0 {
				t.Fatalf("eligible claim should report zero remaining, got %v", remaining)
			}
		} else {
			if ok {
				t.Fatalf("claim %v after the last one should be rejected", elapsed)
			}
			if remaining != 24*time.Hour-elapsed {
				t.Fatalf("remaining should be %v, got %v", 24*time.Hour-elapsed, remaining)
			}
		}
	})
}
