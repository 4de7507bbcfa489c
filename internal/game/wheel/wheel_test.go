package wheel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"oxide-coins-bot/internal/game"
)

// fakeRand replays scripted values.
type fakeRand struct {
	floats []float64
	ints   []int
}

func (f *fakeRand) Float64() float64 {
	v := f.floats[0]
	f.floats = f.floats[1:]
	return v
}

func (f *fakeRand) Intn(int) int {
	v := f.ints[0]
	f.ints = f.ints[1:]
	return v
}

var limits = game.Limits{Min: 1, Max: 10000}

func TestDefaultTableWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, s := range DefaultTable {
		sum += s.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestSpinCumulativeSampling(t *testing.T) {
	tests := []struct {
		name string
		roll float64
		want float64
	}{
		{"low roll lands on first sector", 0.0, 1.5},
		{"just under first boundary", 0.399, 1.5},
		{"into second sector", 0.55, 2},
		{"into third sector", 0.75, 3},
		{"into fourth sector", 0.88, 5},
		{"into last sector", 0.97, 10},
		{"top of range stays on wheel", 0.999999, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Spin(DefaultTable, &fakeRand{floats: []float64{tt.roll}})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpinAlwaysOnWheelProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		roll := rapid.Float64Range(0, 0.999999).Draw(t, "roll")
		got := Spin(DefaultTable, &fakeRand{floats: []float64{roll}})

		found := false
		for _, s := range DefaultTable {
			if s.Mult == got {
				found = true
			}
		}
		if !found {
			t.Fatalf("spin returned %v which is not a wheel sector", got)
		}
	})
}

func TestPlayMatchPaysFloor(t *testing.T) {
	// Mercy misses, spin lands on 1.5, target 1.5: floor(33 x 1.5) = 49.
	g := New(DefaultTable, &fakeRand{floats: []float64{0.99, 0.1}}, 0.08, limits)

	result, err := g.Play(33, map[string]any{"target": 1.5})
	require.NoError(t, err)
	assert.True(t, result.Win)
	assert.Equal(t, int64(49), result.Payout)
}

func TestPlayMissLosesStake(t *testing.T) {
	// Spin lands on 1.5, target 10.
	g := New(DefaultTable, &fakeRand{floats: []float64{0.99, 0.1}}, 0.08, limits)

	result, err := g.Play(100, map[string]any{"target": 10.0})
	require.NoError(t, err)
	assert.False(t, result.Win)
	assert.Zero(t, result.Payout)
	assert.Equal(t, 1.5, result.Details["result"])
}

func TestPlayMercyForcesTarget(t *testing.T) {
	// Mercy hits; the spin would have landed on 1.5 but the result is
	// forced onto the 10x target.
	g := New(DefaultTable, &fakeRand{floats: []float64{0.01, 0.1}}, 0.08, limits)

	result, err := g.Play(100, map[string]any{"target": 10.0})
	require.NoError(t, err)
	assert.True(t, result.Win)
	assert.True(t, result.Mercy)
	assert.Equal(t, int64(1000), result.Payout)
}

func TestPlayRejectsOffWheelTarget(t *testing.T) {
	g := New(DefaultTable, &fakeRand{floats: []float64{0.99, 0.1}}, 0, limits)

	_, err := g.Play(100, map[string]any{"target": 4.0})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = g.Play(100, map[string]any{})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestPayoutFloorsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stake := rapid.Int64Range(1, 1_000_000).Draw(t, "stake")
		seg := rapid.SampledFrom(DefaultTable).Draw(t, "segment")

		payout := Payout(stake, seg.Mult)
		if payout < 0 {
			t.Fatalf("negative payout %d", payout)
		}
		if float64(payout) > float64(stake)*seg.Mult {
			t.Fatalf("payout %d exceeds stake x multiplier", payout)
		}
		if float64(payout+1) <= float64(stake)*seg.Mult {
			t.Fatalf("payout %d is not the floor of stake x multiplier", payout)
		}
	})
}
