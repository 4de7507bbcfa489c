package binary

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestHoopThreshold(t *testing.T) {
	// Faces 4, 5, 6 score; 1, 2, 3 miss.
	for draw := 1; draw <= 6; draw++ {
		t.Run(fmt.Sprintf("draw %d", draw), func(t *testing.T) {
			g := New(Hoop, &fakeRand{floats: []float64{0.99}, ints: []int{draw - 1}}, 0.08, limits)

			result, err := g.Play(100, nil)
			require.NoError(t, err)
			assert.Equal(t, draw >= 4, result.Win)
			if result.Win {
				assert.Equal(t, int64(200), result.Payout)
			} else {
				assert.Zero(t, result.Payout)
			}
		})
	}
}

func TestDartsBullseyeOnly(t *testing.T) {
	// Only a 6 hits.
	for draw := 1; draw <= 6; draw++ {
		t.Run(fmt.Sprintf("draw %d", draw), func(t *testing.T) {
			g := New(Darts, &fakeRand{floats: []float64{0.99}, ints: []int{draw - 1}}, 0.08, limits)

			result, err := g.Play(100, nil)
			require.NoError(t, err)
			assert.Equal(t, draw == 6, result.Win)
		})
	}
}

func TestMercyWinsOnMiss(t *testing.T) {
	g := New(Darts, &fakeRand{floats: []float64{0.01}, ints: []int{0}}, 0.08, limits)

	result, err := g.Play(100, nil)
	require.NoError(t, err)
	assert.True(t, result.Win)
	assert.True(t, result.Mercy)
	assert.Equal(t, int64(200), result.Payout)
	// The losing draw is still reported; only the outcome is forced.
	assert.Equal(t, 1, result.Details["draw"])
}

func TestStakeLimits(t *testing.T) {
	g := New(Hoop, &fakeRand{}, 0, limits)

	_, err := g.Play(0, nil)
	assert.ErrorIs(t, err, game.ErrInvalidStake)

	_, err = g.Play(10001, nil)
	assert.ErrorIs(t, err, game.ErrStakeTooHigh)
}
