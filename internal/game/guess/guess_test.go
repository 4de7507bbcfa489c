package guess

import (
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

func TestPlay(t *testing.T) {
	tests := []struct {
		name       string
		guess      int
		mercyRoll  float64
		draw       int // zero-based face fed to Intn
		wantWin    bool
		wantMercy  bool
		wantPayout int64
	}{
		{"match wins double", 3, 0.99, 2, true, false, 200},
		{"miss loses", 3, 0.99, 4, false, false, 0},
		{"mercy forces the draw onto the pick", 1, 0.01, 5, true, true, 200},
		{"six matches six", 6, 0.99, 5, true, false, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(&fakeRand{floats: []float64{tt.mercyRoll}, ints: []int{tt.draw}}, 0.08, limits)

			result, err := g.Play(100, map[string]any{"guess": tt.guess})
			require.NoError(t, err)
			assert.Equal(t, tt.wantWin, result.Win)
			assert.Equal(t, tt.wantMercy, result.Mercy)
			assert.Equal(t, tt.wantPayout, result.Payout)
			if tt.wantWin {
				assert.Equal(t, tt.guess, result.Details["draw"])
			}
		})
	}
}

func TestPlayRejectsBadInput(t *testing.T) {
	g := New(&fakeRand{floats: []float64{0.99}, ints: []int{0}}, 0, limits)

	_, err := g.Play(100, map[string]any{"guess": 0})
	assert.ErrorIs(t, err, ErrInvalidGuess)

	_, err = g.Play(100, map[string]any{"guess": 7})
	assert.ErrorIs(t, err, ErrInvalidGuess)

	_, err = g.Play(100, map[string]any{})
	assert.ErrorIs(t, err, ErrInvalidGuess)

	_, err = g.Play(0, map[string]any{"guess": 3})
	assert.ErrorIs(t, err, game.ErrInvalidStake)

	_, err = g.Play(10001, map[string]any{"guess": 3})
	assert.ErrorIs(t, err, game.ErrStakeTooHigh)
}

func TestMercyDisabledNeverForces(t *testing.T) {
	// With mercy chance zero the outcome is fully determined by the draw.
	for draw := 0; draw < Faces; draw++ {
		g := New(&fakeRand{floats: []float64{0.0}, ints: []int{draw}}, 0, limits)
		result, err := g.Play(50, map[string]any{"guess": 2})
		require.NoError(t, err)
		assert.Equal(t, draw+1 == 2, result.Win)
		assert.False(t, result.Mercy)
	}
}
