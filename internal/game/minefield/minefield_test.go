package minefield

import (
	"sync"
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

// session deals a board with hazards exactly at cells 0, 1, 2.
func dealSession(t *testing.T, stake int64, mercy float64, extraFloats []float64, extraInts []int) *Session {
	t.Helper()
	g := New(&fakeRand{
		floats: extraFloats,
		ints:   append([]int{0, 1, 2}, extraInts...),
	}, mercy, limits)
	s, err := g.Start(stake)
	require.NoError(t, err)
	for _, c := range []int{0, 1, 2} {
		require.True(t, s.Hazard(c))
	}
	return s
}

func TestRevealSafeCellsRaisesMultiplier(t *testing.T) {
	s := dealSession(t, 100, 0, nil, nil)

	out, err := s.Reveal(3)
	require.NoError(t, err)
	assert.False(t, out.Hit)
	assert.Equal(t, 1.5, out.Multiplier)

	out, err = s.Reveal(4)
	require.NoError(t, err)
	assert.Equal(t, 2.0, out.Multiplier)

	payout, err := s.CashOut()
	require.NoError(t, err)
	assert.Equal(t, int64(200), payout)

	// The session is spent.
	_, err = s.Reveal(5)
	assert.ErrorIs(t, err, ErrSessionFinished)
	_, err = s.CashOut()
	assert.ErrorIs(t, err, ErrSessionFinished)
}

func TestHazardEndsSession(t *testing.T) {
	// Mercy chance zero: the hazard always detonates.
	s := dealSession(t, 100, 0, nil, nil)

	out, err := s.Reveal(0)
	require.NoError(t, err)
	assert.True(t, out.Hit)
	assert.True(t, s.Finished())

	_, err = s.CashOut()
	assert.ErrorIs(t, err, ErrSessionFinished)
}

func TestMercyRelocatesHazard(t *testing.T) {
	// Mercy roll succeeds; the hazard at cell 0 moves to the first
	// relocation candidate and the reveal proceeds as safe.
	s := dealSession(t, 100, 0.08, []float64{0.01}, []int{0})

	out, err := s.Reveal(0)
	require.NoError(t, err)
	assert.False(t, out.Hit)
	assert.True(t, out.Mercy)
	assert.Equal(t, 1.5, out.Multiplier)
	assert.False(t, s.Hazard(0))

	// Still three hazards on the board.
	hazards := 0
	for c := 0; c < Cells; c++ {
		if s.Hazard(c) {
			hazards++
		}
	}
	assert.Equal(t, Hazards, hazards)
}

func TestFullClearForcesFiveTimes(t *testing.T) {
	s := dealSession(t, 100, 0, nil, nil)

	var last *Outcome
	for _, c := range []int{3, 4, 5, 6, 7, 8} {
		out, err := s.Reveal(c)
		require.NoError(t, err)
		assert.False(t, out.Hit)
		last = out
	}

	require.NotNil(t, last)
	assert.True(t, last.Cleared)
	assert.Equal(t, 5.0, last.Multiplier)
	assert.True(t, s.Finished())
	assert.Equal(t, int64(500), Payout(100, last.Multiplier))
}

func TestRevealValidation(t *testing.T) {
	s := dealSession(t, 100, 0, nil, nil)

	_, err := s.Reveal(-1)
	assert.ErrorIs(t, err, ErrInvalidCell)
	_, err = s.Reveal(Cells)
	assert.ErrorIs(t, err, ErrInvalidCell)

	_, err = s.Reveal(3)
	require.NoError(t, err)
	_, err = s.Reveal(3)
	assert.ErrorIs(t, err, ErrCellRevealed)
}

func TestCashOutBeforeAnyRevealReturnsStake(t *testing.T) {
	s := dealSession(t, 100, 0, nil, nil)

	payout, err := s.CashOut()
	require.NoError(t, err)
	assert.Equal(t, int64(100), payout)
}

func TestConcurrentCashOutPaysOnce(t *testing.T) {
	s := dealSession(t, 100, 0, nil, nil)
	_, err := s.Reveal(3)
	require.NoError(t, err)

	// A double-pressed cash-out button races two settlements on the same
	// session; exactly one may collect the payout.
	const attempts = 8
	payouts := make(chan int64, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if payout, err := s.CashOut(); err == nil {
				payouts <- payout
			} else {
				assert.ErrorIs(t, err, ErrSessionFinished)
			}
		}()
	}
	wg.Wait()
	close(payouts)

	var wins []int64
	for p := range payouts {
		wins = append(wins, p)
	}
	require.Len(t, wins, 1)
	assert.Equal(t, int64(150), wins[0])
}

func TestStartValidatesStake(t *testing.T) {
	g := New(&fakeRand{ints: []int{0, 1, 2}}, 0, limits)

	_, err := g.Start(0)
	assert.ErrorIs(t, err, game.ErrInvalidStake)
	_, err = g.Start(10001)
	assert.ErrorIs(t, err, game.ErrStakeTooHigh)
}

// TestMultiplierLadderProperty checks that revealing n safe cells yields
// 1.0 + 0.5n until the forced x5 full clear, and the payout floors.
func TestMultiplierLadderProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stake := rapid.Int64Range(1, 10000).Draw(t, "stake")
		reveals := rapid.IntRange(0, Cells-Hazards).Draw(t, "reveals")

		g := New(&fakeRand{ints: []int{0, 1, 2}}, 0, limits)
		s, err := g.Start(stake)
		if err != nil {
			t.Fatalf("start: %v", err)
		}

		mult := 1.0
		for i := 0; i < reveals; i++ {
			out, err := s.Reveal(3 + i)
			if err != nil {
				t.Fatalf("reveal: %v", err)
			}
			if out.Hit {
				t.Fatal("hit a hazard on a safe cell")
			}
			mult += 0.5
			if out.Cleared {
				mult = 5.0
			}
			if out.Multiplier != mult {
				t.Fatalf("multiplier after %d reveals: got %v, want %v", i+1, out.Multiplier, mult)
			}
		}

		if reveals < Cells-Hazards {
			payout, err := s.CashOut()
			if err != nil {
				t.Fatalf("cash out: %v", err)
			}
			want := int64(float64(stake) * mult)
			if payout != want {
				t.Fatalf("payout: got %d, want %d", payout, want)
			}
		}
	})
}
