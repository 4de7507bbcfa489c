// Package wheel implements the multiplier wheel. The player picks a
// target multiplier from a fixed weighted table; the result multiplier
// is drawn from the same table by cumulative-probability sampling, and
// a match pays floor(stake x multiplier).
package wheel

import (
	"errors"
	"math"

	"oxide-coins-bot/internal/game"
)

// Segment is one wheel sector: a multiplier and its draw weight.
type Segment struct {
	Mult   float64
	Weight float64
}

// DefaultTable is the production wheel. Weights sum to 1; rarer sectors
// pay more.
var DefaultTable = []Segment{
	{Mult: 1.5, Weight: 0.40},
	{Mult: 2, Weight: 0.30},
	{Mult: 3, Weight: 0.15},
	{Mult: 5, Weight: 0.10},
	{Mult: 10, Weight: 0.05},
}

// ErrInvalidTarget is returned when the picked multiplier is not a
// sector of the wheel.
var ErrInvalidTarget = errors.New("target multiplier is not on the wheel")

// Game implements game.InstantGame.
type Game struct {
	table  []Segment
	rng    game.Rand
	mercy  float64
	limits game.Limits
}

// New creates the wheel game over the given table.
func New(table []Segment, rng game.Rand, mercy float64, limits game.Limits) *Game {
	return &Game{table: table, rng: rng, mercy: mercy, limits: limits}
}

func (g *Game) Name() string        { return "Multiplier wheel" }
func (g *Game) Command() string     { return "wheel" }
func (g *Game) Description() string { return "Call the sector, win stake x multiplier" }

// Table returns the wheel's segments for menu rendering.
func (g *Game) Table() []Segment { return g.table }

// ValidateStake checks the stake against the shared limits.
func (g *Game) ValidateStake(stake int64) error {
	return g.limits.Validate(stake)
}

// Spin draws a multiplier from the table by cumulative-probability
// sampling. The last sector absorbs any residual probability mass.
func Spin(table []Segment, rng game.Rand) float64 {
	roll := rng.Float64()
	cumulative := 0.0
	for _, s := range table {
		cumulative += s.Weight
		if roll < cumulative {
			return s.Mult
		}
	}
	return table[len(table)-1].Mult
}

// Play resolves one round. params["target"] is the picked multiplier.
// A successful mercy roll forces the result onto the target.
func (g *Game) Play(stake int64, params map[string]any) (*game.Result, error) {
	if err := g.ValidateStake(stake); err != nil {
		return nil, err
	}
	target, ok := params["target"].(float64)
	if !ok || !g.onWheel(target) {
		return nil, ErrInvalidTarget
	}

	mercy := game.Mercy(g.rng, g.mercy)
	result := Spin(g.table, g.rng)
	if mercy {
		result = target
	}

	out := &game.Result{
		Mercy: mercy,
		Details: map[string]any{
			"target": target,
			"result": result,
		},
	}
	if result == target {
		out.Win = true
		out.Payout = Payout(stake, target)
	}
	return out, nil
}

func (g *Game) onWheel(mult float64) bool {
	for _, s := range g.table {
		if s.Mult == mult {
			return true
		}
	}
	return false
}

// Payout returns the gross credit for a winning round.
func Payout(stake int64, mult float64) int64 {
	return int64(math.Floor(float64(stake) * mult))
}

var _ game.InstantGame = (*Game)(nil)
