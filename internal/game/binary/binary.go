// Package binary implements the single-draw win-or-lose games. A d6 is
// rolled against a variant-specific win predicate; a win pays double.
package binary

import (
	"oxide-coins-bot/internal/game"
)

// faces on the drawn die.
const faces = 6

// Variant defines one binary game's identity and win predicate.
type Variant struct {
	Name        string
	Command     string
	Description string
	// Wins reports whether the drawn face wins.
	Wins func(draw int) bool
}

// Hoop is the basketball shot: faces 4..6 score.
var Hoop = Variant{
	Name:        "Hoop shot",
	Command:     "hoop",
	Description: "Sink the shot, win x2",
	Wins:        func(draw int) bool { return draw >= 4 },
}

// Darts is the bullseye throw: only a 6 hits.
var Darts = Variant{
	Name:        "Darts",
	Command:     "darts",
	Description: "Hit the bullseye, win x2",
	Wins:        func(draw int) bool { return draw == 6 },
}

// Game implements game.InstantGame for one variant.
type Game struct {
	variant Variant
	rng     game.Rand
	mercy   float64
	limits  game.Limits
}

// New creates a binary game for the variant.
func New(variant Variant, rng game.Rand, mercy float64, limits game.Limits) *Game {
	return &Game{variant: variant, rng: rng, mercy: mercy, limits: limits}
}

func (g *Game) Name() string        { return g.variant.Name }
func (g *Game) Command() string     { return g.variant.Command }
func (g *Game) Description() string { return g.variant.Description }

// ValidateStake checks the stake against the shared limits.
func (g *Game) ValidateStake(stake int64) error {
	return g.limits.Validate(stake)
}

// Play resolves one round. A successful mercy roll wins regardless of
// the draw.
func (g *Game) Play(stake int64, _ map[string]any) (*game.Result, error) {
	if err := g.ValidateStake(stake); err != nil {
		return nil, err
	}

	mercy := game.Mercy(g.rng, g.mercy)
	draw := g.rng.Intn(faces) + 1

	result := &game.Result{
		Mercy: mercy,
		Details: map[string]any{
			"draw": draw,
		},
	}
	if mercy || g.variant.Wins(draw) {
		result.Win = true
		result.Payout = Payout(stake)
	}
	return result, nil
}

// Payout returns the gross credit for a winning round.
func Payout(stake int64) int64 {
	return stake * 2
}

var _ game.InstantGame = (*Game)(nil)
