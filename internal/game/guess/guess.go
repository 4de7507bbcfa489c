// Package guess implements the number-guess game: pick one of six
// faces, win double the stake on a match.
package guess

import (
	"errors"

	"oxide-coins-bot/internal/game"
)

// Faces is the number of die faces the player picks from.
const Faces = 6

// ErrInvalidGuess is returned for a guess outside 1..6.
var ErrInvalidGuess = errors.New("guess must be between 1 and 6")

// Game implements game.InstantGame.
type Game struct {
	rng    game.Rand
	mercy  float64
	limits game.Limits
}

// New creates the guess game.
func New(rng game.Rand, mercy float64, limits game.Limits) *Game {
	return &Game{rng: rng, mercy: mercy, limits: limits}
}

func (g *Game) Name() string        { return "Dice guess" }
func (g *Game) Command() string     { return "guess" }
func (g *Game) Description() string { return "Guess the die face, win x2" }

// ValidateStake checks the stake against the shared limits.
func (g *Game) ValidateStake(stake int64) error {
	return g.limits.Validate(stake)
}

// Play resolves one round. params["guess"] is the player's face pick.
// A successful mercy roll forces the draw onto the pick.
func (g *Game) Play(stake int64, params map[string]any) (*game.Result, error) {
	if err := g.ValidateStake(stake); err != nil {
		return nil, err
	}
	pick, ok := params["guess"].(int)
	if !ok || pick < 1 || pick > Faces {
		return nil, ErrInvalidGuess
	}

	mercy := game.Mercy(g.rng, g.mercy)
	draw := g.rng.Intn(Faces) + 1
	if mercy {
		draw = pick
	}

	result := &game.Result{
		Mercy: mercy,
		Details: map[string]any{
			"guess": pick,
			"draw":  draw,
		},
	}
	if draw == pick {
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
