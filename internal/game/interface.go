package game

import "errors"

// Stake validation errors shared by all games.
var (
	ErrInvalidStake  = errors.New("stake amount must be positive")
	ErrStakeTooSmall = errors.New("stake is below the minimum")
	ErrStakeTooHigh  = errors.New("stake exceeds the maximum")
)

// Result is the outcome of a finished round. Payout is the gross credit
// owed to the player (zero on a loss); the stake was already debited
// when the round started.
type Result struct {
	Win     bool
	Payout  int64
	Mercy   bool // the forced-win roll decided this round
	Details map[string]any
}

// Game is the metadata every mini-game exposes for the menu and for
// stake validation. One-round games additionally implement InstantGame;
// multi-step games run their own session type.
type Game interface {
	// Name returns the game's display name.
	Name() string

	// Command returns the callback key that selects this game.
	Command() string

	// Description returns a brief description of the game.
	Description() string

	// ValidateStake checks the stake against the game's limits.
	ValidateStake(stake int64) error
}

// InstantGame is a game resolved in a single draw once the stake and
// the player's choice are known.
type InstantGame interface {
	Game

	// Play resolves one round. Parameters carry the player's choice
	// where the game needs one.
	Play(stake int64, params map[string]any) (*Result, error)
}

// Limits is the stake window shared by all games.
type Limits struct {
	Min int64
	Max int64
}

// Validate checks a stake against the window.
func (l Limits) Validate(stake int64) error {
	if stake <= 0 {
		return ErrInvalidStake
	}
	if stake < l.Min {
		return ErrStakeTooSmall
	}
	if l.Max > 0 && stake > l.Max {
		return ErrStakeTooHigh
	}
	return nil
}
