// Package minefield implements the 3x3 minefield session game. Three of
// nine cells hide hazards; each safe reveal adds 0.5 to the multiplier,
// clearing every safe cell forces x5.0, and cashing out pays
// floor(stake x multiplier).
package minefield

import (
	"errors"
	"math"
	"sync"

	"oxide-coins-bot/internal/game"
)

const (
	// Cells is the board size.
	Cells = 9
	// Hazards is how many cells explode.
	Hazards = 3

	startMultiplier = 1.0
	revealStep      = 0.5
	clearMultiplier = 5.0
)

// Session errors.
var (
	ErrInvalidCell     = errors.New("cell index out of range")
	ErrCellRevealed    = errors.New("cell already revealed")
	ErrSessionFinished = errors.New("session already finished")
)

// Outcome reports what one reveal did.
type Outcome struct {
	Hit        bool // a hazard ended the session, stake lost
	Cleared    bool // every safe cell is open, multiplier forced to x5
	Mercy      bool // a hazard was dodged by the mercy roll
	Multiplier float64
}

// Game carries the metadata and the stake window; rounds run as
// Sessions started from it.
type Game struct {
	rng    game.Rand
	mercy  float64
	limits game.Limits
}

// New creates the minefield game.
func New(rng game.Rand, mercy float64, limits game.Limits) *Game {
	return &Game{rng: rng, mercy: mercy, limits: limits}
}

func (g *Game) Name() string        { return "Minefield" }
func (g *Game) Command() string     { return "minefield" }
func (g *Game) Description() string { return "Open safe cells, cash out before a hazard" }

// ValidateStake checks the stake against the shared limits.
func (g *Game) ValidateStake(stake int64) error {
	return g.limits.Validate(stake)
}

// Session is one player's running board. Its methods are safe for
// concurrent use: the finish flag flips under the session mutex, so of
// two racing cash-out attempts exactly one collects the payout.
type Session struct {
	mu         sync.Mutex
	stake      int64
	hazards    map[int]bool
	revealed   map[int]bool
	multiplier float64
	finished   bool
	rng        game.Rand
	mercy      float64
}

// Start deals a fresh board: Hazards distinct cells are mined.
func (g *Game) Start(stake int64) (*Session, error) {
	if err := g.ValidateStake(stake); err != nil {
		return nil, err
	}

	hazards := make(map[int]bool, Hazards)
	for len(hazards) < Hazards {
		hazards[g.rng.Intn(Cells)] = true
	}

	return &Session{
		stake:      stake,
		hazards:    hazards,
		revealed:   make(map[int]bool, Cells),
		multiplier: startMultiplier,
		rng:        g.rng,
		mercy:      g.mercy,
	}, nil
}

// Stake returns the amount debited when the session started.
func (s *Session) Stake() int64 { return s.stake }

// Multiplier returns the current cash-out multiplier.
func (s *Session) Multiplier() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.multiplier
}

// Finished reports whether the session is over.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Revealed reports whether the cell is open.
func (s *Session) Revealed(cell int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed[cell]
}

// Hazard reports whether the cell hides a hazard. Meant for rendering
// the final board after the session ends.
func (s *Session) Hazard(cell int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hazards[cell]
}

// Reveal opens a cell. Hitting a hazard normally ends the session with
// the stake lost, but a successful mercy roll relocates the hazard to a
// random unrevealed safe cell and the reveal proceeds as safe. Opening
// the last safe cell forces the multiplier to x5 and finishes the
// session.
func (s *Session) Reveal(cell int) (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return nil, ErrSessionFinished
	}
	if cell < 0 || cell >= Cells {
		return nil, ErrInvalidCell
	}
	if s.revealed[cell] {
		return nil, ErrCellRevealed
	}

	out := &Outcome{}
	if s.hazards[cell] {
		if game.Mercy(s.rng, s.mercy) && s.relocateHazard(cell) {
			out.Mercy = true
		} else {
			s.finished = true
			out.Hit = true
			out.Multiplier = 0
			return out, nil
		}
	}

	s.revealed[cell] = true
	s.multiplier += revealStep

	if s.allSafeRevealed() {
		s.multiplier = clearMultiplier
		s.finished = true
		out.Cleared = true
	}
	out.Multiplier = s.multiplier
	return out, nil
}

// relocateHazard moves the hazard off the cell to a random unrevealed
// safe cell. Fails when no such cell remains.
func (s *Session) relocateHazard(cell int) bool {
	var candidates []int
	for c := 0; c < Cells; c++ {
		if c != cell && !s.hazards[c] && !s.revealed[c] {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	delete(s.hazards, cell)
	s.hazards[candidates[s.rng.Intn(len(candidates))]] = true
	return true
}

func (s *Session) allSafeRevealed() bool {
	return len(s.revealed) == Cells-Hazards
}

// CashOut finishes the session and returns the gross payout,
// floor(stake x multiplier). Fails once the session is over, so at most
// one caller ever collects.
func (s *Session) CashOut() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return 0, ErrSessionFinished
	}
	s.finished = true
	return Payout(s.stake, s.multiplier), nil
}

// Payout returns the gross credit for a cash-out.
func Payout(stake int64, mult float64) int64 {
	return int64(math.Floor(float64(stake) * mult))
}

var _ game.Game = (*Game)(nil)
