package service

import (
	"context"
	"errors"
	"fmt"

	"oxide-coins-bot/internal/game"
	"oxide-coins-bot/internal/game/minefield"
	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/pkg/lock"
	"oxide-coins-bot/internal/repository"
)

// ErrUnknownGame is returned when a play names a game that is not
// registered.
var ErrUnknownGame = errors.New("unknown game")

// GameService settles mini-game stakes and payouts against the ledger.
// The stake leaves the balance before the draw; a win credits the gross
// payout in the same currency. Demo play never touches lifetime earnings.
type GameService struct {
	accounts  *repository.AccountRepository
	registry  *game.Registry
	minefield *minefield.Game
	userLock  *lock.KeyedLock
}

// NewGameService creates a new GameService instance.
func NewGameService(
	accounts *repository.AccountRepository,
	registry *game.Registry,
	mf *minefield.Game,
	userLock *lock.KeyedLock,
) *GameService {
	return &GameService{
		accounts:  accounts,
		registry:  registry,
		minefield: mf,
		userLock:  userLock,
	}
}

// Games lists the registered games in menu order.
func (s *GameService) Games() []game.Game {
	return s.registry.List()
}

// Get looks up a game by its command.
func (s *GameService) Get(command string) (game.Game, bool) {
	return s.registry.Get(command)
}

// Play runs a single-step game for a user: debits the stake, draws, and
// credits the payout on a win. The debit and the credit are separate
// settlements; a crash between them loses at most the payout, never
// double-spends the stake.
func (s *GameService) Play(ctx context.Context, userID int64, command string, stake int64, currency model.Currency, params map[string]any) (*game.Result, *model.Account, error) {
	g, ok := s.registry.Get(command)
	if !ok {
		return nil, nil, ErrUnknownGame
	}
	instant, ok := g.(game.InstantGame)
	if !ok {
		return nil, nil, ErrUnknownGame
	}
	if err := g.ValidateStake(stake); err != nil {
		return nil, nil, err
	}

	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)

	if _, err := s.accounts.AdjustBalance(ctx, userID, -stake, currency, model.ReasonGameStake); err != nil {
		return nil, nil, err
	}

	result, err := instant.Play(stake, params)
	if err != nil {
		// Invalid parameters surfaced after the debit; hand the stake back.
		if _, refundErr := s.accounts.AdjustBalance(ctx, userID, stake, currency, model.ReasonGameRefund); refundErr != nil {
			return nil, nil, fmt.Errorf("failed to refund stake after invalid play: %w", refundErr)
		}
		return nil, nil, err
	}

	account, err := s.settle(ctx, userID, result.Payout, currency)
	if err != nil {
		return nil, nil, err
	}
	return result, account, nil
}

// StartMinefield debits the stake and deals a fresh minefield session. The
// session lives in conversation state; reveals happen against it directly
// and only the cash-out comes back through the service.
func (s *GameService) StartMinefield(ctx context.Context, userID, stake int64, currency model.Currency) (*minefield.Session, error) {
	if err := s.minefield.ValidateStake(stake); err != nil {
		return nil, err
	}

	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)

	if _, err := s.accounts.AdjustBalance(ctx, userID, -stake, currency, model.ReasonGameStake); err != nil {
		return nil, err
	}
	return s.minefield.Start(stake)
}

// CashOutMinefield credits the session's current payout. The session's
// finish guard admits one cash-out per session; the user lock serializes
// the credit with every other settlement for the user.
func (s *GameService) CashOutMinefield(ctx context.Context, userID int64, session *minefield.Session, currency model.Currency) (int64, *model.Account, error) {
	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)

	payout, err := session.CashOut()
	if err != nil {
		return 0, nil, err
	}
	account, err := s.settle(ctx, userID, payout, currency)
	if err != nil {
		return 0, nil, err
	}
	return payout, account, nil
}

// SettleMinefieldClear credits the forced full-clear payout. The session
// finishes itself on the clearing reveal, so this path skips CashOut.
func (s *GameService) SettleMinefieldClear(ctx context.Context, userID int64, session *minefield.Session, currency model.Currency) (int64, *model.Account, error) {
	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)

	payout := minefield.Payout(session.Stake(), session.Multiplier())
	account, err := s.settle(ctx, userID, payout, currency)
	if err != nil {
		return 0, nil, err
	}
	return payout, account, nil
}

// settle credits a payout when there is one and returns the fresh account
// either way.
func (s *GameService) settle(ctx context.Context, userID, payout int64, currency model.Currency) (*model.Account, error) {
	if payout > 0 {
		account, err := s.accounts.AdjustBalance(ctx, userID, payout, currency, model.ReasonGameWin)
		if err != nil {
			return nil, fmt.Errorf("failed to credit payout: %w", err)
		}
		return account, nil
	}
	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}
