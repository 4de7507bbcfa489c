// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/pkg/lock"
	"oxide-coins-bot/internal/repository"
)

// Common errors for account operations.
var (
	ErrDailyAlreadyClaimed = errors.New("daily bonus already claimed")
	ErrAccountNotFound     = errors.New("account not found")
)

const dailyBonusCooldown = 24 * time.Hour

// AccountService handles user account operations: onboarding, balances,
// the daily bonus and the leaderboard.
type AccountService struct {
	accounts   *repository.AccountRepository
	ledger     *repository.TransactionRepository
	userLock   *lock.KeyedLock
	demoStart  int64
	dailyBonus int64
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(
	accounts *repository.AccountRepository,
	ledger *repository.TransactionRepository,
	userLock *lock.KeyedLock,
	demoStart int64,
	dailyBonus int64,
) *AccountService {
	return &AccountService{
		accounts:   accounts,
		ledger:     ledger,
		userLock:   userLock,
		demoStart:  demoStart,
		dailyBonus: dailyBonus,
	}
}

// EnsureAccount ensures an account exists, creating one with the demo
// starting balance if necessary. Returns the account and whether it was
// newly created. The stored username is refreshed when it changed, and the
// age-derived tier is recomputed on every access.
func (s *AccountService) EnsureAccount(ctx context.Context, userID int64, username, fullName string) (*model.Account, bool, error) {
	account, created, err := s.accounts.GetOrCreate(ctx, userID, username, fullName, s.demoStart)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure account: %w", err)
	}

	if !created && username != "" && account.Username != username {
		if err := s.accounts.UpdateUsername(ctx, userID, username); err == nil {
			account.Username = username
		}
	}

	if tier := DeriveTier(account.Tier, account.RegisteredAt, time.Now()); tier != account.Tier {
		if err := s.accounts.SetTier(ctx, userID, tier); err == nil {
			account.Tier = tier
		}
	}

	return account, created, nil
}

// GetAccount retrieves an account by Telegram user ID.
func (s *AccountService) GetAccount(ctx context.Context, userID int64) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// CompleteRegistration stores the in-game identity gathered by the
// onboarding questionnaire and marks the account as registered.
func (s *AccountService) CompleteRegistration(ctx context.Context, userID int64, gameServer, gameNickname string) error {
	return s.accounts.CompleteRegistration(ctx, userID, gameServer, gameNickname)
}

// ClaimDaily claims the daily bonus for a user. Returns the updated
// account, or ErrDailyAlreadyClaimed with the remaining cooldown when the
// last claim was under 24 hours ago.
func (s *AccountService) ClaimDaily(ctx context.Context, userID int64) (*model.Account, time.Duration, error) {
	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)

	account, err := s.accounts.ClaimDailyBonus(ctx, userID, s.dailyBonus)
	if err != nil {
		if errors.Is(err, repository.ErrDailyAlreadyClaimed) {
			current, getErr := s.accounts.GetByID(ctx, userID)
			if getErr != nil {
				return nil, 0, fmt.Errorf("failed to get account after rejected claim: %w", getErr)
			}
			_, remaining := dailyEligibility(current.LastDailyBonus, time.Now())
			return nil, remaining, ErrDailyAlreadyClaimed
		}
		return nil, 0, fmt.Errorf("failed to claim daily bonus: %w", err)
	}
	return account, 0, nil
}

// CanClaimDaily reports whether the daily bonus is currently claimable and
// the remaining cooldown if not.
func (s *AccountService) CanClaimDaily(ctx context.Context, userID int64) (bool, time.Duration, error) {
	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to get account: %w", err)
	}
	ok, remaining := dailyEligibility(account.LastDailyBonus, time.Now())
	return ok, remaining, nil
}

// dailyEligibility decides whether a claim is allowed given the last claim
// time. A nil last claim means never claimed.
func dailyEligibility(last *time.Time, now time.Time) (bool, time.Duration) {
	if last == nil {
		return true, 0
	}
	elapsed := now.Sub(*last)
	if elapsed >= dailyBonusCooldown {
		return true, 0
	}
	return false, dailyBonusCooldown - elapsed
}

// Leaderboard retrieves the top accounts by lifetime earnings.
func (s *AccountService) Leaderboard(ctx context.Context, limit int) ([]*model.Account, error) {
	return s.accounts.TopByEarned(ctx, limit)
}

// History retrieves the most recent ledger entries for a user.
func (s *AccountService) History(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	return s.ledger.GetByUserID(ctx, userID, limit)
}

// AdminAdjust applies an admin balance adjustment. A debit beyond the
// balance fails with ErrInsufficientFunds, like any other debit.
func (s *AccountService) AdminAdjust(ctx context.Context, userID, amount int64, currency model.Currency) (*model.Account, error) {
	return s.withUserLock(userID, func() (*model.Account, error) {
		return s.accounts.AdminAdjust(ctx, userID, amount, currency)
	})
}

// AdminSet overwrites a balance outright. The delta from the previous
// balance is ledgered.
func (s *AccountService) AdminSet(ctx context.Context, userID, balance int64, currency model.Currency) (*model.Account, error) {
	return s.withUserLock(userID, func() (*model.Account, error) {
		return s.accounts.SetBalance(ctx, userID, balance, currency)
	})
}

// GrantTier assigns a tier directly, used for the sticky youtuber and
// admin grants.
func (s *AccountService) GrantTier(ctx context.Context, userID int64, tier model.Tier) error {
	return s.accounts.SetTier(ctx, userID, tier)
}

// GrantPromoCredits adds promo minting credits to an account.
func (s *AccountService) GrantPromoCredits(ctx context.Context, userID int64, credits int) error {
	return s.accounts.AddPromoCredits(ctx, userID, credits)
}

// ResetLeaderboard zeroes lifetime earnings for every account and returns
// how many accounts were affected.
func (s *AccountService) ResetLeaderboard(ctx context.Context) (int64, error) {
	return s.accounts.ResetLeaderboard(ctx)
}

// Search finds accounts by username or full name for the admin panel.
func (s *AccountService) Search(ctx context.Context, query string, limit int) ([]*model.Account, error) {
	return s.accounts.Search(ctx, query, limit)
}

func (s *AccountService) withUserLock(userID int64, fn func() (*model.Account, error)) (*model.Account, error) {
	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)
	return fn()
}

// CreditStarsPurchase credits coins bought with Telegram Stars.
func (s *AccountService) CreditStarsPurchase(ctx context.Context, userID, coins int64) (*model.Account, error) {
	return s.withUserLock(userID, func() (*model.Account, error) {
		return s.accounts.AdjustBalance(ctx, userID, coins, model.CurrencyReal, model.ReasonStarsPurchase)
	})
}
