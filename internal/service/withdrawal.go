package service

import (
	"context"
	"errors"
	"fmt"

	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/packs"
	"oxide-coins-bot/internal/pkg/lock"
	"oxide-coins-bot/internal/repository"
)

// ErrUnknownPack is returned when a withdrawal names a pack ID that is not
// in the catalog.
var ErrUnknownPack = errors.New("unknown withdrawal pack")

// WithdrawalService handles cash-out requests. The pack catalog is fixed;
// the coin amount is escrowed at request time.
type WithdrawalService struct {
	withdrawals *repository.WithdrawalRepository
	userLock    *lock.KeyedLock
}

// NewWithdrawalService creates a new WithdrawalService instance.
func NewWithdrawalService(withdrawals *repository.WithdrawalRepository, userLock *lock.KeyedLock) *WithdrawalService {
	return &WithdrawalService{withdrawals: withdrawals, userLock: userLock}
}

// Packs returns the withdrawable pack catalog in display order.
func (s *WithdrawalService) Packs() []packs.Pack {
	return packs.All()
}

// Request escrows the pack's coin amount and files a pending withdrawal.
// Multiple pending requests per user are allowed as long as each debit
// clears.
func (s *WithdrawalService) Request(ctx context.Context, userID int64, packID, gameID string) (*model.Withdrawal, error) {
	pack, ok := packs.Get(packID)
	if !ok {
		return nil, ErrUnknownPack
	}

	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)

	wd, err := s.withdrawals.CreateEscrowed(ctx, userID, pack.ID, pack.Coins, gameID)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return wd, nil
}

// Get retrieves a withdrawal by ID.
func (s *WithdrawalService) Get(ctx context.Context, id int64) (*model.Withdrawal, error) {
	return s.withdrawals.Get(ctx, id)
}

// Pending retrieves withdrawals awaiting review, oldest first.
func (s *WithdrawalService) Pending(ctx context.Context, limit int) ([]*model.Withdrawal, error) {
	return s.withdrawals.ListPending(ctx, limit)
}

// Complete marks a pending withdrawal as paid out. The coins already left
// the account at request time, so this is a status change only.
func (s *WithdrawalService) Complete(ctx context.Context, id, reviewerID int64) (*model.Withdrawal, error) {
	return s.withdrawals.Complete(ctx, id, reviewerID)
}

// Reject refunds the escrowed coins in full and records the reviewer's
// comment.
func (s *WithdrawalService) Reject(ctx context.Context, id, reviewerID int64, comment string) (*model.Withdrawal, error) {
	wd, err := s.withdrawals.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.userLock.Lock(wd.UserID)
	defer s.userLock.Unlock(wd.UserID)

	return s.withdrawals.Reject(ctx, id, reviewerID, comment)
}
