package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/pkg/lock"
	"oxide-coins-bot/internal/repository"
)

// Order validation errors.
var (
	ErrInvalidReward = errors.New("invalid reward: must be positive")
	ErrInvalidAmount = errors.New("invalid amount: must be positive")
)

// OrderService handles the peer-to-peer order lifecycle. All settlement
// transitions are serialized per order, and the paying side's user lock is
// held while the escrow moves.
type OrderService struct {
	orders     *repository.OrderRepository
	userLock   *lock.KeyedLock
	orderLock  *lock.KeyedLock
	commission float64
}

// NewOrderService creates a new OrderService instance.
func NewOrderService(
	orders *repository.OrderRepository,
	userLock *lock.KeyedLock,
	orderLock *lock.KeyedLock,
	commission float64,
) *OrderService {
	return &OrderService{
		orders:     orders,
		userLock:   userLock,
		orderLock:  orderLock,
		commission: commission,
	}
}

// TotalReward computes the amount the creator must escrow so that the
// executor receives reward after the platform takes its cut. With a 0.2
// commission a 50-coin executor reward costs the creator 62 coins.
func TotalReward(reward int64, commission float64) int64 {
	return int64(math.Floor(float64(reward) / (1 - commission)))
}

// Commission returns the service's configured commission rate.
func (s *OrderService) Commission() float64 {
	return s.commission
}

// Quote returns the total the creator would escrow for the given executor
// reward, without creating anything.
func (s *OrderService) Quote(reward int64) (int64, error) {
	if reward <= 0 {
		return 0, ErrInvalidReward
	}
	return TotalReward(reward, s.commission), nil
}

// Create escrows the commission-inclusive total from the creator and opens
// the order.
func (s *OrderService) Create(ctx context.Context, creatorID int64, category, resourceType string, amount, reward int64, description string) (*model.Order, error) {
	if reward <= 0 {
		return nil, ErrInvalidReward
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	order := &model.Order{
		CreatorID:        creatorID,
		ResourceCategory: category,
		ResourceType:     resourceType,
		ResourceAmount:   amount,
		TotalReward:      TotalReward(reward, s.commission),
		ExecutorReward:   reward,
		Description:      description,
	}

	s.userLock.Lock(creatorID)
	defer s.userLock.Unlock(creatorID)

	created, err := s.orders.CreateEscrowed(ctx, order)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return created, nil
}

// Get retrieves an order by ID.
func (s *OrderService) Get(ctx context.Context, orderID int64) (*model.Order, error) {
	return s.orders.Get(ctx, orderID)
}

// ListOpen retrieves open orders for the order board.
func (s *OrderService) ListOpen(ctx context.Context, limit int) ([]*model.Order, error) {
	return s.orders.ListOpen(ctx, limit)
}

// ListByCreator retrieves a creator's orders, newest first.
func (s *OrderService) ListByCreator(ctx context.Context, creatorID int64, limit int) ([]*model.Order, error) {
	return s.orders.ListByCreator(ctx, creatorID, limit)
}

// ListByExecutor retrieves an executor's taken orders, newest first.
func (s *OrderService) ListByExecutor(ctx context.Context, executorID int64, limit int) ([]*model.Order, error) {
	return s.orders.ListByExecutor(ctx, executorID, limit)
}

// Take assigns an open order to an executor.
func (s *OrderService) Take(ctx context.Context, orderID, executorID int64) (*model.Order, error) {
	return s.withOrderLock(orderID, func() (*model.Order, error) {
		return s.orders.Take(ctx, orderID, executorID)
	})
}

// SubmitProof moves a taken order to pending confirmation.
func (s *OrderService) SubmitProof(ctx context.Context, orderID, executorID int64) (*model.Order, error) {
	return s.withOrderLock(orderID, func() (*model.Order, error) {
		return s.orders.SubmitProof(ctx, orderID, executorID)
	})
}

// Confirm completes an order and pays the executor their reward. The
// commission residue stays retained.
func (s *OrderService) Confirm(ctx context.Context, orderID, creatorID int64) (*model.Order, error) {
	return s.withOrderLock(orderID, func() (*model.Order, error) {
		return s.orders.Confirm(ctx, orderID, creatorID)
	})
}

// RejectProof sends a pending-confirm order back to the executor for
// rework. No balances move.
func (s *OrderService) RejectProof(ctx context.Context, orderID, creatorID int64) (*model.Order, error) {
	return s.withOrderLock(orderID, func() (*model.Order, error) {
		return s.orders.RejectProof(ctx, orderID, creatorID)
	})
}

// Cancel refunds the full escrow to the creator. Allowed while the order
// is open or in progress; a pending confirmation blocks cancellation.
func (s *OrderService) Cancel(ctx context.Context, orderID, creatorID int64) (*model.Order, error) {
	return s.withOrderLock(orderID, func() (*model.Order, error) {
		s.userLock.Lock(creatorID)
		defer s.userLock.Unlock(creatorID)
		return s.orders.Cancel(ctx, orderID, creatorID)
	})
}

func (s *OrderService) withOrderLock(orderID int64, fn func() (*model.Order, error)) (*model.Order, error) {
	s.orderLock.Lock(orderID)
	defer s.orderLock.Unlock(orderID)
	return fn()
}
