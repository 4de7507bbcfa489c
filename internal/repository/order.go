package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"oxide-coins-bot/internal/model"
)

// Order errors.
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNotOpen     = errors.New("order is not open")
	ErrOrderBadState    = errors.New("order is not in a valid state for this action")
	ErrOrderSelfTake    = errors.New("cannot take your own order")
	ErrOrderNotCreator  = errors.New("only the order creator may do this")
	ErrOrderNotExecutor = errors.New("only the order executor may do this")
)

// OrderRepository handles peer-to-peer orders and their escrow
// settlements. Every money-moving transition runs in one database
// transaction with the order row locked.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository instance.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `
	id, creator_id, executor_id, resource_category, resource_type,
	resource_amount, total_reward, executor_reward, description, status,
	created_at, taken_at, completed_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.CreatorID,
		&o.ExecutorID,
		&o.ResourceCategory,
		&o.ResourceType,
		&o.ResourceAmount,
		&o.TotalReward,
		&o.ExecutorReward,
		&o.Description,
		&o.Status,
		&o.CreatedAt,
		&o.TakenAt,
		&o.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateEscrowed debits the creator the full TotalReward and inserts the
// open order in one transaction. An overdraw fails with
// ErrInsufficientFunds and leaves nothing behind.
func (r *OrderRepository) CreateEscrowed(ctx context.Context, order *model.Order) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := adjustBalance(ctx, tx, order.CreatorID, -order.TotalReward, model.CurrencyReal, model.ReasonOrderEscrow); err != nil {
		return nil, err
	}

	const query = `
		INSERT INTO orders (creator_id, resource_category, resource_type,
			resource_amount, total_reward, executor_reward, description,
			status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'open', NOW())
		RETURNING` + orderColumns

	created, err := scanOrder(tx.QueryRow(ctx, query,
		order.CreatorID, order.ResourceCategory, order.ResourceType,
		order.ResourceAmount, order.TotalReward, order.ExecutorReward,
		order.Description,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// Get retrieves an order by ID.
func (r *OrderRepository) Get(ctx context.Context, id int64) (*model.Order, error) {
	const query = `SELECT` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// ListOpen retrieves open orders, newest first.
func (r *OrderRepository) ListOpen(ctx context.Context, limit int) ([]*model.Order, error) {
	return r.list(ctx, `SELECT`+orderColumns+`
		FROM orders WHERE status = 'open'
		ORDER BY created_at DESC LIMIT $1`, limit)
}

// ListByCreator retrieves a creator's non-terminal orders, newest first.
func (r *OrderRepository) ListByCreator(ctx context.Context, creatorID int64, limit int) ([]*model.Order, error) {
	return r.list(ctx, `SELECT`+orderColumns+`
		FROM orders
		WHERE creator_id = $2 AND status IN ('open', 'in_progress', 'pending_confirm')
		ORDER BY created_at DESC LIMIT $1`, limit, creatorID)
}

// ListByExecutor retrieves an executor's active orders, newest first.
func (r *OrderRepository) ListByExecutor(ctx context.Context, executorID int64, limit int) ([]*model.Order, error) {
	return r.list(ctx, `SELECT`+orderColumns+`
		FROM orders
		WHERE executor_id = $2 AND status IN ('in_progress', 'pending_confirm')
		ORDER BY created_at DESC LIMIT $1`, limit, executorID)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]*model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// lockOrder reads the order row FOR UPDATE inside tx.
func lockOrder(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error) {
	order, err := scanOrder(tx.QueryRow(ctx,
		`SELECT`+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return order, nil
}

// Take assigns an executor to an open order. The creator cannot take
// their own order.
func (r *OrderRepository) Take(ctx context.Context, orderID, executorID int64) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderOpen {
		return nil, ErrOrderNotOpen
	}
	if order.CreatorID == executorID {
		return nil, ErrOrderSelfTake
	}

	order, err = scanOrder(tx.QueryRow(ctx, `
		UPDATE orders
		SET status = 'in_progress', executor_id = $2, taken_at = NOW()
		WHERE id = $1
		RETURNING`+orderColumns, orderID, executorID))
	if err != nil {
		return nil, fmt.Errorf("failed to take order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

// SubmitProof moves an in-progress order to pending confirmation. Only
// the executor may submit.
func (r *OrderRepository) SubmitProof(ctx context.Context, orderID, executorID int64) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderInProgress {
		return nil, ErrOrderBadState
	}
	if order.ExecutorID == nil || *order.ExecutorID != executorID {
		return nil, ErrOrderNotExecutor
	}

	order, err = scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET status = 'pending_confirm' WHERE id = $1
		RETURNING`+orderColumns, orderID))
	if err != nil {
		return nil, fmt.Errorf("failed to submit proof: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

// Confirm settles a pending order: the executor is paid ExecutorReward
// and the order completes. The commission residual stays with the
// platform; the creator has already paid in full at creation.
func (r *OrderRepository) Confirm(ctx context.Context, orderID, creatorID int64) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderPendingConfirm {
		return nil, ErrOrderBadState
	}
	if order.CreatorID != creatorID {
		return nil, ErrOrderNotCreator
	}

	if _, err := adjustBalance(ctx, tx, *order.ExecutorID, order.ExecutorReward, model.CurrencyReal, model.ReasonOrderPayout); err != nil {
		return nil, err
	}

	order, err = scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET status = 'completed', completed_at = NOW() WHERE id = $1
		RETURNING`+orderColumns, orderID))
	if err != nil {
		return nil, fmt.Errorf("failed to confirm order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

// RejectProof sends a pending order back to in_progress for rework.
// No balance change.
func (r *OrderRepository) RejectProof(ctx context.Context, orderID, creatorID int64) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderPendingConfirm {
		return nil, ErrOrderBadState
	}
	if order.CreatorID != creatorID {
		return nil, ErrOrderNotCreator
	}

	order, err = scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET status = 'in_progress' WHERE id = $1
		RETURNING`+orderColumns, orderID))
	if err != nil {
		return nil, fmt.Errorf("failed to reject proof: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

// Cancel refunds the creator the full escrowed TotalReward and cancels
// the order. Allowed from open or in_progress, creator only. No
// commission is charged on cancellation.
func (r *OrderRepository) Cancel(ctx context.Context, orderID, creatorID int64) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderOpen && order.Status != model.OrderInProgress {
		return nil, ErrOrderBadState
	}
	if order.CreatorID != creatorID {
		return nil, ErrOrderNotCreator
	}

	if _, err := adjustBalance(ctx, tx, order.CreatorID, order.TotalReward, model.CurrencyReal, model.ReasonOrderRefund); err != nil {
		return nil, err
	}

	order, err = scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET status = 'cancelled', completed_at = NOW() WHERE id = $1
		RETURNING`+orderColumns, orderID))
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}
