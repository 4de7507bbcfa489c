package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"oxide-coins-bot/internal/model"
)

// Withdrawal errors.
var (
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	ErrWithdrawalReviewed = errors.New("withdrawal already reviewed")
)

// WithdrawalRepository handles cash-out requests. Coins are held at
// request time, so completion is a pure status flip and rejection is a
// full refund.
type WithdrawalRepository struct {
	pool *pgxpool.Pool
}

// NewWithdrawalRepository creates a new WithdrawalRepository instance.
func NewWithdrawalRepository(pool *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{pool: pool}
}

const withdrawalColumns = `
	id, user_id, pack_id, coins, game_id, status, admin_comment,
	created_at, reviewed_at, reviewed_by`

func scanWithdrawal(row pgx.Row) (*model.Withdrawal, error) {
	var w model.Withdrawal
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.PackID,
		&w.Coins,
		&w.GameID,
		&w.Status,
		&w.AdminComment,
		&w.CreatedAt,
		&w.ReviewedAt,
		&w.ReviewedBy,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateEscrowed debits the user the pack price and inserts the pending
// request in one transaction. An overdraw fails with
// ErrInsufficientFunds and leaves nothing behind.
func (r *WithdrawalRepository) CreateEscrowed(ctx context.Context, userID int64, packID string, coins int64, gameID string) (*model.Withdrawal, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := adjustBalance(ctx, tx, userID, -coins, model.CurrencyReal, model.ReasonWithdrawHold); err != nil {
		return nil, err
	}

	const query = `
		INSERT INTO withdrawals (user_id, pack_id, coins, game_id, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW())
		RETURNING` + withdrawalColumns

	withdrawal, err := scanWithdrawal(tx.QueryRow(ctx, query, userID, packID, coins, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to create withdrawal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return withdrawal, nil
}

// Get retrieves a withdrawal by ID.
func (r *WithdrawalRepository) Get(ctx context.Context, id int64) (*model.Withdrawal, error) {
	const query = `SELECT` + withdrawalColumns + ` FROM withdrawals WHERE id = $1`

	withdrawal, err := scanWithdrawal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return withdrawal, nil
}

// ListPending retrieves pending withdrawals for review, oldest first.
func (r *WithdrawalRepository) ListPending(ctx context.Context, limit int) ([]*model.Withdrawal, error) {
	const query = `SELECT` + withdrawalColumns + `
		FROM withdrawals
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []*model.Withdrawal
	for rows.Next() {
		withdrawal, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, withdrawal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawals: %w", err)
	}
	return withdrawals, nil
}

// Complete marks a pending withdrawal as paid out. The coins were held
// at request time, so no balance change happens here.
func (r *WithdrawalRepository) Complete(ctx context.Context, id, reviewerID int64) (*model.Withdrawal, error) {
	const query = `
		UPDATE withdrawals
		SET status = 'completed', reviewed_at = NOW(), reviewed_by = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING` + withdrawalColumns

	withdrawal, err := scanWithdrawal(r.pool.QueryRow(ctx, query, id, reviewerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.reviewConflict(ctx, id)
		}
		return nil, fmt.Errorf("failed to complete withdrawal: %w", err)
	}
	return withdrawal, nil
}

// Reject refunds the full held amount and marks the request rejected,
// in one transaction.
func (r *WithdrawalRepository) Reject(ctx context.Context, id, reviewerID int64, comment string) (*model.Withdrawal, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		UPDATE withdrawals
		SET status = 'rejected', admin_comment = $3, reviewed_at = NOW(), reviewed_by = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING` + withdrawalColumns

	withdrawal, err := scanWithdrawal(tx.QueryRow(ctx, query, id, reviewerID, comment))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.reviewConflict(ctx, id)
		}
		return nil, fmt.Errorf("failed to reject withdrawal: %w", err)
	}

	if _, err := adjustBalance(ctx, tx, withdrawal.UserID, withdrawal.Coins, model.CurrencyReal, model.ReasonWithdrawRefund); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return withdrawal, nil
}

func (r *WithdrawalRepository) reviewConflict(ctx context.Context, id int64) error {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM withdrawals WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check withdrawal existence: %w", err)
	}
	if !exists {
		return ErrWithdrawalNotFound
	}
	return ErrWithdrawalReviewed
}
