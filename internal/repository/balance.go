// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"oxide-coins-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so that balance
// helpers can run standalone or inside a larger settlement transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const accountColumns = `
	user_id, username, full_name, real_balance, demo_balance, total_earned,
	tasks_completed, tier, promo_credits, game_server, game_nickname,
	registered, registered_at, last_daily_bonus, created_at, updated_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.UserID,
		&a.Username,
		&a.FullName,
		&a.RealBalance,
		&a.DemoBalance,
		&a.TotalEarned,
		&a.TasksCompleted,
		&a.Tier,
		&a.PromoCredits,
		&a.GameServer,
		&a.GameNickname,
		&a.Registered,
		&a.RegisteredAt,
		&a.LastDailyBonus,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// adjustBalance applies a signed delta to one of the account's balances
// inside q and appends the matching ledger record. A real-currency debit
// that would drive the balance negative fails with ErrInsufficientFunds;
// the row predicate makes the check atomic, no separate read is needed.
// Positive real-currency credits also accrue total_earned. Demo credits
// never do.
func adjustBalance(ctx context.Context, q querier, userID, amount int64, currency model.Currency, reason string) (*model.Account, error) {
	column := "real_balance"
	earn := amount
	if currency == model.CurrencyDemo {
		column = "demo_balance"
		earn = 0
	}
	if earn < 0 {
		earn = 0
	}

	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = %[1]s + $2,
		    total_earned = total_earned + $3,
		    updated_at = NOW()
		WHERE user_id = $1 AND %[1]s + $2 >= 0
		RETURNING`+accountColumns, column)

	account, err := scanAccount(q.QueryRow(ctx, query, userID, amount, earn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the account is missing or the debit would
			// overdraw; tell them apart for the caller.
			var exists bool
			if checkErr := q.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = $1)`, userID,
			).Scan(&exists); checkErr != nil {
				return nil, fmt.Errorf("failed to check account existence: %w", checkErr)
			}
			if !exists {
				return nil, ErrAccountNotFound
			}
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to adjust balance: %w", err)
	}

	if err := insertTransaction(ctx, q, userID, amount, currency, reason); err != nil {
		return nil, err
	}

	return account, nil
}

// insertTransaction appends one ledger record.
func insertTransaction(ctx context.Context, q querier, userID, amount int64, currency model.Currency, reason string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO transactions (user_id, amount, currency, reason, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, userID, amount, currency, reason)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, optionally on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
