package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"oxide-coins-bot/internal/model"
)

// ErrDailyAlreadyClaimed is returned when the daily bonus was already
// claimed within the last whole day.
var ErrDailyAlreadyClaimed = errors.New("daily bonus already claimed")

// AccountRepository handles account persistence and the settlement
// primitives every other flow builds on.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository instance.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create creates a new account. New accounts start with a zero real
// balance and a seeded demo balance.
func (r *AccountRepository) Create(ctx context.Context, userID int64, username, fullName string, demoStart int64) (*model.Account, error) {
	const query = `
		INSERT INTO accounts (user_id, username, full_name, demo_balance, tier, registered_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'newbie', NOW(), NOW(), NOW())
		RETURNING` + accountColumns

	account, err := scanAccount(r.pool.QueryRow(ctx, query, userID, username, fullName, demoStart))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// GetByID retrieves an account by user ID.
// Returns ErrAccountNotFound if the account does not exist.
func (r *AccountRepository) GetByID(ctx context.Context, userID int64) (*model.Account, error) {
	const query = `SELECT` + accountColumns + ` FROM accounts WHERE user_id = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetOrCreate retrieves an account, creating one if it doesn't exist.
// The bool result reports whether a new account was created.
func (r *AccountRepository) GetOrCreate(ctx context.Context, userID int64, username, fullName string, demoStart int64) (*model.Account, bool, error) {
	account, err := r.GetByID(ctx, userID)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, false, err
	}

	account, err = r.Create(ctx, userID, username, fullName, demoStart)
	if err != nil {
		// Another request may have created the account concurrently.
		account, err = r.GetByID(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		return account, false, nil
	}
	return account, true, nil
}

// AdjustBalance applies a signed delta to one of the account's balances
// and appends the matching ledger record. Real-currency debits that
// would overdraw fail with ErrInsufficientFunds.
func (r *AccountRepository) AdjustBalance(ctx context.Context, userID, amount int64, currency model.Currency, reason string) (*model.Account, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	account, err := adjustBalance(ctx, tx, userID, amount, currency, reason)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return account, nil
}

// AdminAdjust applies a signed delta on behalf of an administrator.
// A debit larger than the balance fails with ErrInsufficientFunds; the
// ledger only ever records deltas that were actually applied.
func (r *AccountRepository) AdminAdjust(ctx context.Context, userID, amount int64, currency model.Currency) (*model.Account, error) {
	return r.AdjustBalance(ctx, userID, amount, currency, model.ReasonAdminAdjust)
}

// SetBalance sets a balance to an exact value and records the implied
// delta in the ledger. Admin override only.
func (r *AccountRepository) SetBalance(ctx context.Context, userID, balance int64, currency model.Currency) (*model.Account, error) {
	if balance < 0 {
		return nil, ErrInsufficientFunds
	}

	column := "real_balance"
	if currency == model.CurrencyDemo {
		column = "demo_balance"
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var previous int64
	err = tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM accounts WHERE user_id = $1 FOR UPDATE`, column), userID,
	).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE accounts
		SET %s = $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING`+accountColumns, column)

	account, err := scanAccount(tx.QueryRow(ctx, query, userID, balance))
	if err != nil {
		return nil, fmt.Errorf("failed to set balance: %w", err)
	}

	if err := insertTransaction(ctx, tx, userID, balance-previous, currency, model.ReasonAdminSet); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return account, nil
}

// SetTier updates the account's tier.
func (r *AccountRepository) SetTier(ctx context.Context, userID int64, tier model.Tier) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET tier = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, tier)
	if err != nil {
		return fmt.Errorf("failed to set tier: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// AddPromoCredits grants the right to mint delta more promocodes.
func (r *AccountRepository) AddPromoCredits(ctx context.Context, userID int64, delta int) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET promo_credits = promo_credits + $2, updated_at = NOW()
		WHERE user_id = $1 AND promo_credits + $2 >= 0
	`, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to add promo credits: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ClaimDailyBonus grants the daily bonus if at least one whole day has
// passed since the previous claim. Returns ErrDailyAlreadyClaimed if the
// last claim is less than a day old. The check and the grant run in one
// transaction with the account row locked.
func (r *AccountRepository) ClaimDailyBonus(ctx context.Context, userID, bonus int64) (*model.Account, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var last *time.Time
	err = tx.QueryRow(ctx, `
		SELECT last_daily_bonus FROM accounts WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	// Whole days since the last claim, not calendar-day boundaries.
	if last != nil && time.Since(*last) < 24*time.Hour {
		return nil, ErrDailyAlreadyClaimed
	}

	if _, err := tx.Exec(ctx, `
		UPDATE accounts SET last_daily_bonus = NOW(), updated_at = NOW() WHERE user_id = $1
	`, userID); err != nil {
		return nil, fmt.Errorf("failed to update daily bonus timestamp: %w", err)
	}

	account, err := adjustBalance(ctx, tx, userID, bonus, model.CurrencyReal, model.ReasonDailyBonus)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return account, nil
}

// TopByEarned retrieves the top N accounts by lifetime earnings.
func (r *AccountRepository) TopByEarned(ctx context.Context, limit int) ([]*model.Account, error) {
	const query = `SELECT` + accountColumns + `
		FROM accounts
		WHERE total_earned > 0
		ORDER BY total_earned DESC, user_id
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// ResetLeaderboard zeroes lifetime earnings for every account. Balances
// and the ledger are untouched.
func (r *AccountRepository) ResetLeaderboard(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET total_earned = 0, updated_at = NOW() WHERE total_earned > 0
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset leaderboard: %w", err)
	}
	return result.RowsAffected(), nil
}

// Search finds accounts whose username or full name matches the query,
// for the admin lookup panel.
func (r *AccountRepository) Search(ctx context.Context, pattern string, limit int) ([]*model.Account, error) {
	const query = `SELECT` + accountColumns + `
		FROM accounts
		WHERE username ILIKE '%' || $1 || '%' OR full_name ILIKE '%' || $1 || '%'
		ORDER BY user_id
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// CompleteRegistration marks the onboarding questionnaire as finished
// and stores the in-game identity.
func (r *AccountRepository) CompleteRegistration(ctx context.Context, userID int64, gameServer, gameNickname string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET registered = TRUE, game_server = $2, game_nickname = $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, gameServer, gameNickname)
	if err != nil {
		return fmt.Errorf("failed to complete registration: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdateUsername refreshes the stored username after a profile change.
func (r *AccountRepository) UpdateUsername(ctx context.Context, userID int64, username string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET username = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, username)
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
