package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"oxide-coins-bot/internal/model"
)

// Promocode errors.
var (
	ErrPromoNotFound    = errors.New("promocode not found")
	ErrPromoInactive    = errors.New("promocode is not active")
	ErrPromoExhausted   = errors.New("promocode has no uses left")
	ErrPromoAlreadyUsed = errors.New("promocode already redeemed by this user")
	ErrPromoCodeTaken   = errors.New("promocode already exists")
	ErrNoPromoCredits   = errors.New("no promocode issue credits left")
)

// PromoRepository handles promocodes and their redemptions.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository creates a new PromoRepository instance.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

const promoColumns = `id, code, coins, max_uses, current_uses, created_by, is_active, created_at`

func scanPromo(row pgx.Row) (*model.Promocode, error) {
	var p model.Promocode
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Coins,
		&p.MaxUses,
		&p.CurrentUses,
		&p.CreatedBy,
		&p.IsActive,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new promocode. Codes are stored upper-cased; a
// duplicate fails with ErrPromoCodeTaken.
func (r *PromoRepository) Create(ctx context.Context, code string, coins int64, maxUses int, createdBy int64) (*model.Promocode, error) {
	const query = `
		INSERT INTO promocodes (code, coins, max_uses, created_by, is_active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())
		RETURNING` + promoColumns

	promo, err := scanPromo(r.pool.QueryRow(ctx, query, strings.ToUpper(code), coins, maxUses, createdBy))
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, ErrPromoCodeTaken
		}
		return nil, fmt.Errorf("failed to create promocode: %w", err)
	}
	return promo, nil
}

// GetByCode retrieves a promocode by its upper-cased code.
func (r *PromoRepository) GetByCode(ctx context.Context, code string) (*model.Promocode, error) {
	const query = `SELECT` + promoColumns + ` FROM promocodes WHERE code = $1`

	promo, err := scanPromo(r.pool.QueryRow(ctx, query, strings.ToUpper(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPromoNotFound
		}
		return nil, fmt.Errorf("failed to get promocode: %w", err)
	}
	return promo, nil
}

// ListActive retrieves all active promocodes.
func (r *PromoRepository) ListActive(ctx context.Context) ([]*model.Promocode, error) {
	const query = `SELECT` + promoColumns + `
		FROM promocodes WHERE is_active ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list promocodes: %w", err)
	}
	defer rows.Close()

	var promos []*model.Promocode
	for rows.Next() {
		promo, err := scanPromo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promocode: %w", err)
		}
		promos = append(promos, promo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating promocodes: %w", err)
	}
	return promos, nil
}

// Deactivate turns a promocode off without deleting it.
func (r *PromoRepository) Deactivate(ctx context.Context, code string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE promocodes SET is_active = FALSE WHERE code = $1
	`, strings.ToUpper(code))
	if err != nil {
		return fmt.Errorf("failed to deactivate promocode: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPromoNotFound
	}
	return nil
}

// Redeem settles one redemption in one transaction: the promo row is
// locked, activity and remaining uses are checked, the (user, promo)
// redemption is recorded, use count increments (deactivating the code
// when the cap is reached) and the user is credited. A repeat
// redemption by the same user fails with ErrPromoAlreadyUsed.
func (r *PromoRepository) Redeem(ctx context.Context, code string, userID int64) (*model.Promocode, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	promo, err := scanPromo(tx.QueryRow(ctx,
		`SELECT`+promoColumns+` FROM promocodes WHERE code = $1 FOR UPDATE`,
		strings.ToUpper(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPromoNotFound
		}
		return nil, fmt.Errorf("failed to lock promocode: %w", err)
	}

	if !promo.IsActive {
		return nil, ErrPromoInactive
	}
	if promo.CurrentUses >= promo.MaxUses {
		return nil, ErrPromoExhausted
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO promo_redemptions (promo_id, user_id, redeemed_at)
		VALUES ($1, $2, NOW())
	`, promo.ID, userID); err != nil {
		if isUniqueViolation(err, "") {
			return nil, ErrPromoAlreadyUsed
		}
		return nil, fmt.Errorf("failed to record redemption: %w", err)
	}

	promo, err = scanPromo(tx.QueryRow(ctx, `
		UPDATE promocodes
		SET current_uses = current_uses + 1,
		    is_active = current_uses + 1 < max_uses
		WHERE id = $1
		RETURNING`+promoColumns, promo.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to increment promocode uses: %w", err)
	}

	if _, err := adjustBalance(ctx, tx, userID, promo.Coins, model.CurrencyReal, model.ReasonPromoRedeem); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return promo, nil
}

// Mint creates a self-funded promocode for a privileged user in one
// transaction: one promo issue credit and coins x maxUses are charged
// up front, then the code is created. Insufficient coins fail with
// ErrInsufficientFunds, no credits with ErrNoPromoCredits.
func (r *PromoRepository) Mint(ctx context.Context, code string, coins int64, maxUses int, minterID int64) (*model.Promocode, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE accounts
		SET promo_credits = promo_credits - 1, updated_at = NOW()
		WHERE user_id = $1 AND promo_credits > 0
	`, minterID)
	if err != nil {
		return nil, fmt.Errorf("failed to spend promo credit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrNoPromoCredits
	}

	cost := coins * int64(maxUses)
	if _, err := adjustBalance(ctx, tx, minterID, -cost, model.CurrencyReal, model.ReasonPromoMint); err != nil {
		return nil, err
	}

	const query = `
		INSERT INTO promocodes (code, coins, max_uses, created_by, is_active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())
		RETURNING` + promoColumns

	promo, err := scanPromo(tx.QueryRow(ctx, query, strings.ToUpper(code), coins, maxUses, minterID))
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, ErrPromoCodeTaken
		}
		return nil, fmt.Errorf("failed to create promocode: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return promo, nil
}
