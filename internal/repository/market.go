package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"oxide-coins-bot/internal/model"
)

// Market errors.
var (
	ErrItemNotFound     = errors.New("market item not found")
	ErrItemInactive     = errors.New("market item is not active")
	ErrAlreadyPurchased = errors.New("item already purchased by this user")
)

// MarketRepository handles market items and one-time purchases.
type MarketRepository struct {
	pool *pgxpool.Pool
}

// NewMarketRepository creates a new MarketRepository instance.
func NewMarketRepository(pool *pgxpool.Pool) *MarketRepository {
	return &MarketRepository{pool: pool}
}

const itemColumns = `
	id, name, price, description, reward_kind, reward_coins, reward_tier,
	reward_credits, is_active, created_at`

func scanItem(row pgx.Row) (*model.MarketItem, error) {
	var m model.MarketItem
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Price,
		&m.Description,
		&m.Reward.Kind,
		&m.Reward.Coins,
		&m.Reward.Tier,
		&m.Reward.Credits,
		&m.IsActive,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateItem inserts a new active market item with its parsed reward.
func (r *MarketRepository) CreateItem(ctx context.Context, item *model.MarketItem) (*model.MarketItem, error) {
	const query = `
		INSERT INTO market_items (name, price, description, reward_kind,
			reward_coins, reward_tier, reward_credits, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW())
		RETURNING` + itemColumns

	created, err := scanItem(r.pool.QueryRow(ctx, query,
		item.Name, item.Price, item.Description,
		item.Reward.Kind, item.Reward.Coins, item.Reward.Tier, item.Reward.Credits,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create market item: %w", err)
	}
	return created, nil
}

// GetItem retrieves a market item by ID.
func (r *MarketRepository) GetItem(ctx context.Context, id int64) (*model.MarketItem, error) {
	const query = `SELECT` + itemColumns + ` FROM market_items WHERE id = $1`

	item, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get market item: %w", err)
	}
	return item, nil
}

// ListActive retrieves all active market items.
func (r *MarketRepository) ListActive(ctx context.Context) ([]*model.MarketItem, error) {
	const query = `SELECT` + itemColumns + `
		FROM market_items WHERE is_active ORDER BY price, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list market items: %w", err)
	}
	defer rows.Close()

	var items []*model.MarketItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating market items: %w", err)
	}
	return items, nil
}

// DeactivateItem pulls an item from the market without deleting its
// purchase history.
func (r *MarketRepository) DeactivateItem(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE market_items SET is_active = FALSE WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate market item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// HasPurchased reports whether the user already bought the item.
func (r *MarketRepository) HasPurchased(ctx context.Context, userID, itemID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1 AND item_id = $2)
	`, userID, itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	return exists, nil
}

// Purchase settles a buy in one transaction: the price is debited, the
// purchase recorded, and the item's reward dispatched by its kind
// (coins credit, tier grant, or promo issue credits). A repeat purchase
// fails with ErrAlreadyPurchased and moves no money.
func (r *MarketRepository) Purchase(ctx context.Context, userID, itemID int64) (*model.MarketItem, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := scanItem(tx.QueryRow(ctx,
		`SELECT`+itemColumns+` FROM market_items WHERE id = $1 FOR UPDATE`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to lock market item: %w", err)
	}
	if !item.IsActive {
		return nil, ErrItemInactive
	}

	// The unique index on (user_id, item_id) makes the one-time rule
	// hold even under concurrent buys.
	if _, err := tx.Exec(ctx, `
		INSERT INTO purchases (user_id, item_id, price, purchased_at)
		VALUES ($1, $2, $3, NOW())
	`, userID, itemID, item.Price); err != nil {
		if isUniqueViolation(err, "") {
			return nil, ErrAlreadyPurchased
		}
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	if _, err := adjustBalance(ctx, tx, userID, -item.Price, model.CurrencyReal, model.ReasonMarketPurchase); err != nil {
		return nil, err
	}

	switch item.Reward.Kind {
	case model.RewardCoins:
		if _, err := adjustBalance(ctx, tx, userID, item.Reward.Coins, model.CurrencyReal, model.ReasonMarketReward); err != nil {
			return nil, err
		}
	case model.RewardPrivilege:
		if _, err := tx.Exec(ctx, `
			UPDATE accounts SET tier = $2, updated_at = NOW() WHERE user_id = $1
		`, userID, item.Reward.Tier); err != nil {
			return nil, fmt.Errorf("failed to grant tier: %w", err)
		}
	case model.RewardPromoCredits:
		if _, err := tx.Exec(ctx, `
			UPDATE accounts SET promo_credits = promo_credits + $2, updated_at = NOW() WHERE user_id = $1
		`, userID, item.Reward.Credits); err != nil {
			return nil, fmt.Errorf("failed to grant promo credits: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown reward kind %q", item.Reward.Kind)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return item, nil
}
