package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations lists the schema statements in apply order. Balances carry
// CHECK constraints so a bug in any settlement path cannot persist a
// negative balance. The partial unique index on submissions enforces the
// one-active-submission rule at the store, not with a read-then-insert.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		user_id BIGINT PRIMARY KEY,
		username VARCHAR(255) NOT NULL DEFAULT '',
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		real_balance BIGINT NOT NULL DEFAULT 0 CHECK (real_balance >= 0),
		demo_balance BIGINT NOT NULL DEFAULT 0 CHECK (demo_balance >= 0),
		total_earned BIGINT NOT NULL DEFAULT 0 CHECK (total_earned >= 0),
		tasks_completed INT NOT NULL DEFAULT 0,
		tier VARCHAR(20) NOT NULL DEFAULT 'newbie',
		promo_credits INT NOT NULL DEFAULT 0 CHECK (promo_credits >= 0),
		game_server VARCHAR(255) NOT NULL DEFAULT '',
		game_nickname VARCHAR(255) NOT NULL DEFAULT '',
		registered BOOLEAN NOT NULL DEFAULT FALSE,
		registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_daily_bonus TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
		amount BIGINT NOT NULL,
		currency VARCHAR(10) NOT NULL,
		reason VARCHAR(50) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_user_created
		ON transactions (user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id BIGSERIAL PRIMARY KEY,
		author_id BIGINT NOT NULL,
		kind VARCHAR(20) NOT NULL,
		reward BIGINT NOT NULL CHECK (reward > 0),
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		server_name VARCHAR(255) NOT NULL DEFAULT '',
		clan_name VARCHAR(255) NOT NULL DEFAULT '',
		resource_category VARCHAR(255) NOT NULL DEFAULT '',
		resource_type VARCHAR(255) NOT NULL DEFAULT '',
		resource_amount BIGINT NOT NULL DEFAULT 0,
		card_name VARCHAR(255) NOT NULL DEFAULT '',
		referral_link TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS submissions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
		task_id BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		kind VARCHAR(20) NOT NULL,
		proof_file_id TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		admin_comment TEXT,
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		reviewed_at TIMESTAMPTZ,
		reviewed_by BIGINT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS submissions_user_task_kind_active
		ON submissions (user_id, task_id, kind)
		WHERE status IN ('pending', 'completed')`,

	`CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		creator_id BIGINT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
		executor_id BIGINT REFERENCES accounts(user_id),
		resource_category VARCHAR(255) NOT NULL DEFAULT '',
		resource_type VARCHAR(255) NOT NULL DEFAULT '',
		resource_amount BIGINT NOT NULL DEFAULT 0,
		total_reward BIGINT NOT NULL CHECK (total_reward > 0),
		executor_reward BIGINT NOT NULL CHECK (executor_reward > 0),
		description TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'open',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		taken_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS orders_status ON orders (status)`,

	`CREATE TABLE IF NOT EXISTS withdrawals (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
		pack_id VARCHAR(50) NOT NULL DEFAULT '',
		coins BIGINT NOT NULL CHECK (coins > 0),
		game_id VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		admin_comment TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		reviewed_at TIMESTAMPTZ,
		reviewed_by BIGINT
	)`,

	`CREATE TABLE IF NOT EXISTS promocodes (
		id BIGSERIAL PRIMARY KEY,
		code VARCHAR(64) NOT NULL UNIQUE,
		coins BIGINT NOT NULL CHECK (coins > 0),
		max_uses INT NOT NULL CHECK (max_uses > 0),
		current_uses INT NOT NULL DEFAULT 0,
		created_by BIGINT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS promo_redemptions (
		id BIGSERIAL PRIMARY KEY,
		promo_id BIGINT NOT NULL REFERENCES promocodes(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
		redeemed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (promo_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS market_items (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		price BIGINT NOT NULL CHECK (price > 0),
		description TEXT NOT NULL DEFAULT '',
		reward_kind VARCHAR(20) NOT NULL,
		reward_coins BIGINT NOT NULL DEFAULT 0,
		reward_tier VARCHAR(20) NOT NULL DEFAULT '',
		reward_credits INT NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS purchases (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
		item_id BIGINT NOT NULL REFERENCES market_items(id) ON DELETE CASCADE,
		price BIGINT NOT NULL,
		purchased_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, item_id)
	)`,

	`CREATE TABLE IF NOT EXISTS player_profiles (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
		age INT NOT NULL DEFAULT 0,
		hours_played VARCHAR(64) NOT NULL DEFAULT '',
		real_name VARCHAR(255) NOT NULL DEFAULT '',
		nickname VARCHAR(255) NOT NULL DEFAULT '',
		server VARCHAR(255) NOT NULL DEFAULT '',
		prev_clans TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS clan_profiles (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
		clan_name VARCHAR(255) NOT NULL DEFAULT '',
		clan_tag VARCHAR(64) NOT NULL DEFAULT '',
		founded_date VARCHAR(64) NOT NULL DEFAULT '',
		server VARCHAR(255) NOT NULL DEFAULT '',
		hours_required INT NOT NULL DEFAULT 0,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate applies the schema. Every statement is idempotent, so calling
// it on startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}
