package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"oxide-coins-bot/internal/model"
)

// StatsRepository aggregates the admin dashboard snapshot.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository instance.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// Snapshot gathers platform-wide counters in a single query.
func (r *StatsRepository) Snapshot(ctx context.Context) (*model.Stats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(*) FROM accounts WHERE registered),
			(SELECT COUNT(*) FROM tasks WHERE status = 'active'),
			(SELECT COUNT(*) FROM submissions WHERE status = 'pending'),
			(SELECT COUNT(*) FROM withdrawals WHERE status = 'pending'),
			(SELECT COUNT(*) FROM submissions WHERE status = 'completed'),
			(SELECT COUNT(*) FROM promocodes WHERE is_active),
			(SELECT COALESCE(SUM(real_balance), 0) FROM accounts)
	`

	var s model.Stats
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.TotalUsers,
		&s.RegisteredUsers,
		&s.ActiveTasks,
		&s.PendingSubmissions,
		&s.PendingWithdrawals,
		&s.CompletedSubmissions,
		&s.ActivePromos,
		&s.TotalRealBalance,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats snapshot: %w", err)
	}
	return &s, nil
}
