package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"oxide-coins-bot/internal/model"
)

// ProfileRepository handles player and clan recruitment listings.
// Listings expire passively: reads filter on expires_at, nothing sweeps
// expired rows.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository instance.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// CreatePlayerProfile inserts a player listing valid for ttl. A user
// has at most one active listing: reposting replaces the previous one.
func (r *ProfileRepository) CreatePlayerProfile(ctx context.Context, p *model.PlayerProfile, ttl time.Duration) (*model.PlayerProfile, error) {
	const query = `
		INSERT INTO player_profiles (user_id, age, hours_played, real_name,
			nickname, server, prev_clans, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW() + $8, NOW())
		RETURNING id, user_id, age, hours_played, real_name, nickname,
			server, prev_clans, expires_at, created_at`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM player_profiles WHERE user_id = $1`, p.UserID); err != nil {
		return nil, fmt.Errorf("failed to delete previous player profile: %w", err)
	}

	var created model.PlayerProfile
	err = tx.QueryRow(ctx, query,
		p.UserID, p.Age, p.HoursPlayed, p.RealName, p.Nickname, p.Server, p.PrevClans, ttl,
	).Scan(
		&created.ID, &created.UserID, &created.Age, &created.HoursPlayed,
		&created.RealName, &created.Nickname, &created.Server,
		&created.PrevClans, &created.ExpiresAt, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create player profile: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &created, nil
}

// ListPlayerProfiles retrieves unexpired player listings, newest first.
func (r *ProfileRepository) ListPlayerProfiles(ctx context.Context, limit int) ([]*model.PlayerProfile, error) {
	const query = `
		SELECT id, user_id, age, hours_played, real_name, nickname,
			server, prev_clans, expires_at, created_at
		FROM player_profiles
		WHERE expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list player profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.PlayerProfile
	for rows.Next() {
		var p model.PlayerProfile
		err := rows.Scan(
			&p.ID, &p.UserID, &p.Age, &p.HoursPlayed, &p.RealName,
			&p.Nickname, &p.Server, &p.PrevClans, &p.ExpiresAt, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player profile: %w", err)
		}
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player profiles: %w", err)
	}
	return profiles, nil
}

// CreateClanProfile inserts a clan listing valid for ttl. Reposting
// replaces the user's previous clan listing.
func (r *ProfileRepository) CreateClanProfile(ctx context.Context, c *model.ClanProfile, ttl time.Duration) (*model.ClanProfile, error) {
	const query = `
		INSERT INTO clan_profiles (user_id, clan_name, clan_tag, founded_date,
			server, hours_required, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW() + $7, NOW())
		RETURNING id, user_id, clan_name, clan_tag, founded_date, server,
			hours_required, expires_at, created_at`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM clan_profiles WHERE user_id = $1`, c.UserID); err != nil {
		return nil, fmt.Errorf("failed to delete previous clan profile: %w", err)
	}

	var created model.ClanProfile
	err = tx.QueryRow(ctx, query,
		c.UserID, c.ClanName, c.ClanTag, c.FoundedDate, c.Server, c.HoursRequired, ttl,
	).Scan(
		&created.ID, &created.UserID, &created.ClanName, &created.ClanTag,
		&created.FoundedDate, &created.Server, &created.HoursRequired,
		&created.ExpiresAt, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create clan profile: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &created, nil
}

// ListClanProfiles retrieves unexpired clan listings, newest first.
func (r *ProfileRepository) ListClanProfiles(ctx context.Context, limit int) ([]*model.ClanProfile, error) {
	const query = `
		SELECT id, user_id, clan_name, clan_tag, founded_date, server,
			hours_required, expires_at, created_at
		FROM clan_profiles
		WHERE expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list clan profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.ClanProfile
	for rows.Next() {
		var c model.ClanProfile
		err := rows.Scan(
			&c.ID, &c.UserID, &c.ClanName, &c.ClanTag, &c.FoundedDate,
			&c.Server, &c.HoursRequired, &c.ExpiresAt, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clan profile: %w", err)
		}
		profiles = append(profiles, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clan profiles: %w", err)
	}
	return profiles, nil
}
