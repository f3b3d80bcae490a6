package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Migrate creates the schema. Shared by the server entry point and the
// integration tests.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: accounts table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			user_id BIGINT NOT NULL,
			chat_id BIGINT NOT NULL,
			username VARCHAR(255) NOT NULL DEFAULT '',
			rating BIGINT NOT NULL DEFAULT 100,
			title VARCHAR(255) NOT NULL DEFAULT 'Новичок',
			daily_streak INT NOT NULL DEFAULT 0,
			last_daily TIMESTAMPTZ,
			prestige_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1.0,
			prestige_level INT NOT NULL DEFAULT 0,
			stars BIGINT NOT NULL DEFAULT 0,
			next_daily_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1.0,
			shield_until TIMESTAMPTZ,
			click_power BIGINT NOT NULL DEFAULT 1,
			total_clicks BIGINT NOT NULL DEFAULT 0,
			auto_click_level INT NOT NULL DEFAULT 0,
			last_auto_tick TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, chat_id)
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_chat_rating ON accounts(chat_id, rating DESC);
		CREATE INDEX IF NOT EXISTS idx_accounts_rating ON accounts(rating DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: accounts table created")

	// Migration 2: battles table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS battles (
			id BIGSERIAL PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			challenger_id BIGINT NOT NULL,
			target_id BIGINT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			winner_id BIGINT,
			loser_id BIGINT,
			stolen BIGINT NOT NULL DEFAULT 0,
			shield_blocked BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_battles_chat_status ON battles(chat_id, status);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: battles table created")

	// Migration 3: history table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS history (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			chat_id BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			delta BIGINT NOT NULL DEFAULT 0,
			details TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_history_account_time ON history(user_id, chat_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_history_type_time ON history(type, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: history table created")

	// Migration 4: events table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			daily_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1.0,
			active BOOLEAN NOT NULL DEFAULT FALSE,
			started_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_events_active ON events(active);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: events table created")

	// Migration 5: crews tables
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS crews (
			id BIGSERIAL PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL,
			owner_user_id BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (chat_id, name)
		);
		CREATE TABLE IF NOT EXISTS crew_members (
			crew_id BIGINT NOT NULL REFERENCES crews(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL,
			PRIMARY KEY (crew_id, user_id)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: crews tables created")

	// Migration 6: admins table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS admins (
			chat_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			granted_by BIGINT NOT NULL,
			granted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (chat_id, user_id)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 6: admins table created")

	// Migration 7: achievements table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS achievements (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			chat_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL,
			achieved_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, chat_id, name)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 7: achievements table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
