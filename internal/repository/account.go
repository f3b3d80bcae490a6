// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rating-arena/internal/model"
)

// Common errors for repository operations.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrBattleNotFound  = errors.New("battle not found")
)

const accountColumns = `user_id, chat_id, username, rating, title, daily_streak,
		last_daily, prestige_multiplier, prestige_level, stars,
		next_daily_multiplier, shield_until, click_power, total_clicks,
		auto_click_level, last_auto_tick, created_at, updated_at`

// AccountRepository handles account persistence. Every economic
// mutation runs through Mutate or MutatePair: one transaction per
// affected key holding a row lock, with history written alongside.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository instance.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.UserID,
		&a.ChatID,
		&a.Username,
		&a.Rating,
		&a.Title,
		&a.DailyStreak,
		&a.LastDaily,
		&a.PrestigeMultiplier,
		&a.PrestigeLevel,
		&a.Stars,
		&a.NextDailyMult,
		&a.ShieldUntil,
		&a.ClickPower,
		&a.TotalClicks,
		&a.AutoClickLevel,
		&a.LastAutoTick,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetOrCreate retrieves the account for (user, chat), creating it with
// defaults on first reference. The username is refreshed on every call.
func (r *AccountRepository) GetOrCreate(ctx context.Context, userID, chatID int64, username string) (*model.Account, error) {
	query := `
		INSERT INTO accounts (user_id, chat_id, username)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, chat_id)
		DO UPDATE SET username = excluded.username, updated_at = NOW()
		RETURNING ` + accountColumns

	acc, err := scanAccount(r.pool.QueryRow(ctx, query, userID, chatID, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create account: %w", err)
	}
	return acc, nil
}

// Get retrieves an account. Returns ErrAccountNotFound on miss.
func (r *AccountRepository) Get(ctx context.Context, userID, chatID int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND chat_id = $2`

	acc, err := scanAccount(r.pool.QueryRow(ctx, query, userID, chatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// getForUpdate loads an account inside a transaction holding its row lock.
func getForUpdate(ctx context.Context, tx pgx.Tx, userID, chatID int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE user_id = $1 AND chat_id = $2 FOR UPDATE`

	acc, err := scanAccount(tx.QueryRow(ctx, query, userID, chatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return acc, nil
}

// ensureForUpdate upserts the account row inside a transaction. The
// conflicting update takes the row lock, so the caller holds it whether
// the account existed or was just created.
func ensureForUpdate(ctx context.Context, tx pgx.Tx, userID, chatID int64, username string) (*model.Account, error) {
	query := `
		INSERT INTO accounts (user_id, chat_id, username)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, chat_id)
		DO UPDATE SET username = excluded.username, updated_at = NOW()
		RETURNING ` + accountColumns

	acc, err := scanAccount(tx.QueryRow(ctx, query, userID, chatID, username))
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}
	return acc, nil
}

// writeBack persists the mutated snapshot. Rating and stars are floored
// at zero here so no code path can persist a negative balance.
func writeBack(ctx context.Context, tx pgx.Tx, a *model.Account) error {
	const query = `
		UPDATE accounts SET
			username = $3,
			rating = GREATEST(0, $4),
			title = $5,
			daily_streak = $6,
			last_daily = $7,
			prestige_multiplier = $8,
			prestige_level = $9,
			stars = GREATEST(0, $10),
			next_daily_multiplier = $11,
			shield_until = $12,
			click_power = $13,
			total_clicks = $14,
			auto_click_level = $15,
			last_auto_tick = $16,
			updated_at = NOW()
		WHERE user_id = $1 AND chat_id = $2
	`

	_, err := tx.Exec(ctx, query,
		a.UserID, a.ChatID, a.Username, a.Rating, a.Title, a.DailyStreak,
		a.LastDaily, a.PrestigeMultiplier, a.PrestigeLevel, a.Stars,
		a.NextDailyMult, a.ShieldUntil, a.ClickPower, a.TotalClicks,
		a.AutoClickLevel, a.LastAutoTick,
	)
	if err != nil {
		return fmt.Errorf("failed to write account: %w", err)
	}
	return nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, entries []model.HistoryEntry) error {
	const query = `
		INSERT INTO history (user_id, chat_id, type, delta, details, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	for _, e := range entries {
		if _, err := tx.Exec(ctx, query, e.UserID, e.ChatID, e.Type, e.Delta, e.Details); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}
	}
	return nil
}

// MutateFunc reads the locked account, produces the next state in place
// and returns the history entries to append in the same transaction.
// Returning an error rolls everything back unchanged.
type MutateFunc func(acc *model.Account) ([]model.HistoryEntry, error)

// Mutate atomically applies fn to one account: row lock, apply, write
// back with history, commit. Serializable per (user, chat) key.
// Returns ErrAccountNotFound on a missing account.
func (r *AccountRepository) Mutate(ctx context.Context, userID, chatID int64, fn MutateFunc) (*model.Account, error) {
	return r.mutate(ctx, userID, chatID, fn, getForUpdate)
}

// MutateEnsure is Mutate with create-on-first-reference: a missing
// account is created with defaults inside the same transaction, and
// the stored username is refreshed, before fn runs.
func (r *AccountRepository) MutateEnsure(ctx context.Context, userID, chatID int64, username string, fn MutateFunc) (*model.Account, error) {
	return r.mutate(ctx, userID, chatID, fn, func(ctx context.Context, tx pgx.Tx, userID, chatID int64) (*model.Account, error) {
		return ensureForUpdate(ctx, tx, userID, chatID, username)
	})
}

func (r *AccountRepository) mutate(
	ctx context.Context,
	userID, chatID int64,
	fn MutateFunc,
	load func(context.Context, pgx.Tx, int64, int64) (*model.Account, error),
) (*model.Account, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	acc, err := load(ctx, tx, userID, chatID)
	if err != nil {
		return nil, err
	}

	entries, err := fn(acc)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].UserID == 0 {
			entries[i].UserID = userID
			entries[i].ChatID = chatID
		}
	}

	if err := writeBack(ctx, tx, acc); err != nil {
		return nil, err
	}
	if err := insertHistory(ctx, tx, entries); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit mutation: %w", err)
	}
	return acc, nil
}

// MutatePairFunc mutates two locked accounts of one chat as a unit.
// The transaction is exposed so callers can fold further writes (battle
// state transitions) into the same atomic commit.
type MutatePairFunc func(tx pgx.Tx, a, b *model.Account) ([]model.HistoryEntry, error)

// MutatePair atomically applies fn to two accounts in the same chat.
// Rows are locked in ascending user_id order to prevent deadlocks
// between concurrent pair mutations.
func (r *AccountRepository) MutatePair(ctx context.Context, chatID, userA, userB int64, fn MutatePairFunc) (*model.Account, *model.Account, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	firstID, secondID := userA, userB
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, err := getForUpdate(ctx, tx, firstID, chatID)
	if err != nil {
		return nil, nil, err
	}
	second, err := getForUpdate(ctx, tx, secondID, chatID)
	if err != nil {
		return nil, nil, err
	}

	a, b := first, second
	if a.UserID != userA {
		a, b = second, first
	}

	entries, err := fn(tx, a, b)
	if err != nil {
		return nil, nil, err
	}

	if err := writeBack(ctx, tx, a); err != nil {
		return nil, nil, err
	}
	if err := writeBack(ctx, tx, b); err != nil {
		return nil, nil, err
	}
	if err := insertHistory(ctx, tx, entries); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit pair mutation: %w", err)
	}
	return a, b, nil
}

// Leaderboard retrieves the top N accounts of one chat by rating.
func (r *AccountRepository) Leaderboard(ctx context.Context, chatID int64, limit int) ([]*model.LeaderboardEntry, error) {
	const query = `
		SELECT user_id, chat_id, username, rating, stars, title
		FROM accounts
		WHERE chat_id = $1
		ORDER BY rating DESC
		LIMIT $2
	`
	return r.queryLeaderboard(ctx, query, chatID, limit)
}

// GlobalLeaderboard retrieves the top N accounts across all chats.
func (r *AccountRepository) GlobalLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	const query = `
		SELECT user_id, chat_id, username, rating, stars, title
		FROM accounts
		ORDER BY rating DESC
		LIMIT $1
	`
	return r.queryLeaderboard(ctx, query, limit)
}

func (r *AccountRepository) queryLeaderboard(ctx context.Context, query string, args ...any) ([]*model.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.ChatID, &e.Username, &e.Rating, &e.Stars, &e.Title); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}
	return entries, nil
}

// AutoClickers lists account keys with a positive auto-click level,
// used by the accrual job.
func (r *AccountRepository) AutoClickers(ctx context.Context) ([][2]int64, error) {
	const query = `SELECT user_id, chat_id FROM accounts WHERE auto_click_level > 0`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query auto clickers: %w", err)
	}
	defer rows.Close()

	var keys [][2]int64
	for rows.Next() {
		var userID, chatID int64
		if err := rows.Scan(&userID, &chatID); err != nil {
			return nil, fmt.Errorf("failed to scan auto clicker: %w", err)
		}
		keys = append(keys, [2]int64{userID, chatID})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auto clickers: %w", err)
	}
	return keys, nil
}
