package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"rating-arena/internal/model"
)

// HistoryRepository reads the append-only audit log. Writes happen
// inside account mutations (see AccountRepository) so an entry can
// never exist without its balance change.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository instance.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// GetByAccount retrieves an account's entries, newest first.
func (r *HistoryRepository) GetByAccount(ctx context.Context, userID, chatID int64, limit int) ([]*model.HistoryEntry, error) {
	const query = `
		SELECT id, user_id, chat_id, type, delta, details, created_at
		FROM history
		WHERE user_id = $1 AND chat_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, userID, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []*model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ChatID, &e.Type, &e.Delta, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return entries, nil
}

// GetByAccountAndType retrieves an account's entries of one type, newest first.
func (r *HistoryRepository) GetByAccountAndType(ctx context.Context, userID, chatID int64, entryType string, limit int) ([]*model.HistoryEntry, error) {
	const query = `
		SELECT id, user_id, chat_id, type, delta, details, created_at
		FROM history
		WHERE user_id = $1 AND chat_id = $2 AND type = $3
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query, userID, chatID, entryType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []*model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ChatID, &e.Type, &e.Delta, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return entries, nil
}
