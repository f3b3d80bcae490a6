package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rating-arena/internal/model"
)

const battleColumns = `id, chat_id, challenger_id, target_id, status,
		winner_id, loser_id, stolen, shield_blocked, created_at`

// BattleRepository handles duel battle persistence.
type BattleRepository struct {
	pool *pgxpool.Pool
}

// NewBattleRepository creates a new BattleRepository instance.
func NewBattleRepository(pool *pgxpool.Pool) *BattleRepository {
	return &BattleRepository{pool: pool}
}

func scanBattle(row rowScanner) (*model.Battle, error) {
	var b model.Battle
	err := row.Scan(
		&b.ID,
		&b.ChatID,
		&b.ChallengerID,
		&b.TargetID,
		&b.Status,
		&b.WinnerID,
		&b.LoserID,
		&b.Stolen,
		&b.ShieldBlocked,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a new pending battle and returns it.
func (r *BattleRepository) Create(ctx context.Context, chatID, challengerID, targetID int64) (*model.Battle, error) {
	query := `
		INSERT INTO battles (chat_id, challenger_id, target_id, status, created_at)
		VALUES ($1, $2, $3, 'pending', NOW())
		RETURNING ` + battleColumns

	b, err := scanBattle(r.pool.QueryRow(ctx, query, chatID, challengerID, targetID))
	if err != nil {
		return nil, fmt.Errorf("failed to create battle: %w", err)
	}
	return b, nil
}

// Get retrieves a battle by its ID. Returns ErrBattleNotFound on miss.
func (r *BattleRepository) Get(ctx context.Context, battleID int64) (*model.Battle, error) {
	query := `SELECT ` + battleColumns + ` FROM battles WHERE id = $1`

	b, err := scanBattle(r.pool.QueryRow(ctx, query, battleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBattleNotFound
		}
		return nil, fmt.Errorf("failed to get battle: %w", err)
	}
	return b, nil
}

// GetForUpdate loads a battle inside a transaction holding its row
// lock, so a battle can leave the pending state exactly once even under
// concurrent resolutions.
func (r *BattleRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, battleID int64) (*model.Battle, error) {
	query := `SELECT ` + battleColumns + ` FROM battles WHERE id = $1 FOR UPDATE`

	b, err := scanBattle(tx.QueryRow(ctx, query, battleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBattleNotFound
		}
		return nil, fmt.Errorf("failed to lock battle: %w", err)
	}
	return b, nil
}

// MarkResolved transitions a battle to resolved with its outcome,
// inside the caller's transaction.
func (r *BattleRepository) MarkResolved(ctx context.Context, tx pgx.Tx, battleID, winnerID, loserID, stolen int64, shieldBlocked bool) error {
	const query = `
		UPDATE battles
		SET status = 'resolved', winner_id = $2, loser_id = $3, stolen = $4, shield_blocked = $5
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, query, battleID, winnerID, loserID, stolen, shieldBlocked); err != nil {
		return fmt.Errorf("failed to resolve battle: %w", err)
	}
	return nil
}

// Decline transitions a pending battle to declined. Returns the number
// of rows changed; 0 means the battle was not pending anymore.
func (r *BattleRepository) Decline(ctx context.Context, battleID int64) (bool, error) {
	const query = `UPDATE battles SET status = 'declined' WHERE id = $1 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, query, battleID)
	if err != nil {
		return false, fmt.Errorf("failed to decline battle: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
