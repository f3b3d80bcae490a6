package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"rating-arena/internal/model"
)

// AchievementRepository handles achievement persistence.
type AchievementRepository struct {
	pool *pgxpool.Pool
}

// NewAchievementRepository creates a new AchievementRepository instance.
func NewAchievementRepository(pool *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{pool: pool}
}

// Grant awards an achievement once per (user, chat, name). Returns
// true when the achievement was newly granted.
func (r *AchievementRepository) Grant(ctx context.Context, userID, chatID int64, name string) (bool, error) {
	const query = `
		INSERT INTO achievements (user_id, chat_id, name, achieved_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, chat_id, name) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query, userID, chatID, name)
	if err != nil {
		return false, fmt.Errorf("failed to grant achievement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns an account's achievements, oldest first.
func (r *AchievementRepository) List(ctx context.Context, userID, chatID int64) ([]*model.Achievement, error) {
	const query = `
		SELECT id, user_id, chat_id, name, achieved_at
		FROM achievements
		WHERE user_id = $1 AND chat_id = $2
		ORDER BY achieved_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var achievements []*model.Achievement
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.ChatID, &a.Name, &a.AchievedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating achievements: %w", err)
	}
	return achievements, nil
}
