package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"rating-arena/internal/model"
)

// AdminRepository handles per-chat admin persistence.
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository instance.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// IsAdmin checks whether a user is an admin in a chat.
func (r *AdminRepository) IsAdmin(ctx context.Context, userID, chatID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM admins WHERE user_id = $1 AND chat_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, chatID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	return exists, nil
}

// Grant makes a user an admin of a chat; granting twice refreshes the grantor.
func (r *AdminRepository) Grant(ctx context.Context, chatID, userID, grantedBy int64) error {
	const query = `
		INSERT INTO admins (chat_id, user_id, granted_by, granted_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (chat_id, user_id)
		DO UPDATE SET granted_by = excluded.granted_by, granted_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, chatID, userID, grantedBy); err != nil {
		return fmt.Errorf("failed to grant admin: %w", err)
	}
	return nil
}

// Revoke removes a user's admin status in a chat.
func (r *AdminRepository) Revoke(ctx context.Context, chatID, userID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM admins WHERE chat_id = $1 AND user_id = $2`, chatID, userID); err != nil {
		return fmt.Errorf("failed to revoke admin: %w", err)
	}
	return nil
}

// List returns a chat's admins.
func (r *AdminRepository) List(ctx context.Context, chatID int64) ([]*model.Admin, error) {
	const query = `SELECT chat_id, user_id, granted_by, granted_at FROM admins WHERE chat_id = $1`

	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*model.Admin
	for rows.Next() {
		var a model.Admin
		if err := rows.Scan(&a.ChatID, &a.UserID, &a.GrantedBy, &a.GrantedAt); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admins: %w", err)
	}
	return admins, nil
}
