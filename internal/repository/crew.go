package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rating-arena/internal/model"
)

// Crew errors.
var (
	ErrCrewNotFound = errors.New("crew not found")
	ErrCrewExists   = errors.New("crew already exists")
)

// CrewRepository handles crew persistence.
type CrewRepository struct {
	pool *pgxpool.Pool
}

// NewCrewRepository creates a new CrewRepository instance.
func NewCrewRepository(pool *pgxpool.Pool) *CrewRepository {
	return &CrewRepository{pool: pool}
}

// Create creates a crew and enrolls the owner as its first member.
func (r *CrewRepository) Create(ctx context.Context, chatID, ownerID int64, name string) (*model.Crew, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO crews (chat_id, name, owner_user_id, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, chat_id, name, owner_user_id, created_at
	`
	var c model.Crew
	err = tx.QueryRow(ctx, query, chatID, name, ownerID).Scan(&c.ID, &c.ChatID, &c.Name, &c.OwnerUserID, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrCrewExists
		}
		return nil, fmt.Errorf("failed to create crew: %w", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO crew_members (crew_id, user_id) VALUES ($1, $2)`, c.ID, ownerID); err != nil {
		return nil, fmt.Errorf("failed to enroll owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit crew: %w", err)
	}
	return &c, nil
}

// GetByName retrieves a chat's crew by name.
func (r *CrewRepository) GetByName(ctx context.Context, chatID int64, name string) (*model.Crew, error) {
	const query = `
		SELECT id, chat_id, name, owner_user_id, created_at
		FROM crews
		WHERE chat_id = $1 AND name = $2
	`
	var c model.Crew
	err := r.pool.QueryRow(ctx, query, chatID, name).Scan(&c.ID, &c.ChatID, &c.Name, &c.OwnerUserID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCrewNotFound
		}
		return nil, fmt.Errorf("failed to get crew: %w", err)
	}
	return &c, nil
}

// GetForUser retrieves the crew a user belongs to in a chat, or nil.
func (r *CrewRepository) GetForUser(ctx context.Context, userID, chatID int64) (*model.Crew, error) {
	const query = `
		SELECT c.id, c.chat_id, c.name, c.owner_user_id, c.created_at
		FROM crews c
		JOIN crew_members m ON m.crew_id = c.id
		WHERE m.user_id = $1 AND c.chat_id = $2
	`
	var c model.Crew
	err := r.pool.QueryRow(ctx, query, userID, chatID).Scan(&c.ID, &c.ChatID, &c.Name, &c.OwnerUserID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user crew: %w", err)
	}
	return &c, nil
}

// Join adds a user to a crew; joining twice is a no-op.
func (r *CrewRepository) Join(ctx context.Context, crewID, userID int64) error {
	const query = `INSERT INTO crew_members (crew_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.pool.Exec(ctx, query, crewID, userID); err != nil {
		return fmt.Errorf("failed to join crew: %w", err)
	}
	return nil
}

// Leave removes a user from their crew in a chat.
func (r *CrewRepository) Leave(ctx context.Context, userID, chatID int64) error {
	const query = `
		DELETE FROM crew_members
		WHERE user_id = $1 AND crew_id IN (SELECT id FROM crews WHERE chat_id = $2)
	`
	if _, err := r.pool.Exec(ctx, query, userID, chatID); err != nil {
		return fmt.Errorf("failed to leave crew: %w", err)
	}
	return nil
}

// Members lists the user IDs of a crew.
func (r *CrewRepository) Members(ctx context.Context, crewID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM crew_members WHERE crew_id = $1`, crewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list crew members: %w", err)
	}
	defer rows.Close()

	var members []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan crew member: %w", err)
		}
		members = append(members, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crew members: %w", err)
	}
	return members, nil
}
