package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rating-arena/internal/model"
)

// EventRepository handles global event persistence.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new EventRepository instance.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// GetActive returns the most recently started active event, or nil
// when no event is running.
func (r *EventRepository) GetActive(ctx context.Context) (*model.Event, error) {
	const query = `
		SELECT id, name, daily_multiplier, active, started_at
		FROM events
		WHERE active = TRUE
		ORDER BY started_at DESC
		LIMIT 1
	`

	var e model.Event
	err := r.pool.QueryRow(ctx, query).Scan(&e.ID, &e.Name, &e.DailyMultiplier, &e.Active, &e.StartedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active event: %w", err)
	}
	return &e, nil
}

// Start deactivates any running event and starts a new one.
func (r *EventRepository) Start(ctx context.Context, name string, dailyMultiplier float64) (*model.Event, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE events SET active = FALSE WHERE active = TRUE`); err != nil {
		return nil, fmt.Errorf("failed to stop running events: %w", err)
	}

	const query = `
		INSERT INTO events (name, daily_multiplier, active, started_at)
		VALUES ($1, $2, TRUE, NOW())
		RETURNING id, name, daily_multiplier, active, started_at
	`
	var e model.Event
	err = tx.QueryRow(ctx, query, name, dailyMultiplier).Scan(&e.ID, &e.Name, &e.DailyMultiplier, &e.Active, &e.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to start event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit event: %w", err)
	}
	return &e, nil
}

// Stop deactivates all running events.
func (r *EventRepository) Stop(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `UPDATE events SET active = FALSE WHERE active = TRUE`); err != nil {
		return fmt.Errorf("failed to stop events: %w", err)
	}
	return nil
}
