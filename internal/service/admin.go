package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"rating-arena/internal/model"
	"rating-arena/internal/repository"
)

// ErrNotAdmin is returned when a privileged operation is attempted by a
// non-admin.
var ErrNotAdmin = errors.New("admin privileges required")

// AdminService handles privileged operations: admin grants and global
// event control.
type AdminService struct {
	admins *repository.AdminRepository
	events *repository.EventRepository
}

// NewAdminService creates a new AdminService instance.
func NewAdminService(admins *repository.AdminRepository, events *repository.EventRepository) *AdminService {
	return &AdminService{admins: admins, events: events}
}

// IsAdmin reports whether the user holds admin rights in the chat.
func (s *AdminService) IsAdmin(ctx context.Context, userID, chatID int64) (bool, error) {
	return s.admins.IsAdmin(ctx, userID, chatID)
}

func (s *AdminService) requireAdmin(ctx context.Context, userID, chatID int64) error {
	ok, err := s.admins.IsAdmin(ctx, userID, chatID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAdmin
	}
	return nil
}

// GrantAdmin makes a user an admin of the chat. The very first grant in
// a chat bootstraps itself; after that only admins can grant.
func (s *AdminService) GrantAdmin(ctx context.Context, chatID, callerID, userID int64) error {
	existing, err := s.admins.List(ctx, chatID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		if err := s.requireAdmin(ctx, callerID, chatID); err != nil {
			return err
		}
	}

	if err := s.admins.Grant(ctx, chatID, userID, callerID); err != nil {
		return err
	}
	log.Info().
		Int64("chat_id", chatID).
		Int64("user_id", userID).
		Int64("granted_by", callerID).
		Msg("admin granted")
	return nil
}

// RevokeAdmin removes a user's admin rights in the chat.
func (s *AdminService) RevokeAdmin(ctx context.Context, chatID, callerID, userID int64) error {
	if err := s.requireAdmin(ctx, callerID, chatID); err != nil {
		return err
	}
	return s.admins.Revoke(ctx, chatID, userID)
}

// ActiveEvent returns the running global event, or nil.
func (s *AdminService) ActiveEvent(ctx context.Context) (*model.Event, error) {
	return s.events.GetActive(ctx)
}

// StartEvent starts a global event scaling daily claims, replacing any
// running one.
func (s *AdminService) StartEvent(ctx context.Context, chatID, callerID int64, name string, dailyMultiplier float64) (*model.Event, error) {
	if err := s.requireAdmin(ctx, callerID, chatID); err != nil {
		return nil, err
	}
	if dailyMultiplier <= 0 {
		return nil, ErrInvalidAmount
	}

	event, err := s.events.Start(ctx, name, dailyMultiplier)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("name", name).
		Float64("daily_multiplier", dailyMultiplier).
		Msg("event started")
	return event, nil
}

// StopEvent stops any running global event.
func (s *AdminService) StopEvent(ctx context.Context, chatID, callerID int64) error {
	if err := s.requireAdmin(ctx, callerID, chatID); err != nil {
		return err
	}
	if err := s.events.Stop(ctx); err != nil {
		return err
	}
	log.Info().Msg("events stopped")
	return nil
}
