package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"rating-arena/internal/model"
	"rating-arena/internal/repository"
)

// Crew errors.
var (
	ErrAlreadyInCrew = errors.New("already in a crew")
	ErrNotInCrew     = errors.New("not in a crew")
	ErrBadCrewName   = errors.New("crew name must be 1-32 characters")
)

const maxCrewNameLength = 32

// CrewInfo is a crew together with its member roster.
type CrewInfo struct {
	Crew    *model.Crew
	Members []int64
}

// CrewService manages crew membership within a chat.
type CrewService struct {
	crews *repository.CrewRepository
}

// NewCrewService creates a new CrewService instance.
func NewCrewService(crews *repository.CrewRepository) *CrewService {
	return &CrewService{crews: crews}
}

// Create founds a new crew with the caller as owner and first member.
func (s *CrewService) Create(ctx context.Context, chatID, ownerID int64, name string) (*model.Crew, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxCrewNameLength {
		return nil, ErrBadCrewName
	}

	existing, err := s.crews.GetForUser(ctx, ownerID, chatID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyInCrew
	}

	crew, err := s.crews.Create(ctx, chatID, ownerID, name)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("chat_id", chatID).
		Int64("owner_id", ownerID).
		Str("name", name).
		Msg("crew created")
	return crew, nil
}

// Join adds the caller to an existing crew by name.
func (s *CrewService) Join(ctx context.Context, chatID, userID int64, name string) (*model.Crew, error) {
	existing, err := s.crews.GetForUser(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyInCrew
	}

	crew, err := s.crews.GetByName(ctx, chatID, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if err := s.crews.Join(ctx, crew.ID, userID); err != nil {
		return nil, err
	}
	return crew, nil
}

// Leave removes the caller from their crew.
func (s *CrewService) Leave(ctx context.Context, chatID, userID int64) error {
	existing, err := s.crews.GetForUser(ctx, userID, chatID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotInCrew
	}
	return s.crews.Leave(ctx, userID, chatID)
}

// Info returns the caller's crew and its member roster.
func (s *CrewService) Info(ctx context.Context, chatID, userID int64) (*CrewInfo, error) {
	crew, err := s.crews.GetForUser(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if crew == nil {
		return nil, ErrNotInCrew
	}

	members, err := s.crews.Members(ctx, crew.ID)
	if err != nil {
		return nil, err
	}
	return &CrewInfo{Crew: crew, Members: members}, nil
}
