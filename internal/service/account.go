// Package service implements the business logic layer, wiring the game
// algorithms to transactional persistence under per-account locks.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"rating-arena/internal/game"
	"rating-arena/internal/game/daily"
	"rating-arena/internal/model"
	"rating-arena/internal/pkg/lock"
	"rating-arena/internal/repository"
)

// AchievementStreakWeek is granted on reaching a seven-day claim streak.
const AchievementStreakWeek = "week_streak"

// Profile is the aggregate view served to the web app.
type Profile struct {
	Account        *model.Account
	DailyRemaining time.Duration
	Crew           *model.Crew
}

// AccountService manages account lifecycle and the daily claim.
type AccountService struct {
	accounts     *repository.AccountRepository
	events       *repository.EventRepository
	crews        *repository.CrewRepository
	achievements *repository.AchievementRepository
	locks        *lock.AccountLock
	rng          game.Rand
	cfg          daily.Config
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(
	accounts *repository.AccountRepository,
	events *repository.EventRepository,
	crews *repository.CrewRepository,
	achievements *repository.AchievementRepository,
	locks *lock.AccountLock,
	rng game.Rand,
	cfg daily.Config,
) *AccountService {
	return &AccountService{
		accounts:     accounts,
		events:       events,
		crews:        crews,
		achievements: achievements,
		locks:        locks,
		rng:          rng,
		cfg:          cfg,
	}
}

// EnsureAccount registers the account on first contact and refreshes
// the stored username on every call.
func (s *AccountService) EnsureAccount(ctx context.Context, userID, chatID int64, username string) (*model.Account, error) {
	return s.accounts.GetOrCreate(ctx, userID, chatID, username)
}

// Profile returns the account together with its daily cooldown and crew.
func (s *AccountService) Profile(ctx context.Context, userID, chatID int64) (*Profile, error) {
	acc, err := s.accounts.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	crew, err := s.crews.GetForUser(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Account:        acc,
		DailyRemaining: daily.Remaining(acc.LastDaily, timeNow(), s.cfg.Cooldown),
		Crew:           crew,
	}, nil
}

// ClaimDaily performs one daily claim: cooldown gate, streak update and
// the multiplied rating roll, all in one transaction. The active global
// event scales the roll. A never-seen caller is registered with
// defaults in the same transaction.
func (s *AccountService) ClaimDaily(ctx context.Context, userID, chatID int64, username string) (*daily.Result, error) {
	eventMult := 1.0
	event, err := s.events.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if event != nil {
		eventMult = event.DailyMultiplier
	}

	var res *daily.Result
	err = s.locks.WithLock(lock.Key{UserID: userID, ChatID: chatID}, func() error {
		_, err := s.accounts.MutateEnsure(ctx, userID, chatID, username, func(acc *model.Account) ([]model.HistoryEntry, error) {
			r, err := daily.Claim(acc, eventMult, timeNow(), s.rng, s.cfg)
			if err != nil {
				return nil, err
			}
			res = r
			return []model.HistoryEntry{{
				Type:    model.HistoryDaily,
				Delta:   r.Delta,
				Details: fmt.Sprintf("streak %d, x%.2f", r.Streak, r.Multiplier),
			}}, nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if res.Streak >= 7 {
		grantAchievement(ctx, s.achievements, userID, chatID, AchievementStreakWeek)
	}

	log.Info().
		Int64("user_id", userID).
		Int64("chat_id", chatID).
		Int64("delta", res.Delta).
		Int("streak", res.Streak).
		Msg("daily claimed")
	return res, nil
}
