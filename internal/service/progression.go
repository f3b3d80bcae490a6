package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"rating-arena/internal/game/clicker"
	"rating-arena/internal/model"
	"rating-arena/internal/pkg/lock"
	"rating-arena/internal/repository"
)

// ProgressionService runs the clicker economy: manual clicks, star
// upgrades, and passive auto-click accrual.
type ProgressionService struct {
	accounts *repository.AccountRepository
	locks    *lock.AccountLock
	autoStep int64
}

// NewProgressionService creates a new ProgressionService instance.
func NewProgressionService(accounts *repository.AccountRepository, locks *lock.AccountLock, autoStep int64) *ProgressionService {
	return &ProgressionService{accounts: accounts, locks: locks, autoStep: autoStep}
}

// Click applies one manual click and returns the updated account and
// the rating gained. Clicks are frequent and are not journaled. A
// never-seen caller is registered with defaults first.
func (s *ProgressionService) Click(ctx context.Context, userID, chatID int64, username string) (*model.Account, int64, error) {
	var gained int64
	var acc *model.Account
	err := s.locks.WithLock(lock.Key{UserID: userID, ChatID: chatID}, func() error {
		var err error
		acc, err = s.accounts.MutateEnsure(ctx, userID, chatID, username, func(a *model.Account) ([]model.HistoryEntry, error) {
			gained = clicker.Click(a)
			return nil, nil
		})
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return acc, gained, nil
}

// UpgradeCost quotes the star price of the next tier on a track.
func (s *ProgressionService) UpgradeCost(acc *model.Account, track string) (int64, error) {
	return clicker.UpgradeCost(acc, track, s.autoStep)
}

// Upgrade purchases the next tier on a track, spending stars.
func (s *ProgressionService) Upgrade(ctx context.Context, userID, chatID int64, username, track string) (*model.Account, int64, error) {
	var cost int64
	var acc *model.Account
	err := s.locks.WithLock(lock.Key{UserID: userID, ChatID: chatID}, func() error {
		var err error
		acc, err = s.accounts.MutateEnsure(ctx, userID, chatID, username, func(a *model.Account) ([]model.HistoryEntry, error) {
			c, err := clicker.Upgrade(a, track, s.autoStep)
			if err != nil {
				return nil, err
			}
			cost = c
			return []model.HistoryEntry{{
				Type:    model.HistoryUpgrade,
				Delta:   -cost,
				Details: track,
			}}, nil
		})
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	log.Info().
		Int64("user_id", userID).
		Int64("chat_id", chatID).
		Str("track", track).
		Int64("cost", cost).
		Msg("upgrade purchased")
	return acc, cost, nil
}

// Accrue credits one account's pending auto-click income.
func (s *ProgressionService) Accrue(ctx context.Context, userID, chatID int64) (int64, error) {
	var credited int64
	err := s.locks.WithLock(lock.Key{UserID: userID, ChatID: chatID}, func() error {
		_, err := s.accounts.Mutate(ctx, userID, chatID, func(a *model.Account) ([]model.HistoryEntry, error) {
			credited = clicker.AutoAccrue(a, timeNow())
			if credited == 0 {
				return nil, nil
			}
			return []model.HistoryEntry{{
				Type:  model.HistoryAutoClick,
				Delta: credited,
			}}, nil
		})
		return err
	})
	return credited, err
}

// AccrueAll sweeps every account with an auto-click level. Per-account
// failures are logged and skipped so one bad row cannot stall the job.
func (s *ProgressionService) AccrueAll(ctx context.Context) error {
	keys, err := s.accounts.AutoClickers(ctx)
	if err != nil {
		return err
	}

	var total int64
	for _, key := range keys {
		credited, err := s.Accrue(ctx, key[0], key[1])
		if err != nil {
			log.Warn().Err(err).
				Int64("user_id", key[0]).
				Int64("chat_id", key[1]).
				Msg("auto-click accrual failed")
			continue
		}
		total += credited
	}

	log.Debug().Int("accounts", len(keys)).Int64("credited", total).Msg("auto-click sweep complete")
	return nil
}
