package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"rating-arena/internal/game"
	"rating-arena/internal/game/slot"
	"rating-arena/internal/game/wheel"
	"rating-arena/internal/model"
	"rating-arena/internal/pkg/lock"
	"rating-arena/internal/repository"
)

// AchievementJackpot is granted on a triple top-symbol slot spin.
const AchievementJackpot = "jackpot"

// RewardService runs the free reward generators, the wheel of fortune
// and the slot machine.
type RewardService struct {
	accounts     *repository.AccountRepository
	achievements *repository.AchievementRepository
	locks        *lock.AccountLock
	rng          game.Rand
	wheelTable   []wheel.Outcome
	slotCfg      slot.Config
}

// NewRewardService creates a new RewardService instance.
func NewRewardService(
	accounts *repository.AccountRepository,
	achievements *repository.AchievementRepository,
	locks *lock.AccountLock,
	rng game.Rand,
	wheelTable []wheel.Outcome,
	slotCfg slot.Config,
) *RewardService {
	return &RewardService{
		accounts:     accounts,
		achievements: achievements,
		locks:        locks,
		rng:          rng,
		wheelTable:   wheelTable,
		slotCfg:      slotCfg,
	}
}

// SpinWheel spins the wheel of fortune and applies the won outcome.
// A never-seen caller is registered with defaults first.
func (s *RewardService) SpinWheel(ctx context.Context, userID, chatID int64, username string) (*wheel.Outcome, *model.Account, error) {
	var out wheel.Outcome
	var acc *model.Account
	err := s.locks.WithLock(lock.Key{UserID: userID, ChatID: chatID}, func() error {
		var err error
		acc, err = s.accounts.MutateEnsure(ctx, userID, chatID, username, func(a *model.Account) ([]model.HistoryEntry, error) {
			out = wheel.Spin(s.wheelTable, s.rng)
			delta := out.Apply(a, timeNow())
			return []model.HistoryEntry{{
				Type:    model.HistoryWheel,
				Delta:   delta,
				Details: out.Label,
			}}, nil
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Int64("user_id", userID).
		Int64("chat_id", chatID).
		Str("outcome", out.Label).
		Msg("wheel spun")
	return &out, acc, nil
}

// SpinSlot spins the slot machine. Only winning spins leave a history
// entry; misses change nothing.
func (s *RewardService) SpinSlot(ctx context.Context, userID, chatID int64, username string) (*slot.Result, *model.Account, error) {
	var res slot.Result
	var acc *model.Account
	err := s.locks.WithLock(lock.Key{UserID: userID, ChatID: chatID}, func() error {
		var err error
		acc, err = s.accounts.MutateEnsure(ctx, userID, chatID, username, func(a *model.Account) ([]model.HistoryEntry, error) {
			res = slot.Spin(s.slotCfg, s.rng)
			if res.Payout == 0 {
				return nil, nil
			}
			a.Rating += res.Payout
			return []model.HistoryEntry{{
				Type:    model.HistorySlotWin,
				Delta:   res.Payout,
				Details: strings.Join(res.Reels[:], " "),
			}}, nil
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if res.Payout >= s.slotCfg.JackpotTop {
		grantAchievement(ctx, s.achievements, userID, chatID, AchievementJackpot)
	}

	log.Info().
		Int64("user_id", userID).
		Int64("chat_id", chatID).
		Strs("reels", res.Reels[:]).
		Int64("payout", res.Payout).
		Msg("slot spun")
	return &res, acc, nil
}
