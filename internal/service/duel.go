package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"rating-arena/internal/game"
	"rating-arena/internal/game/duel"
	"rating-arena/internal/model"
	"rating-arena/internal/pkg/lock"
	"rating-arena/internal/repository"
)

// AchievementFirstBlood is granted on an account's first duel win.
const AchievementFirstBlood = "first_blood"

// ErrNotChallenged is returned when someone other than the challenged
// user responds to a battle.
var ErrNotChallenged = errors.New("only the challenged user can respond")

// DuelResult bundles a resolved battle with the updated accounts.
type DuelResult struct {
	Battle     *model.Battle
	Outcome    duel.Outcome
	Challenger *model.Account
	Target     *model.Account
}

// DuelService manages the battle lifecycle: challenge, accept with
// resolution, decline.
type DuelService struct {
	accounts     *repository.AccountRepository
	battles      *repository.BattleRepository
	achievements *repository.AchievementRepository
	locks        *lock.AccountLock
	rng          game.Rand
	cfg          duel.Config
}

// NewDuelService creates a new DuelService instance.
func NewDuelService(
	accounts *repository.AccountRepository,
	battles *repository.BattleRepository,
	achievements *repository.AchievementRepository,
	locks *lock.AccountLock,
	rng game.Rand,
	cfg duel.Config,
) *DuelService {
	return &DuelService{
		accounts:     accounts,
		battles:      battles,
		achievements: achievements,
		locks:        locks,
		rng:          rng,
		cfg:          cfg,
	}
}

// Challenge opens a pending battle between two existing accounts of the
// same chat. Nothing economic happens until the target accepts.
func (s *DuelService) Challenge(ctx context.Context, chatID, challengerID, targetID int64) (*model.Battle, error) {
	if challengerID == targetID {
		return nil, duel.ErrSelfDuel
	}

	for _, id := range []int64{challengerID, targetID} {
		if _, err := s.accounts.Get(ctx, id, chatID); err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return nil, duel.ErrUnknownParticipant
			}
			return nil, err
		}
	}

	b, err := s.battles.Create(ctx, chatID, challengerID, targetID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("battle_id", b.ID).
		Int64("chat_id", chatID).
		Int64("challenger_id", challengerID).
		Int64("target_id", targetID).
		Msg("duel challenge created")
	return b, nil
}

// Accept resolves a pending battle. The battle row is locked together
// with both account rows so it leaves the pending state exactly once;
// a second accept observes the transition and fails cleanly.
func (s *DuelService) Accept(ctx context.Context, battleID, responderID int64) (*DuelResult, error) {
	b, err := s.battles.Get(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if b.TargetID != responderID {
		return nil, ErrNotChallenged
	}
	if b.Status != model.BattlePending {
		return nil, duel.ErrInvalidBattleState
	}

	keyC := lock.Key{UserID: b.ChallengerID, ChatID: b.ChatID}
	keyT := lock.Key{UserID: b.TargetID, ChatID: b.ChatID}

	var out duel.Outcome
	var challenger, target *model.Account
	err = s.locks.WithPairLock(keyC, keyT, func() error {
		var err error
		challenger, target, err = s.accounts.MutatePair(ctx, b.ChatID, b.ChallengerID, b.TargetID,
			func(tx pgx.Tx, ch, tg *model.Account) ([]model.HistoryEntry, error) {
				locked, err := s.battles.GetForUpdate(ctx, tx, battleID)
				if err != nil {
					return nil, err
				}
				if locked.Status != model.BattlePending {
					return nil, duel.ErrInvalidBattleState
				}

				out = duel.Resolve(ch, tg, timeNow(), s.rng, s.cfg)
				if err := s.battles.MarkResolved(ctx, tx, battleID, out.WinnerID, out.LoserID, out.Stolen, out.ShieldBlocked); err != nil {
					return nil, err
				}

				if out.ShieldBlocked {
					return []model.HistoryEntry{{
						UserID:  out.LoserID,
						ChatID:  b.ChatID,
						Type:    model.HistoryDuelShielded,
						Details: fmt.Sprintf("battle %d", battleID),
					}}, nil
				}
				return []model.HistoryEntry{
					{
						UserID:  out.WinnerID,
						ChatID:  b.ChatID,
						Type:    model.HistoryDuelWin,
						Delta:   out.Stolen,
						Details: fmt.Sprintf("battle %d", battleID),
					},
					{
						UserID:  out.LoserID,
						ChatID:  b.ChatID,
						Type:    model.HistoryDuelLoss,
						Delta:   -out.Stolen,
						Details: fmt.Sprintf("battle %d", battleID),
					},
				}, nil
			})
		return err
	})
	if err != nil {
		return nil, err
	}

	if !out.ShieldBlocked {
		grantAchievement(ctx, s.achievements, out.WinnerID, b.ChatID, AchievementFirstBlood)
	}

	resolved, err := s.battles.Get(ctx, battleID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("battle_id", battleID).
		Int64("winner_id", out.WinnerID).
		Int64("loser_id", out.LoserID).
		Int64("stolen", out.Stolen).
		Bool("shield_blocked", out.ShieldBlocked).
		Msg("duel resolved")
	return &DuelResult{
		Battle:     resolved,
		Outcome:    out,
		Challenger: challenger,
		Target:     target,
	}, nil
}

// Decline rejects a pending battle without economic effect.
func (s *DuelService) Decline(ctx context.Context, battleID, responderID int64) (*model.Battle, error) {
	b, err := s.battles.Get(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if b.TargetID != responderID {
		return nil, ErrNotChallenged
	}

	declined, err := s.battles.Decline(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if !declined {
		return nil, duel.ErrInvalidBattleState
	}

	log.Info().Int64("battle_id", battleID).Msg("duel declined")
	return s.battles.Get(ctx, battleID)
}
