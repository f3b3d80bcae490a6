// Package duel implements the duel resolution engine: a pairwise
// stake-transfer algorithm with shield mitigation.
package duel

import (
	"errors"
	"math"
	"time"

	"rating-arena/internal/game"
	"rating-arena/internal/model"
)

// Defaults mirror the production configuration.
const (
	// DefaultRollMax bounds the combat roll: score = rating + uniform[0, RollMax].
	DefaultRollMax = 20

	// DefaultStakePercent of the loser's rating changes hands, floor 1.
	DefaultStakePercent = 0.10
)

// Duel errors.
var (
	ErrInvalidBattleState = errors.New("battle is not pending")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrSelfDuel           = errors.New("cannot duel yourself")
)

// Config holds duel tunables.
type Config struct {
	RollMax      int
	StakePercent float64
}

// DefaultConfig returns the canonical duel configuration.
func DefaultConfig() Config {
	return Config{RollMax: DefaultRollMax, StakePercent: DefaultStakePercent}
}

// Outcome describes one resolved duel.
type Outcome struct {
	WinnerID        int64
	LoserID         int64
	Stolen          int64
	ShieldBlocked   bool
	ChallengerScore int64
	TargetScore     int64
}

// Stake returns the amount transferred from a loser with the given
// rating: max(1, floor(rating * pct)).
func Stake(loserRating int64, pct float64) int64 {
	stake := int64(math.Floor(float64(loserRating) * pct))
	if stake < 1 {
		stake = 1
	}
	return stake
}

// Resolve computes the duel outcome and applies the stake transfer to
// the two account snapshots in place. Each side's combat score is its
// rating plus a uniform roll in [0, RollMax]; ties go to the
// challenger. If the loser's shield is active the outcome is recorded
// with ShieldBlocked set and no rating moves. Otherwise the winner
// gains the stake and the loser drops by it, clamped at 0.
func Resolve(challenger, target *model.Account, now time.Time, rng game.Rand, cfg Config) Outcome {
	scoreC := challenger.Rating + int64(rng.Intn(cfg.RollMax+1))
	scoreT := target.Rating + int64(rng.Intn(cfg.RollMax+1))

	winner, loser := challenger, target
	if scoreC < scoreT {
		winner, loser = target, challenger
	}

	out := Outcome{
		WinnerID:        winner.UserID,
		LoserID:         loser.UserID,
		ChallengerScore: scoreC,
		TargetScore:     scoreT,
	}

	if loser.ShieldActive(now) {
		out.ShieldBlocked = true
		return out
	}

	stake := Stake(loser.Rating, cfg.StakePercent)
	winner.Rating += stake
	loser.Rating -= stake
	if loser.Rating < 0 {
		loser.Rating = 0
	}
	out.Stolen = stake
	return out
}
