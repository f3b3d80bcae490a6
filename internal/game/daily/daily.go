// Package daily implements the daily claim state machine: a 24-hour
// cooldown gate plus a consecutive-day streak counter.
package daily

import (
	"fmt"
	"math"
	"time"

	"rating-arena/internal/game"
	"rating-arena/internal/model"
)

// Defaults mirror the production configuration.
const (
	DefaultCooldown = 24 * time.Hour

	// Base roll range, inclusive on both ends.
	DefaultBaseMin = -10
	DefaultBaseMax = 10

	// A claim continues the streak when the gap since the previous
	// claim falls inside [DefaultStreakGrace, DefaultStreakMax].
	DefaultStreakGrace = 20 * time.Hour
	DefaultStreakMax   = 48 * time.Hour
)

// Config holds daily claim tunables.
type Config struct {
	Cooldown    time.Duration
	BaseMin     int
	BaseMax     int
	StreakGrace time.Duration
	StreakMax   time.Duration
}

// DefaultConfig returns the canonical daily claim configuration.
func DefaultConfig() Config {
	return Config{
		Cooldown:    DefaultCooldown,
		BaseMin:     DefaultBaseMin,
		BaseMax:     DefaultBaseMax,
		StreakGrace: DefaultStreakGrace,
		StreakMax:   DefaultStreakMax,
	}
}

// AlreadyClaimedError is returned when the cooldown is still active.
// Remaining carries the time left for client display.
type AlreadyClaimedError struct {
	Remaining time.Duration
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("daily already claimed, next in %ds", int(e.Remaining.Seconds()))
}

// Result describes a successful claim.
type Result struct {
	Delta      int64
	NewRating  int64
	Streak     int
	Multiplier float64
}

// Remaining returns the cooldown left before the next claim, floored at 0.
func Remaining(lastDaily *time.Time, now time.Time, cooldown time.Duration) time.Duration {
	if lastDaily == nil {
		return 0
	}
	left := cooldown - now.Sub(*lastDaily)
	if left < 0 {
		return 0
	}
	return left
}

// Claim applies one daily claim to the account snapshot in place.
// The base roll is uniform in [BaseMin, BaseMax], scaled by the
// account's prestige multiplier, its one-shot next-daily multiplier and
// the active global event multiplier, rounded to the nearest integer.
// Rating is clamped at 0. A claim while on cooldown returns
// *AlreadyClaimedError and mutates nothing.
func Claim(acc *model.Account, eventMult float64, now time.Time, rng game.Rand, cfg Config) (*Result, error) {
	if left := Remaining(acc.LastDaily, now, cfg.Cooldown); left > 0 {
		return nil, &AlreadyClaimedError{Remaining: left}
	}

	if eventMult <= 0 {
		eventMult = 1.0
	}
	mult := acc.PrestigeMultiplier * acc.NextDailyMult * eventMult

	base := cfg.BaseMin + rng.Intn(cfg.BaseMax-cfg.BaseMin+1)
	delta := int64(math.Round(float64(base) * mult))

	newRating := acc.Rating + delta
	if newRating < 0 {
		newRating = 0
	}

	acc.DailyStreak = nextStreak(acc, now, cfg)
	acc.Rating = newRating
	acc.NextDailyMult = 1.0
	claimed := now
	acc.LastDaily = &claimed

	return &Result{
		Delta:      delta,
		NewRating:  newRating,
		Streak:     acc.DailyStreak,
		Multiplier: mult,
	}, nil
}

// nextStreak continues the streak only when the gap since the previous
// claim falls inside the grace window; everything else resets to 1.
func nextStreak(acc *model.Account, now time.Time, cfg Config) int {
	if acc.LastDaily == nil {
		return 1
	}
	gap := now.Sub(*acc.LastDaily)
	if gap >= cfg.StreakGrace && gap <= cfg.StreakMax {
		return acc.DailyStreak + 1
	}
	return 1
}
