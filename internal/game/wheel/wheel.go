// Package wheel implements the wheel of fortune reward generator.
// A spin uniformly selects one outcome from a fixed table; the caller
// applies the outcome to the account transactionally.
package wheel

import (
	"time"

	"rating-arena/internal/game"
	"rating-arena/internal/model"
)

// DefaultShieldDuration is how long a won shield protects the account.
const DefaultShieldDuration = 12 * time.Hour

// Outcome is one wheel sector: a display label plus a state delta.
// Zero-valued fields mean "no effect of that kind".
type Outcome struct {
	Label           string
	Rating          int64
	Stars           int64
	PrestigeMult    float64       // multiplicative prestige boost, 0 = none
	DoubleNextDaily bool          // next daily claim counts double
	ShieldFor       time.Duration // shield grant from now, 0 = none
}

// DefaultTable returns the canonical wheel table. Selection over the
// table is uniform.
func DefaultTable(shieldFor time.Duration) []Outcome {
	if shieldFor <= 0 {
		shieldFor = DefaultShieldDuration
	}
	return []Outcome{
		{Label: "+50 rating", Rating: 50},
		{Label: "+100 rating", Rating: 100},
		{Label: "+10 rating", Rating: 10},
		{Label: "+1 star", Stars: 1},
		{Label: "+2 stars", Stars: 2},
		{Label: "x1.1 prestige", PrestigeMult: 1.1},
		{Label: "x2 next daily", DoubleNextDaily: true},
		{Label: "12h shield", ShieldFor: shieldFor},
		{Label: "nothing", Rating: 0},
	}
}

// Spin uniformly selects one outcome from the table.
func Spin(table []Outcome, rng game.Rand) Outcome {
	return table[rng.Intn(len(table))]
}

// Apply mutates the account snapshot with the outcome's effect and
// returns the rating delta for the history entry.
func (o Outcome) Apply(acc *model.Account, now time.Time) int64 {
	acc.Rating += o.Rating
	acc.Stars += o.Stars
	if o.PrestigeMult > 0 {
		acc.PrestigeMultiplier *= o.PrestigeMult
	}
	if o.DoubleNextDaily {
		acc.NextDailyMult = 2.0
	}
	if o.ShieldFor > 0 {
		until := now.Add(o.ShieldFor)
		acc.ShieldUntil = &until
	}
	return o.Rating
}
