// Package slot implements the slot machine reward generator.
// Three independent uniform reels over a five-symbol alphabet; payouts
// are configuration constants, not derived.
package slot

import (
	"rating-arena/internal/game"
)

// Symbols is the reel alphabet. TopSymbol pays the top jackpot tier.
var Symbols = []string{"🍒", "🍋", "🔔", "⭐", "7️⃣"}

// TopSymbol is the designated jackpot symbol.
const TopSymbol = "7️⃣"

// Default payout constants.
const (
	DefaultJackpotTop = 500 // three top symbols
	DefaultJackpot    = 100 // three of any other symbol
	DefaultPairPayout = 20  // exactly two equal symbols
)

// Config holds the payout table.
type Config struct {
	JackpotTop int64
	Jackpot    int64
	PairPayout int64
}

// DefaultConfig returns the canonical payout table.
func DefaultConfig() Config {
	return Config{
		JackpotTop: DefaultJackpotTop,
		Jackpot:    DefaultJackpot,
		PairPayout: DefaultPairPayout,
	}
}

// Result is one spin: the three reels and the resulting payout.
type Result struct {
	Reels  [3]string
	Payout int64
}

// Spin draws three independent uniform symbols and scores them.
func Spin(cfg Config, rng game.Rand) Result {
	var reels [3]string
	for i := range reels {
		reels[i] = Symbols[rng.Intn(len(Symbols))]
	}
	return Result{Reels: reels, Payout: Payout(reels, cfg)}
}

// Payout scores a reel triple: all equal pays the jackpot (top tier for
// the designated symbol), exactly two equal pays the pair amount, all
// distinct pays zero.
func Payout(reels [3]string, cfg Config) int64 {
	if reels[0] == reels[1] && reels[1] == reels[2] {
		if reels[0] == TopSymbol {
			return cfg.JackpotTop
		}
		return cfg.Jackpot
	}
	if reels[0] == reels[1] || reels[1] == reels[2] || reels[0] == reels[2] {
		return cfg.PairPayout
	}
	return 0
}
