package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"rating-arena/internal/model"
)

// seqRand returns a fixed sequence of rolls.
type seqRand struct {
	values []int
	pos    int
}

func (r *seqRand) Intn(n int) int {
	v := r.values[r.pos%len(r.values)]
	r.pos++
	return v % n
}

func TestRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		lastDaily *time.Time
		expected  time.Duration
	}{
		{"never claimed", nil, 0},
		{"claimed just now", &now, 24 * time.Hour},
		{"claimed 10h ago", timePtr(now.Add(-10 * time.Hour)), 14 * time.Hour},
		{"claimed exactly 24h ago", timePtr(now.Add(-24 * time.Hour)), 0},
		{"claimed 30h ago", timePtr(now.Add(-30 * time.Hour)), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Remaining(tt.lastDaily, now, DefaultCooldown))
		})
	}
}

func TestClaim_CooldownRejectsWithoutMutation(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-3 * time.Hour)
	acc := &model.Account{
		Rating:             100,
		DailyStreak:        4,
		LastDaily:          &last,
		PrestigeMultiplier: 1.5,
		NextDailyMult:      2.0,
	}

	res, err := Claim(acc, 1.0, now, &seqRand{values: []int{0}}, DefaultConfig())
	require.Error(t, err)
	assert.Nil(t, res)

	var claimed *AlreadyClaimedError
	require.ErrorAs(t, err, &claimed)
	assert.Equal(t, 21*time.Hour, claimed.Remaining)

	// Nothing changed
	assert.Equal(t, int64(100), acc.Rating)
	assert.Equal(t, 4, acc.DailyStreak)
	assert.Equal(t, 2.0, acc.NextDailyMult)
	assert.Equal(t, last, *acc.LastDaily)
}

func TestClaim_MultipliersAndReset(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acc := &model.Account{
		Rating:             100,
		PrestigeMultiplier: 2.0,
		NextDailyMult:      2.0,
	}

	// Intn(21) == 20 yields base roll +10
	res, err := Claim(acc, 1.5, now, &seqRand{values: []int{20}}, DefaultConfig())
	require.NoError(t, err)

	// 10 * 2.0 * 2.0 * 1.5 = 60
	assert.Equal(t, int64(60), res.Delta)
	assert.Equal(t, int64(160), res.NewRating)
	assert.Equal(t, int64(160), acc.Rating)
	assert.Equal(t, 1.0, acc.NextDailyMult, "one-shot multiplier consumed")
	require.NotNil(t, acc.LastDaily)
	assert.Equal(t, now, *acc.LastDaily)
}

func TestClaim_NegativeRollClampsAtZero(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acc := &model.Account{Rating: 5, PrestigeMultiplier: 1.0, NextDailyMult: 1.0}

	// Intn(21) == 0 yields base roll -10
	res, err := Claim(acc, 1.0, now, &seqRand{values: []int{0}}, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, int64(-10), res.Delta)
	assert.Equal(t, int64(0), res.NewRating)
	assert.Equal(t, int64(0), acc.Rating)
}

func TestClaim_Streak(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		gap      time.Duration
		prev     int
		expected int
	}{
		{"continues at lower bound", 24 * time.Hour, 3, 4},
		{"continues at upper bound", 48 * time.Hour, 3, 4},
		{"continues mid window", 30 * time.Hour, 1, 2},
		{"resets past window", 49 * time.Hour, 7, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := now.Add(-tt.gap)
			acc := &model.Account{
				Rating:             100,
				DailyStreak:        tt.prev,
				LastDaily:          &last,
				PrestigeMultiplier: 1.0,
				NextDailyMult:      1.0,
			}

			res, err := Claim(acc, 1.0, now, &seqRand{values: []int{10}}, DefaultConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res.Streak)
		})
	}
}

func TestClaim_FirstClaimStartsStreak(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acc := &model.Account{Rating: 100, PrestigeMultiplier: 1.0, NextDailyMult: 1.0}

	res, err := Claim(acc, 1.0, now, &seqRand{values: []int{10}}, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak)
}

// Property: a claim either fails on cooldown leaving the account
// untouched, or succeeds with rating >= 0, last_daily advanced to now
// and the one-shot multiplier reset.
func TestClaimProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := time.Unix(rapid.Int64Range(1_600_000_000, 1_900_000_000).Draw(t, "now"), 0)
		rating := rapid.Int64Range(0, 10_000).Draw(t, "rating")
		streak := rapid.IntRange(0, 100).Draw(t, "streak")

		var last *time.Time
		if rapid.Bool().Draw(t, "hasLast") {
			gap := time.Duration(rapid.Int64Range(0, 72*3600).Draw(t, "gapSeconds")) * time.Second
			lv := now.Add(-gap)
			last = &lv
		}

		acc := &model.Account{
			Rating:             rating,
			DailyStreak:        streak,
			LastDaily:          last,
			PrestigeMultiplier: 1.0,
			NextDailyMult:      1.0,
		}

		rng := &seqRand{values: []int{rapid.IntRange(0, 20).Draw(t, "roll")}}
		res, err := Claim(acc, 1.0, now, rng, DefaultConfig())

		if err != nil {
			var claimed *AlreadyClaimedError
			require.ErrorAs(t, err, &claimed)
			assert.Greater(t, claimed.Remaining, time.Duration(0))
			assert.Equal(t, rating, acc.Rating)
			assert.Equal(t, streak, acc.DailyStreak)
			return
		}

		assert.GreaterOrEqual(t, acc.Rating, int64(0))
		assert.Equal(t, acc.Rating, res.NewRating)
		assert.Equal(t, 1.0, acc.NextDailyMult)
		require.NotNil(t, acc.LastDaily)
		assert.Equal(t, now, *acc.LastDaily)
		assert.GreaterOrEqual(t, res.Streak, 1)
		assert.LessOrEqual(t, res.Streak, streak+1)
	})
}

func timePtr(t time.Time) *time.Time {
	return &t
}
