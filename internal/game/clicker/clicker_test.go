package clicker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"rating-arena/internal/model"
)

func TestClick(t *testing.T) {
	acc := &model.Account{Rating: 10, ClickPower: 3}

	gained := Click(acc)

	assert.Equal(t, int64(3), gained)
	assert.Equal(t, int64(13), acc.Rating)
	assert.Equal(t, int64(1), acc.TotalClicks)
}

func TestUpgradeCost(t *testing.T) {
	tests := []struct {
		name     string
		acc      model.Account
		track    string
		expected int64
	}{
		{"first click power tier", model.Account{ClickPower: 1}, UpgradeClickPower, 4},
		{"later click power tier", model.Account{ClickPower: 5}, UpgradeClickPower, 36},
		{"first auto click tier", model.Account{AutoClickLevel: 0}, UpgradeAutoClick, 5},
		{"later auto click tier", model.Account{AutoClickLevel: 3}, UpgradeAutoClick, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, err := UpgradeCost(&tt.acc, tt.track, DefaultAutoClickCostStep)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cost)
		})
	}
}

func TestUpgradeCost_UnknownTrack(t *testing.T) {
	_, err := UpgradeCost(&model.Account{}, "warp_drive", DefaultAutoClickCostStep)
	assert.ErrorIs(t, err, ErrUnknownUpgradeType)
}

func TestUpgrade(t *testing.T) {
	acc := &model.Account{Stars: 10, ClickPower: 1}

	cost, err := Upgrade(acc, UpgradeClickPower, DefaultAutoClickCostStep)
	require.NoError(t, err)

	assert.Equal(t, int64(4), cost)
	assert.Equal(t, int64(6), acc.Stars)
	assert.Equal(t, int64(2), acc.ClickPower)
}

func TestUpgrade_InsufficientStarsLeavesAccountUntouched(t *testing.T) {
	acc := &model.Account{Stars: 3, ClickPower: 1}

	_, err := Upgrade(acc, UpgradeClickPower, DefaultAutoClickCostStep)

	var insufficient *InsufficientStarsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(4), insufficient.Required)
	assert.Equal(t, int64(3), insufficient.Available)
	assert.Equal(t, int64(3), acc.Stars)
	assert.Equal(t, int64(1), acc.ClickPower)
}

func TestAutoAccrue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no level accrues nothing", func(t *testing.T) {
		last := now.Add(-time.Hour)
		acc := &model.Account{Rating: 100, LastAutoTick: &last}
		assert.Equal(t, int64(0), AutoAccrue(acc, now))
		assert.Equal(t, int64(100), acc.Rating)
	})

	t.Run("first accrual only stamps the tick", func(t *testing.T) {
		acc := &model.Account{Rating: 100, AutoClickLevel: 2}
		assert.Equal(t, int64(0), AutoAccrue(acc, now))
		require.NotNil(t, acc.LastAutoTick)
		assert.Equal(t, now, *acc.LastAutoTick)
	})

	t.Run("whole minutes credited", func(t *testing.T) {
		last := now.Add(-10 * time.Minute)
		acc := &model.Account{Rating: 100, AutoClickLevel: 3, LastAutoTick: &last}

		assert.Equal(t, int64(30), AutoAccrue(acc, now))
		assert.Equal(t, int64(130), acc.Rating)
		assert.Equal(t, now, *acc.LastAutoTick)
	})

	t.Run("partial minute carries over", func(t *testing.T) {
		last := now.Add(-90 * time.Second)
		acc := &model.Account{Rating: 100, AutoClickLevel: 1, LastAutoTick: &last}

		assert.Equal(t, int64(1), AutoAccrue(acc, now))
		// The leftover 30 seconds stay pending
		assert.Equal(t, last.Add(time.Minute), *acc.LastAutoTick)

		assert.Equal(t, int64(0), AutoAccrue(acc, now))
		assert.Equal(t, int64(1), AutoAccrue(acc, now.Add(30*time.Second)))
	})
}

// Property: upgrade costs strictly increase along each track, and a
// successful purchase is exactly affordable.
func TestUpgradeCostMonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		track := rapid.SampledFrom([]string{UpgradeClickPower, UpgradeAutoClick}).Draw(t, "track")
		acc := &model.Account{
			Stars:          rapid.Int64Range(0, 1_000_000).Draw(t, "stars"),
			ClickPower:     rapid.Int64Range(1, 100).Draw(t, "power"),
			AutoClickLevel: rapid.IntRange(0, 100).Draw(t, "level"),
		}

		before, err := UpgradeCost(acc, track, DefaultAutoClickCostStep)
		require.NoError(t, err)

		starsBefore := acc.Stars
		cost, err := Upgrade(acc, track, DefaultAutoClickCostStep)
		if err != nil {
			var insufficient *InsufficientStarsError
			require.ErrorAs(t, err, &insufficient)
			assert.Less(t, starsBefore, before)
			return
		}

		assert.Equal(t, before, cost)
		assert.Equal(t, starsBefore-cost, acc.Stars)

		after, err := UpgradeCost(acc, track, DefaultAutoClickCostStep)
		require.NoError(t, err)
		assert.Greater(t, after, before)
	})
}
