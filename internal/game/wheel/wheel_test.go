package wheel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rating-arena/internal/model"
)

type fixedRand struct{ value int }

func (r fixedRand) Intn(n int) int { return r.value % n }

func TestSpin_SelectsFromTable(t *testing.T) {
	table := DefaultTable(0)
	for i := range table {
		got := Spin(table, fixedRand{value: i})
		assert.Equal(t, table[i].Label, got.Label)
	}
}

func TestOutcome_Apply(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		outcome Outcome
		check   func(t *testing.T, acc *model.Account, delta int64)
	}{
		{
			name:    "rating gain",
			outcome: Outcome{Rating: 50},
			check: func(t *testing.T, acc *model.Account, delta int64) {
				assert.Equal(t, int64(150), acc.Rating)
				assert.Equal(t, int64(50), delta)
			},
		},
		{
			name:    "star grant",
			outcome: Outcome{Stars: 2},
			check: func(t *testing.T, acc *model.Account, delta int64) {
				assert.Equal(t, int64(5), acc.Stars)
				assert.Equal(t, int64(100), acc.Rating)
				assert.Equal(t, int64(0), delta)
			},
		},
		{
			name:    "prestige boost",
			outcome: Outcome{PrestigeMult: 1.1},
			check: func(t *testing.T, acc *model.Account, delta int64) {
				assert.InDelta(t, 1.1, acc.PrestigeMultiplier, 1e-9)
			},
		},
		{
			name:    "double next daily",
			outcome: Outcome{DoubleNextDaily: true},
			check: func(t *testing.T, acc *model.Account, delta int64) {
				assert.Equal(t, 2.0, acc.NextDailyMult)
			},
		},
		{
			name:    "shield grant",
			outcome: Outcome{ShieldFor: 12 * time.Hour},
			check: func(t *testing.T, acc *model.Account, delta int64) {
				require.NotNil(t, acc.ShieldUntil)
				assert.Equal(t, now.Add(12*time.Hour), *acc.ShieldUntil)
				assert.True(t, acc.ShieldActive(now.Add(11*time.Hour)))
				assert.False(t, acc.ShieldActive(now.Add(13*time.Hour)))
			},
		},
		{
			name:    "nothing",
			outcome: Outcome{},
			check: func(t *testing.T, acc *model.Account, delta int64) {
				assert.Equal(t, int64(100), acc.Rating)
				assert.Equal(t, int64(0), delta)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &model.Account{
				Rating:             100,
				Stars:              3,
				PrestigeMultiplier: 1.0,
				NextDailyMult:      1.0,
			}
			delta := tt.outcome.Apply(acc, now)
			tt.check(t, acc, delta)
		})
	}
}

func TestDefaultTable_ShieldFallback(t *testing.T) {
	table := DefaultTable(0)

	var shield *Outcome
	for i := range table {
		if table[i].ShieldFor > 0 {
			shield = &table[i]
		}
	}
	require.NotNil(t, shield, "table must carry a shield sector")
	assert.Equal(t, DefaultShieldDuration, shield.ShieldFor)
}
