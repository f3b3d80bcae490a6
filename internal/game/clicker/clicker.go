// Package clicker implements the incremental progression economy:
// clicks that convert click power into rating, and star-priced upgrades.
package clicker

import (
	"errors"
	"fmt"
	"time"

	"rating-arena/internal/model"
)

// Upgrade tracks.
const (
	UpgradeClickPower = "click_power"
	UpgradeAutoClick  = "auto_click"
)

// DefaultAutoClickCostStep is the per-level price step of the auto-click track.
const DefaultAutoClickCostStep = 5

// ErrUnknownUpgradeType is returned for an unrecognized upgrade track.
var ErrUnknownUpgradeType = errors.New("unknown upgrade type")

// InsufficientStarsError is returned when an upgrade costs more stars
// than the account holds.
type InsufficientStarsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientStarsError) Error() string {
	return fmt.Sprintf("insufficient stars: need %d, have %d", e.Required, e.Available)
}

// Click applies one click to the account and returns the rating gained.
// Clicks never fail.
func Click(acc *model.Account) int64 {
	acc.Rating += acc.ClickPower
	acc.TotalClicks++
	return acc.ClickPower
}

// UpgradeCost returns the star price of the next tier on a track.
// click_power costs (power+1)^2, auto_click costs (level+1)*step.
func UpgradeCost(acc *model.Account, track string, autoStep int64) (int64, error) {
	switch track {
	case UpgradeClickPower:
		next := acc.ClickPower + 1
		return next * next, nil
	case UpgradeAutoClick:
		if autoStep <= 0 {
			autoStep = DefaultAutoClickCostStep
		}
		return int64(acc.AutoClickLevel+1) * autoStep, nil
	default:
		return 0, ErrUnknownUpgradeType
	}
}

// Upgrade purchases the next tier on a track, deducting its cost and
// incrementing the tier by exactly one. Fails without mutation when the
// account cannot afford it.
func Upgrade(acc *model.Account, track string, autoStep int64) (int64, error) {
	cost, err := UpgradeCost(acc, track, autoStep)
	if err != nil {
		return 0, err
	}
	if acc.Stars < cost {
		return 0, &InsufficientStarsError{Required: cost, Available: acc.Stars}
	}

	acc.Stars -= cost
	switch track {
	case UpgradeClickPower:
		acc.ClickPower++
	case UpgradeAutoClick:
		acc.AutoClickLevel++
	}
	return cost, nil
}

// AutoAccrue credits the passive auto-click income accumulated since
// the last tick: one rating per auto-click level per whole elapsed
// minute. Returns the rating credited. The tick position only advances
// by the minutes actually credited, so partial minutes carry over.
func AutoAccrue(acc *model.Account, now time.Time) int64 {
	if acc.AutoClickLevel <= 0 {
		return 0
	}
	since := acc.LastAutoTick
	if since == nil {
		acc.LastAutoTick = &now
		return 0
	}
	minutes := int64(now.Sub(*since) / time.Minute)
	if minutes <= 0 {
		return 0
	}
	delta := minutes * int64(acc.AutoClickLevel)
	acc.Rating += delta
	advanced := since.Add(time.Duration(minutes) * time.Minute)
	acc.LastAutoTick = &advanced
	return delta
}
