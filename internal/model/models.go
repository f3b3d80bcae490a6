// Package model defines the data models for the rating arena backend.
package model

import "time"

// Account is the per-(user, chat) economic record. The same person has
// an independent economy in every chat they play in.
type Account struct {
	UserID             int64      `db:"user_id"`
	ChatID             int64      `db:"chat_id"`
	Username           string     `db:"username"`
	Rating             int64      `db:"rating"`
	Title              string     `db:"title"`
	DailyStreak        int        `db:"daily_streak"`
	LastDaily          *time.Time `db:"last_daily"`
	PrestigeMultiplier float64    `db:"prestige_multiplier"`
	PrestigeLevel      int        `db:"prestige_level"`
	Stars              int64      `db:"stars"`
	NextDailyMult      float64    `db:"next_daily_multiplier"`
	ShieldUntil        *time.Time `db:"shield_until"`
	ClickPower         int64      `db:"click_power"`
	TotalClicks        int64      `db:"total_clicks"`
	AutoClickLevel     int        `db:"auto_click_level"`
	LastAutoTick       *time.Time `db:"last_auto_tick"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// ShieldActive reports whether the account's duel shield covers the given moment.
func (a *Account) ShieldActive(now time.Time) bool {
	return a.ShieldUntil != nil && a.ShieldUntil.After(now)
}

// Battle statuses. A battle leaves "pending" exactly once.
const (
	BattlePending  = "pending"
	BattleResolved = "resolved"
	BattleDeclined = "declined"
)

// Battle represents a duel challenge between two accounts in one chat.
type Battle struct {
	ID            int64     `db:"id"`
	ChatID        int64     `db:"chat_id"`
	ChallengerID  int64     `db:"challenger_id"`
	TargetID      int64     `db:"target_id"`
	Status        string    `db:"status"`
	WinnerID      *int64    `db:"winner_id"`
	LoserID       *int64    `db:"loser_id"`
	Stolen        int64     `db:"stolen"`
	ShieldBlocked bool      `db:"shield_blocked"`
	CreatedAt     time.Time `db:"created_at"`
}

// HistoryEntry is one append-only audit record of an economic event.
// Balances are stored on Account, never recomputed from history.
type HistoryEntry struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	ChatID    int64     `db:"chat_id"`
	Type      string    `db:"type"`
	Delta     int64     `db:"delta"`
	Details   string    `db:"details"`
	CreatedAt time.Time `db:"created_at"`
}

// History entry types for categorizing economic events.
const (
	HistoryDaily        = "daily"
	HistoryWheel        = "wheel"
	HistorySlotWin      = "slot_win"
	HistoryDuelWin      = "duel_win"
	HistoryDuelLoss     = "duel_loss"
	HistoryDuelShielded = "duel_shielded"
	HistoryGiftSent     = "gift_sent"
	HistoryGiftReceived = "gift_received"
	HistoryUpgrade      = "upgrade"
	HistoryAutoClick    = "auto_click"
)

// Event is a global event scaling daily-claim magnitude while active.
type Event struct {
	ID              int64     `db:"id"`
	Name            string    `db:"name"`
	DailyMultiplier float64   `db:"daily_multiplier"`
	Active          bool      `db:"active"`
	StartedAt       time.Time `db:"started_at"`
}

// Crew is a named group of accounts within one chat.
type Crew struct {
	ID          int64     `db:"id"`
	ChatID      int64     `db:"chat_id"`
	Name        string    `db:"name"`
	OwnerUserID int64     `db:"owner_user_id"`
	CreatedAt   time.Time `db:"created_at"`
}

// Admin marks a user as an arena admin within one chat.
type Admin struct {
	ChatID    int64     `db:"chat_id"`
	UserID    int64     `db:"user_id"`
	GrantedBy int64     `db:"granted_by"`
	GrantedAt time.Time `db:"granted_at"`
}

// Achievement is a one-time named award per (user, chat).
type Achievement struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	ChatID     int64     `db:"chat_id"`
	Name       string    `db:"name"`
	AchievedAt time.Time `db:"achieved_at"`
}

// LeaderboardEntry is one row of a top-N rating query.
type LeaderboardEntry struct {
	UserID   int64  `db:"user_id"`
	ChatID   int64  `db:"chat_id"`
	Username string `db:"username"`
	Rating   int64  `db:"rating"`
	Stars    int64  `db:"stars"`
	Title    string `db:"title"`
}
