package service

import (
	"context"

	"rating-arena/internal/model"
	"rating-arena/internal/repository"
)

// Leaderboard query limits.
const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 50
)

// RankingService serves read-only leaderboard and history views.
type RankingService struct {
	accounts *repository.AccountRepository
	history  *repository.HistoryRepository
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(accounts *repository.AccountRepository, history *repository.HistoryRepository) *RankingService {
	return &RankingService{accounts: accounts, history: history}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}

// Leaderboard returns the chat's top accounts by rating.
func (s *RankingService) Leaderboard(ctx context.Context, chatID int64, limit int) ([]*model.LeaderboardEntry, error) {
	return s.accounts.Leaderboard(ctx, chatID, clampLimit(limit))
}

// GlobalLeaderboard returns the top accounts across all chats.
func (s *RankingService) GlobalLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	return s.accounts.GlobalLeaderboard(ctx, clampLimit(limit))
}

// History returns an account's audit entries, newest first, optionally
// filtered by entry type.
func (s *RankingService) History(ctx context.Context, userID, chatID int64, entryType string, limit int) ([]*model.HistoryEntry, error) {
	limit = clampLimit(limit)
	if entryType == "" {
		return s.history.GetByAccount(ctx, userID, chatID, limit)
	}
	return s.history.GetByAccountAndType(ctx, userID, chatID, entryType, limit)
}
