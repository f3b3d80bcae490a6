package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"rating-arena/internal/repository"
)

// timeNow is swapped out by tests that need a fixed clock.
var timeNow = time.Now

// grantAchievement records a milestone outside the owning transaction.
// Failures are logged, never surfaced; the award retries on the next
// qualifying action.
func grantAchievement(ctx context.Context, repo *repository.AchievementRepository, userID, chatID int64, name string) {
	granted, err := repo.Grant(ctx, userID, chatID, name)
	if err != nil {
		log.Warn().Err(err).Str("achievement", name).Msg("failed to grant achievement")
		return
	}
	if granted {
		log.Info().
			Int64("user_id", userID).
			Int64("chat_id", chatID).
			Str("achievement", name).
			Msg("achievement granted")
	}
}
