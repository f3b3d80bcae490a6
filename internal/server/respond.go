package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"rating-arena/internal/game/clicker"
	"rating-arena/internal/game/daily"
	"rating-arena/internal/game/duel"
	"rating-arena/internal/model"
	"rating-arena/internal/repository"
	"rating-arena/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

// writeOK wraps the payload fields in the {"ok":true,...} envelope.
func writeOK(w http.ResponseWriter, payload map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func writeErr(w http.ResponseWriter, status int, code, message string, extra map[string]any) {
	detail := map[string]any{"code": code, "message": message}
	for k, v := range extra {
		detail[k] = v
	}
	writeJSON(w, status, map[string]any{"ok": false, "error": detail})
}

// writeDomainErr maps domain errors to structured 400-level payloads
// and everything unexpected to an opaque 500.
func writeDomainErr(w http.ResponseWriter, err error) {
	var cooldown *daily.AlreadyClaimedError
	var noStars *clicker.InsufficientStarsError
	var noRating *service.InsufficientRatingError

	switch {
	case errors.As(err, &cooldown):
		writeErr(w, http.StatusBadRequest, "cooldown", err.Error(), map[string]any{
			"retry_after": int64(cooldown.Remaining.Seconds()),
		})
	case errors.As(err, &noStars):
		writeErr(w, http.StatusBadRequest, "insufficient_stars", err.Error(), map[string]any{
			"required": noStars.Required, "available": noStars.Available,
		})
	case errors.As(err, &noRating):
		writeErr(w, http.StatusBadRequest, "insufficient_rating", err.Error(), map[string]any{
			"required": noRating.Required, "available": noRating.Available,
		})
	case errors.Is(err, duel.ErrSelfDuel):
		writeErr(w, http.StatusBadRequest, "self_duel", err.Error(), nil)
	case errors.Is(err, duel.ErrUnknownParticipant):
		writeErr(w, http.StatusNotFound, "unknown_participant", err.Error(), nil)
	case errors.Is(err, duel.ErrInvalidBattleState):
		writeErr(w, http.StatusConflict, "battle_not_pending", err.Error(), nil)
	case errors.Is(err, service.ErrNotChallenged):
		writeErr(w, http.StatusForbidden, "not_challenged", err.Error(), nil)
	case errors.Is(err, clicker.ErrUnknownUpgradeType):
		writeErr(w, http.StatusBadRequest, "unknown_upgrade", err.Error(), nil)
	case errors.Is(err, service.ErrSelfGift):
		writeErr(w, http.StatusBadRequest, "self_gift", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidAmount):
		writeErr(w, http.StatusBadRequest, "invalid_amount", err.Error(), nil)
	case errors.Is(err, service.ErrAlreadyInCrew):
		writeErr(w, http.StatusBadRequest, "already_in_crew", err.Error(), nil)
	case errors.Is(err, service.ErrNotInCrew):
		writeErr(w, http.StatusBadRequest, "not_in_crew", err.Error(), nil)
	case errors.Is(err, service.ErrBadCrewName):
		writeErr(w, http.StatusBadRequest, "bad_crew_name", err.Error(), nil)
	case errors.Is(err, service.ErrNotAdmin):
		writeErr(w, http.StatusForbidden, "not_admin", err.Error(), nil)
	case errors.Is(err, repository.ErrCrewExists):
		writeErr(w, http.StatusConflict, "crew_exists", err.Error(), nil)
	case errors.Is(err, repository.ErrCrewNotFound):
		writeErr(w, http.StatusNotFound, "crew_not_found", err.Error(), nil)
	case errors.Is(err, repository.ErrAccountNotFound):
		writeErr(w, http.StatusNotFound, "account_not_found", err.Error(), nil)
	case errors.Is(err, repository.ErrBattleNotFound):
		writeErr(w, http.StatusNotFound, "battle_not_found", err.Error(), nil)
	default:
		log.Error().Err(err).Msg("request failed")
		writeErr(w, http.StatusInternalServerError, "internal", "internal error", nil)
	}
}

func accountJSON(a *model.Account) map[string]any {
	return map[string]any{
		"user_id":               a.UserID,
		"chat_id":               a.ChatID,
		"username":              a.Username,
		"rating":                a.Rating,
		"title":                 a.Title,
		"daily_streak":          a.DailyStreak,
		"prestige_multiplier":   a.PrestigeMultiplier,
		"prestige_level":        a.PrestigeLevel,
		"stars":                 a.Stars,
		"next_daily_multiplier": a.NextDailyMult,
		"shield_until":          a.ShieldUntil,
		"click_power":           a.ClickPower,
		"total_clicks":          a.TotalClicks,
		"auto_click_level":      a.AutoClickLevel,
	}
}
