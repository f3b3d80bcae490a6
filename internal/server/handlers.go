package server

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", "malformed request body", nil)
		return false
	}
	return true
}

// handleProfile registers the caller on first contact and returns the
// aggregate profile view.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	if _, err := s.accounts.EnsureAccount(r.Context(), id.UserID, id.ChatID, id.Username); err != nil {
		writeDomainErr(w, err)
		return
	}

	profile, err := s.accounts.Profile(r.Context(), id.UserID, id.ChatID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	payload := map[string]any{
		"account":         accountJSON(profile.Account),
		"daily_remaining": int64(profile.DailyRemaining.Seconds()),
	}
	if profile.Crew != nil {
		payload["crew"] = map[string]any{"id": profile.Crew.ID, "name": profile.Crew.Name}
	}
	writeOK(w, payload)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	res, err := s.accounts.ClaimDaily(r.Context(), id.UserID, id.ChatID, id.Username)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, map[string]any{
		"delta":      res.Delta,
		"rating":     res.NewRating,
		"streak":     res.Streak,
		"multiplier": res.Multiplier,
	})
}

func (s *Server) handleWheel(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	outcome, acc, err := s.rewards.SpinWheel(r.Context(), id.UserID, id.ChatID, id.Username)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, map[string]any{
		"outcome": outcome.Label,
		"account": accountJSON(acc),
	})
}

func (s *Server) handleSlot(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	res, acc, err := s.rewards.SpinSlot(r.Context(), id.UserID, id.ChatID, id.Username)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, map[string]any{
		"reels":   res.Reels,
		"payout":  res.Payout,
		"account": accountJSON(acc),
	})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	acc, gained, err := s.progression.Click(r.Context(), id.UserID, id.ChatID, id.Username)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, map[string]any{
		"gained":  gained,
		"account": accountJSON(acc),
	})
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req struct {
		Type string `json:"type"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	acc, cost, err := s.progression.Upgrade(r.Context(), id.UserID, id.ChatID, id.Username, req.Type)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, map[string]any{
		"cost":    cost,
		"account": accountJSON(acc),
	})
}

func (s *Server) handleGift(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req struct {
		TargetID int64 `json:"target_id"`
		Amount   int64 `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	sender, recipient, err := s.transfers.Gift(r.Context(), id.ChatID, id.UserID, req.TargetID, req.Amount)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, map[string]any{
		"sender":    accountJSON(sender),
		"recipient": accountJSON(recipient),
	})
}

func (s *Server) handleDuelRequest(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req struct {
		TargetID int64 `json:"target_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	b, err := s.duels.Challenge(r.Context(), id.ChatID, id.UserID, req.TargetID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, map[string]any{
		"battle_id": b.ID,
		"status":    b.Status,
	})
}

func (s *Server) handleDuelRespond(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req struct {
		BattleID int64  `json:"battle_id"`
		Action   string `json:"action"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	switch req.Action {
	case "accept":
		res, err := s.duels.Accept(r.Context(), req.BattleID, id.UserID)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeOK(w, map[string]any{
			"battle_id":      res.Battle.ID,
			"status":         res.Battle.Status,
			"winner_id":      res.Outcome.WinnerID,
			"loser_id":       res.Outcome.LoserID,
			"stolen":         res.Outcome.Stolen,
			"shield_blocked": res.Outcome.ShieldBlocked,
			"challenger":     accountJSON(res.Challenger),
			"target":         accountJSON(res.Target),
		})
	case "decline":
		b, err := s.duels.Decline(r.Context(), req.BattleID, id.UserID)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeOK(w, map[string]any{
			"battle_id": b.ID,
			"status":    b.Status,
		})
	default:
		writeErr(w, http.StatusBadRequest, "bad_action", "action must be accept or decline", nil)
	}
}

func (s *Server) handleCrewCreate(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	crew, err := s.crews.Create(r.Context(), id.ChatID, id.UserID, req.Name)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, map[string]any{"crew": map[string]any{"id": crew.ID, "name": crew.Name}})
}

func (s *Server) handleCrewJoin(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	crew, err := s.crews.Join(r.Context(), id.ChatID, id.UserID, req.Name)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, map[string]any{"crew": map[string]any{"id": crew.ID, "name": crew.Name}})
}

func (s *Server) handleCrewLeave(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	if err := s.crews.Leave(r.Context(), id.ChatID, id.UserID); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleCrewInfo(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	info, err := s.crews.Info(r.Context(), id.ChatID, id.UserID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, map[string]any{
		"crew":    map[string]any{"id": info.Crew.ID, "name": info.Crew.Name, "owner_id": info.Crew.OwnerUserID},
		"members": info.Members,
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var entries any
	var err error
	if r.URL.Query().Get("scope") == "global" {
		entries, err = s.rankings.GlobalLeaderboard(r.Context(), limit)
	} else {
		entries, err = s.rankings.Leaderboard(r.Context(), id.ChatID, limit)
	}
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, map[string]any{"entries": entries})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.rankings.History(r.Context(), id.UserID, id.ChatID, r.URL.Query().Get("type"), limit)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, map[string]any{"entries": entries})
}

func (s *Server) handleAdminGrant(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req struct {
		UserID int64 `json:"user_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.admins.GrantAdmin(r.Context(), id.ChatID, id.UserID, req.UserID); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleAdminRevoke(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req struct {
		UserID int64 `json:"user_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.admins.RevokeAdmin(r.Context(), id.ChatID, id.UserID, req.UserID); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleEventStart(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req struct {
		Name            string  `json:"name"`
		DailyMultiplier float64 `json:"daily_multiplier"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	event, err := s.admins.StartEvent(r.Context(), id.ChatID, id.UserID, req.Name, req.DailyMultiplier)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, map[string]any{
		"event": map[string]any{"id": event.ID, "name": event.Name, "daily_multiplier": event.DailyMultiplier},
	})
}

func (s *Server) handleEventStop(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	if err := s.admins.StopEvent(r.Context(), id.ChatID, id.UserID); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeOK(w, nil)
}
