package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rating-arena/internal/auth"
	"rating-arena/internal/game/clicker"
	"rating-arena/internal/game/daily"
	"rating-arena/internal/game/duel"
	"rating-arena/internal/repository"
	"rating-arena/internal/service"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestWriteDomainErr(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"cooldown", &daily.AlreadyClaimedError{Remaining: 90 * time.Second}, http.StatusBadRequest, "cooldown"},
		{"insufficient stars", &clicker.InsufficientStarsError{Required: 9, Available: 1}, http.StatusBadRequest, "insufficient_stars"},
		{"insufficient rating", &service.InsufficientRatingError{Required: 50, Available: 10}, http.StatusBadRequest, "insufficient_rating"},
		{"self duel", duel.ErrSelfDuel, http.StatusBadRequest, "self_duel"},
		{"unknown participant", duel.ErrUnknownParticipant, http.StatusNotFound, "unknown_participant"},
		{"battle not pending", duel.ErrInvalidBattleState, http.StatusConflict, "battle_not_pending"},
		{"not challenged", service.ErrNotChallenged, http.StatusForbidden, "not_challenged"},
		{"unknown upgrade", clicker.ErrUnknownUpgradeType, http.StatusBadRequest, "unknown_upgrade"},
		{"account not found", repository.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
		{"battle not found", repository.ErrBattleNotFound, http.StatusNotFound, "battle_not_found"},
		{"not admin", service.ErrNotAdmin, http.StatusForbidden, "not_admin"},
		{"unexpected error is opaque", fmt.Errorf("connection reset"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeDomainErr(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeResponse(t, rec)
			assert.Equal(t, false, body["ok"])

			detail, ok := body["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.code, detail["code"])
		})
	}
}

func TestWriteDomainErr_CooldownCarriesRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainErr(rec, &daily.AlreadyClaimedError{Remaining: 90 * time.Second})

	body := decodeResponse(t, rec)
	detail := body["error"].(map[string]any)
	assert.Equal(t, float64(90), detail["retry_after"])
}

func TestWriteDomainErr_InternalHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainErr(rec, fmt.Errorf("pq: relation accounts does not exist"))

	body := decodeResponse(t, rec)
	detail := body["error"].(map[string]any)
	assert.Equal(t, "internal error", detail["message"])
}

func TestResolveChatID(t *testing.T) {
	tests := []struct {
		name       string
		startParam string
		queryParam string
		expected   int64
		wantErr    bool
	}{
		{"start param wins", "-100500", "777", -100500, false},
		{"query fallback", "", "777", 777, false},
		{"both missing", "", "", 0, true},
		{"garbage", "abc", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveChatID(tt.startParam, tt.queryParam)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	verifier := auth.NewVerifier("12345:TEST_TOKEN", time.Hour)
	srv := &Server{verifier: verifier}

	var gotIdentity Identity
	handler := srv.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity = identityFrom(r.Context())
		writeOK(w, nil)
	}))

	t.Run("missing header rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/daily", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage init data rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/daily", nil)
		req.Header.Set("Authorization", "tma hash=deadbeef&auth_date=1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid init data passes identity through", func(t *testing.T) {
		values := url.Values{}
		values.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))
		values.Set("user", `{"id":42,"username":"arena_player"}`)
		values.Set("start_param", "-100500")
		values.Set("hash", verifier.Sign(values))

		req := httptest.NewRequest(http.MethodPost, "/api/daily", nil)
		req.Header.Set("Authorization", "tma "+values.Encode())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(42), gotIdentity.UserID)
		assert.Equal(t, int64(-100500), gotIdentity.ChatID)
		assert.Equal(t, "arena_player", gotIdentity.Username)
	})

	t.Run("missing chat rejected", func(t *testing.T) {
		values := url.Values{}
		values.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))
		values.Set("user", `{"id":42,"username":"arena_player"}`)
		values.Set("hash", verifier.Sign(values))

		req := httptest.NewRequest(http.MethodPost, "/api/daily", nil)
		req.Header.Set("Authorization", "tma "+values.Encode())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("init data in query parameter", func(t *testing.T) {
		values := url.Values{}
		values.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))
		values.Set("user", `{"id":42,"username":"arena_player"}`)
		values.Set("start_param", "-100500")
		values.Set("hash", verifier.Sign(values))

		target := "/avatar/-100500/42?init_data=" + url.QueryEscape(values.Encode())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(42), gotIdentity.UserID)
		assert.Equal(t, int64(-100500), gotIdentity.ChatID)
	})
}

func TestRouter_AvatarRequiresAuth(t *testing.T) {
	srv := &Server{verifier: auth.NewVerifier("12345:TEST_TOKEN", time.Hour)}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/avatar/-100500/42", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
