// Package server exposes the mini-app HTTP API. Every /api route runs
// behind init-data authentication; identity never comes from request
// bodies.
package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"rating-arena/internal/auth"
	"rating-arena/internal/config"
	"rating-arena/internal/service"
)

// Identity is the authenticated caller of one request.
type Identity struct {
	UserID   int64
	ChatID   int64
	Username string
}

type ctxKey int

const identityKey ctxKey = iota

func identityFrom(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}

// Server wires the service layer to the HTTP API.
type Server struct {
	accounts    *service.AccountService
	rewards     *service.RewardService
	duels       *service.DuelService
	progression *service.ProgressionService
	transfers   *service.TransferService
	rankings    *service.RankingService
	crews       *service.CrewService
	admins      *service.AdminService
	verifier    *auth.Verifier
	avatars     *AvatarCache
	cfg         config.ServerConfig
}

// New creates a new Server instance.
func New(
	accounts *service.AccountService,
	rewards *service.RewardService,
	duels *service.DuelService,
	progression *service.ProgressionService,
	transfers *service.TransferService,
	rankings *service.RankingService,
	crews *service.CrewService,
	admins *service.AdminService,
	verifier *auth.Verifier,
	avatars *AvatarCache,
	cfg config.ServerConfig,
) *Server {
	return &Server{
		accounts:    accounts,
		rewards:     rewards,
		duels:       duels,
		progression: progression,
		transfers:   transfers,
		rankings:    rankings,
		crews:       crews,
		admins:      admins,
		verifier:    verifier,
		avatars:     avatars,
		cfg:         cfg,
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.PathPrefix("/avatar/").Handler(s.requireAuth(http.HandlerFunc(s.handleAvatar))).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireAuth)

	api.HandleFunc("/profile", s.handleProfile).Methods(http.MethodPost)
	api.HandleFunc("/daily", s.handleDaily).Methods(http.MethodPost)
	api.HandleFunc("/wheel", s.handleWheel).Methods(http.MethodPost)
	api.HandleFunc("/slot", s.handleSlot).Methods(http.MethodPost)
	api.HandleFunc("/click", s.handleClick).Methods(http.MethodPost)
	api.HandleFunc("/upgrade", s.handleUpgrade).Methods(http.MethodPost)
	api.HandleFunc("/gift", s.handleGift).Methods(http.MethodPost)
	api.HandleFunc("/duel/request", s.handleDuelRequest).Methods(http.MethodPost)
	api.HandleFunc("/duel/respond", s.handleDuelRespond).Methods(http.MethodPost)
	api.HandleFunc("/crew/create", s.handleCrewCreate).Methods(http.MethodPost)
	api.HandleFunc("/crew/join", s.handleCrewJoin).Methods(http.MethodPost)
	api.HandleFunc("/crew/leave", s.handleCrewLeave).Methods(http.MethodPost)
	api.HandleFunc("/crew/info", s.handleCrewInfo).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/admin/grant", s.handleAdminGrant).Methods(http.MethodPost)
	api.HandleFunc("/admin/revoke", s.handleAdminRevoke).Methods(http.MethodPost)
	api.HandleFunc("/admin/event/start", s.handleEventStart).Methods(http.MethodPost)
	api.HandleFunc("/admin/event/stop", s.handleEventStop).Methods(http.MethodPost)

	return r
}

// Handler returns the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	return s.withCORS(s.Router())
}

// HTTPServer builds the configured http.Server for the API.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.cfg.FrontendOrigin
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodOptions)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth verifies the init data carried in the Authorization
// header ("tma <init_data>") or, for requests that cannot set headers
// such as image tags, in the init_data query parameter. It resolves
// the caller's chat; failed verification rejects before any handler
// runs.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw := strings.TrimPrefix(header, "tma ")
		if raw == header {
			raw = r.URL.Query().Get("init_data")
		}
		if raw == "" {
			writeErr(w, http.StatusUnauthorized, "unauthorized", "missing init data", nil)
			return
		}

		data, err := s.verifier.Verify(raw, time.Now())
		if err != nil {
			log.Debug().Err(err).Msg("init data rejected")
			writeErr(w, http.StatusUnauthorized, "unauthorized", "invalid init data", nil)
			return
		}

		chatID, err := resolveChatID(data.StartParam, r.URL.Query().Get("chat_id"))
		if err != nil {
			writeErr(w, http.StatusBadRequest, "bad_chat", "missing or invalid chat id", nil)
			return
		}

		username := data.User.Username
		if username == "" {
			username = strings.TrimSpace(data.User.FirstName + " " + data.User.LastName)
		}

		id := Identity{UserID: data.User.ID, ChatID: chatID, Username: username}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// resolveChatID prefers the chat encoded in the WebApp start parameter
// and falls back to an explicit query parameter.
func resolveChatID(startParam, queryParam string) (int64, error) {
	candidate := startParam
	if candidate == "" {
		candidate = queryParam
	}
	return strconv.ParseInt(candidate, 10, 64)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, nil)
}
