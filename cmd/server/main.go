// Package main is the entry point for the rating arena backend.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rating-arena/internal/auth"
	"rating-arena/internal/bot"
	"rating-arena/internal/config"
	"rating-arena/internal/game"
	"rating-arena/internal/game/daily"
	"rating-arena/internal/game/duel"
	"rating-arena/internal/game/slot"
	"rating-arena/internal/game/wheel"
	"rating-arena/internal/jobs"
	"rating-arena/internal/pkg/db"
	"rating-arena/internal/pkg/lock"
	"rating-arena/internal/repository"
	"rating-arena/internal/server"
	"rating-arena/internal/service"
)

// initDataMaxAge bounds how old accepted WebApp launch data may be.
const initDataMaxAge = 24 * time.Hour

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := repository.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(dbPool.Pool)
	battleRepo := repository.NewBattleRepository(dbPool.Pool)
	historyRepo := repository.NewHistoryRepository(dbPool.Pool)
	eventRepo := repository.NewEventRepository(dbPool.Pool)
	crewRepo := repository.NewCrewRepository(dbPool.Pool)
	adminRepo := repository.NewAdminRepository(dbPool.Pool)
	achievementRepo := repository.NewAchievementRepository(dbPool.Pool)

	// Shared infrastructure
	accountLock := lock.New()
	rng := game.NewLockedRand(time.Now().UnixNano())

	// Initialize services
	accountService := service.NewAccountService(
		accountRepo, eventRepo, crewRepo, achievementRepo,
		accountLock, rng,
		daily.Config{
			Cooldown:    cfg.Daily.Cooldown,
			BaseMin:     cfg.Daily.BaseMin,
			BaseMax:     cfg.Daily.BaseMax,
			StreakGrace: cfg.Daily.StreakGrace,
			StreakMax:   cfg.Daily.StreakMax,
		},
	)
	rewardService := service.NewRewardService(
		accountRepo, achievementRepo, accountLock, rng,
		wheel.DefaultTable(cfg.Wheel.ShieldDuration),
		slot.Config{
			JackpotTop: cfg.Slot.JackpotTop,
			Jackpot:    cfg.Slot.Jackpot,
			PairPayout: cfg.Slot.PairPayout,
		},
	)
	duelService := service.NewDuelService(
		accountRepo, battleRepo, achievementRepo, accountLock, rng,
		duel.Config{
			RollMax:      cfg.Duel.RollMax,
			StakePercent: cfg.Duel.StakePercent,
		},
	)
	progressionService := service.NewProgressionService(accountRepo, accountLock, cfg.Clicker.AutoClickCostStep)
	transferService := service.NewTransferService(accountRepo, accountLock)
	rankingService := service.NewRankingService(accountRepo, historyRepo)
	crewService := service.NewCrewService(crewRepo)
	adminService := service.NewAdminService(adminRepo, eventRepo)

	// Initialize bot
	telegramBot, err := bot.New(cfg, accountService, rankingService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Initialize HTTP server
	verifier := auth.NewVerifier(cfg.Bot.Token, initDataMaxAge)
	avatars := server.NewAvatarCache(telegramBot, cfg.Avatar.CacheSize, cfg.Avatar.CacheTTL)
	srv := server.New(
		accountService, rewardService, duelService, progressionService,
		transferService, rankingService, crewService, adminService,
		verifier, avatars, cfg.Server,
	)
	httpServer := srv.HTTPServer()

	// Start auto-click accrual job
	var autoClickJob *jobs.AutoClickJob
	if cfg.AutoClick.Enabled {
		autoClickJob = jobs.NewAutoClickJob(progressionService, cfg.AutoClick.Schedule)
		if err := autoClickJob.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start auto-click job")
		}
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server starting...")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	telegramBot.Stop()
	if autoClickJob != nil {
		autoClickJob.Stop()
	}
	log.Info().Msg("Stopped gracefully")
}
