// Package repository tests run against a real PostgreSQL via
// testcontainers-go and are skipped when Docker is unavailable.
package repository

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"rating-arena/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func TestAccountRepository_GetOrCreate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewAccountRepository(pool)

	acc, err := repo.GetOrCreate(ctx, 1, 10, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), acc.Rating, "new accounts start at the default rating")
	assert.Equal(t, int64(1), acc.ClickPower)
	assert.Equal(t, 1.0, acc.PrestigeMultiplier)
	assert.Equal(t, "alice", acc.Username)

	// Same key again only refreshes the username
	_, err = repo.Mutate(ctx, 1, 10, func(a *model.Account) ([]model.HistoryEntry, error) {
		a.Rating = 250
		return nil, nil
	})
	require.NoError(t, err)

	again, err := repo.GetOrCreate(ctx, 1, 10, "alice_renamed")
	require.NoError(t, err)
	assert.Equal(t, int64(250), again.Rating)
	assert.Equal(t, "alice_renamed", again.Username)

	// Same user in another chat is an independent account
	other, err := repo.GetOrCreate(ctx, 1, 20, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), other.Rating)
}

func TestAccountRepository_Get_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	_, err := repo.Get(context.Background(), 999, 10)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_Mutate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewAccountRepository(pool)
	historyRepo := NewHistoryRepository(pool)

	_, err := repo.GetOrCreate(ctx, 1, 10, "alice")
	require.NoError(t, err)

	acc, err := repo.Mutate(ctx, 1, 10, func(a *model.Account) ([]model.HistoryEntry, error) {
		a.Rating += 50
		return []model.HistoryEntry{{Type: model.HistoryDaily, Delta: 50, Details: "streak 1"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(150), acc.Rating)

	stored, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(150), stored.Rating)

	entries, err := historyRepo.GetByAccount(ctx, 1, 10, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.HistoryDaily, entries[0].Type)
	assert.Equal(t, int64(50), entries[0].Delta)
	assert.Equal(t, int64(1), entries[0].UserID, "key filled in for the caller")
}

func TestAccountRepository_MutateEnsure_CreatesOnFirstReference(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewAccountRepository(pool)
	historyRepo := NewHistoryRepository(pool)

	// No GetOrCreate beforehand: the first economic action on a
	// never-seen (user, chat) must register the account itself.
	acc, err := repo.MutateEnsure(ctx, 7, 10, "newcomer", func(a *model.Account) ([]model.HistoryEntry, error) {
		a.Rating += 25
		return []model.HistoryEntry{{Type: model.HistoryDaily, Delta: 25}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "newcomer", acc.Username)
	assert.Equal(t, int64(125), acc.Rating, "defaults applied before the mutation")

	stored, err := repo.Get(ctx, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(125), stored.Rating)

	entries, err := historyRepo.GetByAccount(ctx, 7, 10, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// On an existing account it behaves like Mutate, refreshing the
	// stored username.
	acc, err = repo.MutateEnsure(ctx, 7, 10, "renamed", func(a *model.Account) ([]model.HistoryEntry, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", acc.Username)
	assert.Equal(t, int64(125), acc.Rating)
}

func TestAccountRepository_Mutate_ErrorRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewAccountRepository(pool)
	historyRepo := NewHistoryRepository(pool)

	_, err := repo.GetOrCreate(ctx, 1, 10, "alice")
	require.NoError(t, err)

	wantErr := errors.New("refused")
	_, err = repo.Mutate(ctx, 1, 10, func(a *model.Account) ([]model.HistoryEntry, error) {
		a.Rating = 9999
		return []model.HistoryEntry{{Type: model.HistoryDaily, Delta: 1}}, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	stored, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored.Rating, "rejected mutation must not persist")

	entries, err := historyRepo.GetByAccount(ctx, 1, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAccountRepository_Mutate_FloorsPersistedBalances(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewAccountRepository(pool)

	_, err := repo.GetOrCreate(ctx, 1, 10, "alice")
	require.NoError(t, err)

	_, err = repo.Mutate(ctx, 1, 10, func(a *model.Account) ([]model.HistoryEntry, error) {
		a.Rating = -40
		a.Stars = -5
		return nil, nil
	})
	require.NoError(t, err)

	stored, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.Rating)
	assert.Equal(t, int64(0), stored.Stars)
}

func TestAccountRepository_MutatePair(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewAccountRepository(pool)
	historyRepo := NewHistoryRepository(pool)

	_, err := repo.GetOrCreate(ctx, 1, 10, "alice")
	require.NoError(t, err)
	_, err = repo.GetOrCreate(ctx, 2, 10, "bob")
	require.NoError(t, err)

	a, b, err := repo.MutatePair(ctx, 10, 1, 2, func(_ pgx.Tx, from, to *model.Account) ([]model.HistoryEntry, error) {
		from.Rating -= 30
		to.Rating += 30
		return []model.HistoryEntry{
			{UserID: 1, ChatID: 10, Type: model.HistoryGiftSent, Delta: -30},
			{UserID: 2, ChatID: 10, Type: model.HistoryGiftReceived, Delta: 30},
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.UserID, "first return value is the first argument's account")
	assert.Equal(t, int64(70), a.Rating)
	assert.Equal(t, int64(130), b.Rating)

	sent, err := historyRepo.GetByAccountAndType(ctx, 1, 10, model.HistoryGiftSent, 10)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, int64(-30), sent[0].Delta)
}

func TestBattleRepository_Lifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	accountRepo := NewAccountRepository(pool)
	battleRepo := NewBattleRepository(pool)

	_, err := accountRepo.GetOrCreate(ctx, 1, 10, "alice")
	require.NoError(t, err)
	_, err = accountRepo.GetOrCreate(ctx, 2, 10, "bob")
	require.NoError(t, err)

	b, err := battleRepo.Create(ctx, 10, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.BattlePending, b.Status)

	// Resolve inside a pair mutation, the way the duel service does
	_, _, err = accountRepo.MutatePair(ctx, 10, 1, 2, func(tx pgx.Tx, ch, tg *model.Account) ([]model.HistoryEntry, error) {
		locked, err := battleRepo.GetForUpdate(ctx, tx, b.ID)
		if err != nil {
			return nil, err
		}
		require.Equal(t, model.BattlePending, locked.Status)

		ch.Rating += 10
		tg.Rating -= 10
		return nil, battleRepo.MarkResolved(ctx, tx, b.ID, 1, 2, 10, false)
	})
	require.NoError(t, err)

	resolved, err := battleRepo.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BattleResolved, resolved.Status)
	require.NotNil(t, resolved.WinnerID)
	assert.Equal(t, int64(1), *resolved.WinnerID)
	assert.Equal(t, int64(10), resolved.Stolen)

	// A resolved battle cannot be declined
	declined, err := battleRepo.Decline(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, declined)
}

func TestBattleRepository_Decline(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	battleRepo := NewBattleRepository(pool)

	b, err := battleRepo.Create(ctx, 10, 1, 2)
	require.NoError(t, err)

	declined, err := battleRepo.Decline(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, declined)

	// Second decline is a no-op
	declined, err = battleRepo.Decline(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, declined)

	_, err = battleRepo.Get(ctx, 99999)
	assert.ErrorIs(t, err, ErrBattleNotFound)
}

func TestAccountRepository_Leaderboard(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewAccountRepository(pool)

	seed := []struct {
		userID int64
		chatID int64
		rating int64
	}{
		{1, 10, 300}, {2, 10, 100}, {3, 10, 200}, {4, 20, 999},
	}
	for _, s := range seed {
		_, err := repo.GetOrCreate(ctx, s.userID, s.chatID, "player")
		require.NoError(t, err)
		rating := s.rating
		_, err = repo.Mutate(ctx, s.userID, s.chatID, func(a *model.Account) ([]model.HistoryEntry, error) {
			a.Rating = rating
			return nil, nil
		})
		require.NoError(t, err)
	}

	entries, err := repo.Leaderboard(ctx, 10, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3, "scoped to one chat")
	assert.Equal(t, int64(1), entries[0].UserID)
	assert.Equal(t, int64(3), entries[1].UserID)
	assert.Equal(t, int64(2), entries[2].UserID)

	top, err := repo.Leaderboard(ctx, 10, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	global, err := repo.GlobalLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, global, 4)
	assert.Equal(t, int64(4), global[0].UserID)
}

func TestAccountRepository_AutoClickers(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewAccountRepository(pool)

	_, err := repo.GetOrCreate(ctx, 1, 10, "alice")
	require.NoError(t, err)
	_, err = repo.GetOrCreate(ctx, 2, 10, "bob")
	require.NoError(t, err)
	_, err = repo.Mutate(ctx, 2, 10, func(a *model.Account) ([]model.HistoryEntry, error) {
		a.AutoClickLevel = 3
		return nil, nil
	})
	require.NoError(t, err)

	keys, err := repo.AutoClickers(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, [2]int64{2, 10}, keys[0])
}

func TestEventRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewEventRepository(pool)

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	first, err := repo.Start(ctx, "double weekend", 2.0)
	require.NoError(t, err)
	assert.True(t, first.Active)

	second, err := repo.Start(ctx, "triple day", 3.0)
	require.NoError(t, err)

	active, err = repo.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID, "starting an event replaces the running one")
	assert.Equal(t, 3.0, active.DailyMultiplier)

	require.NoError(t, repo.Stop(ctx))
	active, err = repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestCrewRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCrewRepository(pool)

	crew, err := repo.Create(ctx, 10, 1, "night watch")
	require.NoError(t, err)
	assert.Equal(t, int64(1), crew.OwnerUserID)

	_, err = repo.Create(ctx, 10, 2, "night watch")
	assert.ErrorIs(t, err, ErrCrewExists)

	// Same name in another chat is fine
	_, err = repo.Create(ctx, 20, 2, "night watch")
	require.NoError(t, err)

	mine, err := repo.GetForUser(ctx, 1, 10)
	require.NoError(t, err)
	require.NotNil(t, mine)
	assert.Equal(t, crew.ID, mine.ID)

	require.NoError(t, repo.Join(ctx, crew.ID, 3))
	members, err := repo.Members(ctx, crew.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 3}, members)

	require.NoError(t, repo.Leave(ctx, 3, 10))
	members, err = repo.Members(ctx, crew.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1}, members)

	_, err = repo.GetByName(ctx, 10, "no such crew")
	assert.ErrorIs(t, err, ErrCrewNotFound)
}

func TestAdminRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewAdminRepository(pool)

	isAdmin, err := repo.IsAdmin(ctx, 1, 10)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	require.NoError(t, repo.Grant(ctx, 10, 1, 1))
	isAdmin, err = repo.IsAdmin(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	admins, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, admins, 1)

	require.NoError(t, repo.Revoke(ctx, 10, 1))
	isAdmin, err = repo.IsAdmin(ctx, 1, 10)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestAchievementRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewAchievementRepository(pool)

	granted, err := repo.Grant(ctx, 1, 10, "first_blood")
	require.NoError(t, err)
	assert.True(t, granted)

	// One-time per (user, chat, name)
	granted, err = repo.Grant(ctx, 1, 10, "first_blood")
	require.NoError(t, err)
	assert.False(t, granted)

	granted, err = repo.Grant(ctx, 1, 20, "first_blood")
	require.NoError(t, err)
	assert.True(t, granted)

	list, err := repo.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first_blood", list[0].Name)
}
