package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"cinema-ticketing-backend/internal/models"
	"cinema-ticketing-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_ListGetDelete(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	admin, err := env.svc.Register(ctx, registerInput("root_admin", "Abcdef1", models.RoleAdmin))
	require.NoError(t, err)
	client, err := env.svc.Register(ctx, registerInput("walter", "Abcdef1", ""))
	require.NoError(t, err)

	users := NewUserService(repository.NewUserRepo(env.db), repository.NewAuditRepo(env.db))

	list, err := users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "root_admin", list[0].Username)
	assert.Equal(t, "walter", list[1].Username)

	got, err := users.GetUser(ctx, client.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "walter", got.Username)

	require.NoError(t, users.DeleteUser(ctx, admin.User.ID, client.User.ID))
	assert.ErrorIs(t, users.DeleteUser(ctx, admin.User.ID, client.User.ID), ErrUserNotFound)

	_, err = users.GetUser(ctx, client.User.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Zero(t, env.sessionCount(t, client.User.ID))

	_, err = env.svc.Refresh(ctx, client.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	trail, err := users.AuditTrail(ctx, admin.User.ID)
	require.NoError(t, err)
	require.NotEmpty(t, trail)
	assert.Equal(t, models.AuditUserDeleted, trail[0].Action)
}

func TestCleanupService_RunOnce(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	stale, err := env.svc.Register(ctx, registerInput("stale_user", "Abcdef1", ""))
	require.NoError(t, err)
	fresh, err := env.svc.Register(ctx, registerInput("fresh_user", "Abcdef1", ""))
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&models.RefreshToken{}).
		Where("user_id = ?", stale.User.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error)

	cleaner := NewCleanupService(env.refresh, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, int64(1), cleaner.RunOnce(ctx))
	assert.Zero(t, cleaner.RunOnce(ctx))

	assert.Zero(t, env.sessionCount(t, stale.User.ID))
	assert.Equal(t, int64(1), env.sessionCount(t, fresh.User.ID))
}

func TestCleanupService_StartStopsOnCancel(t *testing.T) {
	env := newAuthEnv(t)
	cleaner := NewCleanupService(env.refresh, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleaner.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop after cancel")
	}
}

func TestUserService_UpdateUser(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	admin, err := env.svc.Register(ctx, registerInput("editor_admin", "Abcdef1", models.RoleAdmin))
	require.NoError(t, err)
	target, err := env.svc.Register(ctx, registerInput("edited", "Abcdef1", ""))
	require.NoError(t, err)

	users := NewUserService(repository.NewUserRepo(env.db), repository.NewAuditRepo(env.db))

	_, err = users.UpdateUser(ctx, admin.User.ID, target.User.ID, UpdateUserInput{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	name := "Renamed"
	zip := "10000"
	updated, err := users.UpdateUser(ctx, admin.User.ID, target.User.ID, UpdateUserInput{FirstName: &name, ZipCode: &zip})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FirstName)
	require.NotNil(t, updated.ZipCode)
	assert.Equal(t, "10000", *updated.ZipCode)
	assert.Equal(t, models.RoleClient, updated.Role)

	_, err = users.UpdateUser(ctx, admin.User.ID, target.User.ID+100, UpdateUserInput{FirstName: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)

	trail, err := users.AuditTrail(ctx, admin.User.ID)
	require.NoError(t, err)
	require.NotEmpty(t, trail)
	assert.Equal(t, models.AuditUserUpdated, trail[0].Action)
}
