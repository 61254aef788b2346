package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authgate/internal/client/storage"
)

// создаём тестовое BoltDB хранилище с auth bucket
func createTestAuthStorage(t *testing.T) *Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "auth_test.db")

	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func TestStorage_SaveGetDeleteAuth(t *testing.T) {
	ctx := context.Background()
	store := createTestAuthStorage(t)

	auth := &storage.AuthData{
		Username:     "testuser",
		UserID:       "user-id-123",
		FullName:     "Test User",
		Role:         "user",
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}

	// Проверяем что GetAuth до сохранения выдаст ErrAuthNotFound
	_, err := store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	// Сохраняем auth
	err = store.SaveAuth(ctx, auth)
	require.NoError(t, err)

	// Получаем auth и сравниваем
	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, auth.Username, got.Username)
	assert.Equal(t, auth.UserID, got.UserID)
	assert.Equal(t, auth.FullName, got.FullName)
	assert.Equal(t, auth.Role, got.Role)
	assert.Equal(t, auth.AccessToken, got.AccessToken)
	assert.Equal(t, auth.RefreshToken, got.RefreshToken)
	assert.Equal(t, auth.ExpiresAt, got.ExpiresAt)

	// IsAuthenticated должна вернуть true (токен не просрочен)
	authOk, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, authOk)

	// Удаляем auth
	err = store.DeleteAuth(ctx)
	require.NoError(t, err)

	_, err = store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

func TestStorage_IsAuthenticated_Expired(t *testing.T) {
	ctx := context.Background()
	store := createTestAuthStorage(t)

	auth := &storage.AuthData{
		Username:     "testuser",
		UserID:       "user-id-123",
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(-time.Hour).Unix(),
	}

	require.NoError(t, store.SaveAuth(ctx, auth))

	// Просроченный токен: данные есть, но сессия не валидна
	authOk, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, authOk)
}

func TestStorage_SaveAuth_Replaces(t *testing.T) {
	ctx := context.Background()
	store := createTestAuthStorage(t)

	first := &storage.AuthData{
		Username:     "alice",
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}
	require.NoError(t, store.SaveAuth(ctx, first))

	second := &storage.AuthData{
		Username:     "alice",
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresAt:    time.Now().Add(2 * time.Hour).Unix(),
	}
	require.NoError(t, store.SaveAuth(ctx, second))

	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-access", got.AccessToken)
	assert.Equal(t, "new-refresh", got.RefreshToken)
}

func TestStorage_DeleteAuth_NotFound(t *testing.T) {
	ctx := context.Background()
	store := createTestAuthStorage(t)

	err := store.DeleteAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

func TestStorage_IsAuthenticated_NoData(t *testing.T) {
	ctx := context.Background()
	store := createTestAuthStorage(t)

	authOk, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, authOk)
}
