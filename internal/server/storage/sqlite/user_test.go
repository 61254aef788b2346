package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authgate/internal/models"
	"github.com/iudanet/authgate/internal/server/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}

func testUser(username, email string) *models.User {
	return &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$fakehashfortests",
		Role:         models.RoleUser,
		FirstName:    "Alice",
		LastName:     "Smith",
		CreatedAt:    time.Now(),
	}
}

func TestCreateUser(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := testUser("alice", "a@x.com")
	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Equal(t, "Alice", got.FirstName)
	assert.Nil(t, got.LastLogin)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser("alice", "a@x.com")))

	// Тот же username, другой email
	err := s.CreateUser(ctx, testUser("alice", "other@x.com"))
	assert.ErrorIs(t, err, storage.ErrUsernameTaken)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser("alice", "a@x.com")))

	err := s.CreateUser(ctx, testUser("bob", "a@x.com"))
	assert.ErrorIs(t, err, storage.ErrEmailTaken)
}

func TestCreateUser_ConcurrentDuplicate(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// Две параллельные регистрации одного username: ровно один успех
	const workers = 2
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = s.CreateUser(ctx, testUser("alice", uuid.New().String()+"@x.com"))
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, storage.ErrUsernameTaken)
		}
	}

	assert.Equal(t, 1, successes)
}

func TestUsernameExists(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	exists, err := s.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.CreateUser(ctx, testUser("alice", "a@x.com")))

	exists, err = s.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEmailExists(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	exists, err := s.EmailExists(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.CreateUser(ctx, testUser("alice", "a@x.com")))

	exists, err = s.EmailExists(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.GetUserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = s.GetUserByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = s.GetUserByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestGetUserByEmail(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := testUser("alice", "a@x.com")
	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestListUsers(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, s.CreateUser(ctx, testUser("alice", "a@x.com")))
	require.NoError(t, s.CreateUser(ctx, testUser("bob", "b@x.com")))

	users, err = s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUpdatePasswordHash(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := testUser("alice", "a@x.com")
	require.NoError(t, s.CreateUser(ctx, user))

	require.NoError(t, s.UpdatePasswordHash(ctx, user.ID, "$2a$10$newhash"))

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$newhash", got.PasswordHash)
}

func TestUpdatePasswordHash_NotFound(t *testing.T) {
	s := newTestStorage(t)

	err := s.UpdatePasswordHash(context.Background(), uuid.New().String(), "$2a$10$newhash")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUpdateLastLogin(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := testUser("alice", "a@x.com")
	require.NoError(t, s.CreateUser(ctx, user))

	now := time.Now()
	require.NoError(t, s.UpdateLastLogin(ctx, user.ID, now))

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.WithinDuration(t, now, *got.LastLogin, time.Second)
}
