package storage

import (
	"context"
	"time"

	"github.com/iudanet/authgate/internal/models"
)

// UserStorage defines interface for user data persistence
type UserStorage interface {
	// CreateUser creates a new user in the storage.
	// Uniqueness of username and email is enforced at write time:
	// returns ErrUsernameTaken or ErrEmailTaken on collision, so a race
	// between two identical registrations yields exactly one success.
	CreateUser(ctx context.Context, user *models.User) error

	// UsernameExists reports whether a user with this username exists
	UsernameExists(ctx context.Context, username string) (bool, error)

	// EmailExists reports whether a user with this email exists
	EmailExists(ctx context.Context, email string) (bool, error)

	// GetUserByUsername retrieves user by username
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// GetUserByEmail retrieves user by email
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// ListUsers returns all users ordered by creation time
	ListUsers(ctx context.Context) ([]*models.User, error)

	// UpdatePasswordHash replaces the stored password hash for a user
	// Returns ErrUserNotFound if user doesn't exist
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error
}
