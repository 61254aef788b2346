package storage

import (
	"context"

	"github.com/iudanet/authgate/internal/models"
)

// TokenStorage defines interface for refresh token persistence
type TokenStorage interface {
	// SaveRefreshToken stores a new refresh token for a user,
	// replacing any previously stored tokens for that user
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error

	// GetRefreshTokenByUser retrieves the stored refresh token for a user
	// Returns ErrTokenNotFound if no token is stored
	GetRefreshTokenByUser(ctx context.Context, userID string) (*models.RefreshToken, error)

	// ConsumeRefreshToken atomically deletes the stored token for the user
	// if and only if it matches the given value, and stores the replacement.
	// Returns ErrTokenNotFound if the stored token does not match: the
	// replacement is NOT stored in that case. Two concurrent consumers of
	// the same token get exactly one success.
	ConsumeRefreshToken(ctx context.Context, userID, oldToken string, newToken *models.RefreshToken) error

	// DeleteUserTokens deletes all refresh tokens for a user (logout)
	// Returns number of deleted tokens
	DeleteUserTokens(ctx context.Context, userID string) (int, error)

	// DeleteExpiredTokens removes all expired tokens
	// Returns number of deleted tokens
	DeleteExpiredTokens(ctx context.Context) (int, error)
}
