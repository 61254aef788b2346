package storage

import (
	"context"

	"github.com/iudanet/authgate/internal/models"
)

// ResetTokenStorage defines interface for password reset code persistence
type ResetTokenStorage interface {
	// SaveResetToken stores a new reset code for an email,
	// replacing any previously issued code for that email
	SaveResetToken(ctx context.Context, token *models.ResetToken) error

	// ConsumeResetToken atomically deletes the code for the email if it
	// matches and is not expired. Returns ErrResetTokenNotFound otherwise.
	// A code can be consumed at most once.
	ConsumeResetToken(ctx context.Context, email, code string) error

	// DeleteExpiredResetTokens removes all expired codes
	// Returns number of deleted codes
	DeleteExpiredResetTokens(ctx context.Context) (int, error)
}
