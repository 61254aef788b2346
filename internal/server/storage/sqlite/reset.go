package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/authgate/internal/models"
	"github.com/iudanet/authgate/internal/server/storage"
)

// SaveResetToken stores a new reset code for an email,
// replacing any previously issued code for that email
func (s *Storage) SaveResetToken(ctx context.Context, token *models.ResetToken) error {
	// Email — primary key: повторный запрос сброса перезаписывает код
	query := `
		INSERT INTO reset_tokens (email, code, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			code = excluded.code,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at
	`

	_, err := s.db.ExecContext(ctx, query,
		token.Email,
		token.Code,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	return nil
}

// ConsumeResetToken atomically deletes the code for the email if it
// matches and is not expired. Одноразовость обеспечивается удалением:
// повторное предъявление того же кода не находит строку.
func (s *Storage) ConsumeResetToken(ctx context.Context, email, code string) error {
	query := `
		DELETE FROM reset_tokens
		WHERE email = ? AND code = ? AND expires_at > ?
	`

	result, err := s.db.ExecContext(ctx, query, email, code, time.Now())
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrResetTokenNotFound
	}

	return nil
}

// DeleteExpiredResetTokens removes all expired codes
func (s *Storage) DeleteExpiredResetTokens(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE expires_at < ?`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
