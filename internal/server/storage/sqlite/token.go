package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/authgate/internal/models"
	"github.com/iudanet/authgate/internal/server/storage"
)

// SaveRefreshToken stores a new refresh token for a user,
// replacing any previously stored tokens for that user
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback после commit — no-op

	// У пользователя хранится ровно один актуальный refresh token
	if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, token.UserID); err != nil {
		return fmt.Errorf("failed to delete old tokens: %w", err)
	}

	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		token.Token,
		token.UserID,
		token.ExpiresAt,
		token.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// GetRefreshTokenByUser retrieves the stored refresh token for a user
func (s *Storage) GetRefreshTokenByUser(ctx context.Context, userID string) (*models.RefreshToken, error) {
	query := `
		SELECT token, user_id, expires_at, created_at
		FROM refresh_tokens
		WHERE user_id = ?
	`

	token := &models.RefreshToken{}
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&token.Token,
		&token.UserID,
		&token.ExpiresAt,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return token, nil
}

// ConsumeRefreshToken atomically rotates the user's refresh token.
// Удаление старого токена и запись нового выполняются в одной транзакции:
// если предъявленный токен не совпал с хранимым (например, его уже
// потребила параллельная ротация), вся операция откатывается и состояние
// не меняется.
func (s *Storage) ConsumeRefreshToken(ctx context.Context, userID, oldToken string, newToken *models.RefreshToken) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback после commit — no-op

	result, err := tx.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = ? AND token = ?`,
		userID, oldToken,
	)
	if err != nil {
		return fmt.Errorf("failed to consume refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		// Хранимый токен не совпал или отсутствует — ротация не происходит
		return storage.ErrTokenNotFound
	}

	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		newToken.Token,
		newToken.UserID,
		newToken.ExpiresAt,
		newToken.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert new refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// DeleteUserTokens deletes all refresh tokens for a user
func (s *Storage) DeleteUserTokens(ctx context.Context, userID string) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

// DeleteExpiredTokens removes all expired tokens
func (s *Storage) DeleteExpiredTokens(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
