package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing authentication data on client.
// Tokens are stored as-is: the bearer token is opaque to this layer.
type AuthStorage interface {
	// SaveAuth stores authentication data, replacing any previous session
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored authentication data.
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored authentication data (logout)
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated checks if valid authentication exists (not expired)
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData представляет сохраненную сессию пользователя:
// пара токенов и данные пользователя для отображения
type AuthData struct {
	Username     string `json:"username"`
	UserID       string `json:"user_id"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// IsExpired сообщает, истек ли срок действия access токена
func (a *AuthData) IsExpired() bool {
	return time.Now().Unix() >= a.ExpiresAt
}
