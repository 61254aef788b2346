// Package auth реализует клиентские сценарии авторизации:
// регистрацию, вход, выход и сброс пароля.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/authgate/internal/client/api"
	"github.com/iudanet/authgate/internal/client/storage"
	"github.com/iudanet/authgate/internal/client/userstore"
	"github.com/iudanet/authgate/internal/validation"
	pkgapi "github.com/iudanet/authgate/pkg/api"
)

// tokenClaims - клиентское представление claims access токена.
// Подпись здесь не проверяется: токен уже выдан сервером,
// claims нужны только для отображения.
type tokenClaims struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Service предоставляет функции авторизации
type Service struct {
	apiClient *api.Client
	authStore storage.AuthStorage
	users     *userstore.Store
	logger    *slog.Logger
}

// NewService создает новый сервис авторизации
func NewService(apiClient *api.Client, authStore storage.AuthStorage, users *userstore.Store, logger *slog.Logger) *Service {
	return &Service{
		apiClient: apiClient,
		authStore: authStore,
		users:     users,
		logger:    logger,
	}
}

// RegisterResult содержит результат регистрации
type RegisterResult struct {
	UserID   string
	Username string
}

// Register регистрирует нового пользователя.
// Токены не выдаются: после регистрации нужно выполнить Login.
func (s *Service) Register(ctx context.Context, username, email, password, firstName, lastName string) (*RegisterResult, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{
		Username:  username,
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return &RegisterResult{
		UserID:   resp.UserID,
		Username: username,
	}, nil
}

// LoginResult содержит результат входа
type LoginResult struct {
	Username  string
	FullName  string
	Role      string
	ExpiresIn int64
}

// Login выполняет аутентификацию, сохраняет пару токенов локально
// и публикует данные пользователя подписчикам
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.Authenticate(ctx, pkgapi.AuthenticateRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	claims, err := parseClaims(resp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	authData := &storage.AuthData{
		Username:     claims.Username,
		UserID:       claims.Subject,
		FullName:     claims.FullName,
		Role:         claims.Role,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Unix() + resp.ExpiresIn,
	}

	if err := s.authStore.SaveAuth(ctx, authData); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	s.users.Set(userstore.Identity{
		Username: claims.Username,
		FullName: claims.FullName,
		Role:     claims.Role,
	})

	return &LoginResult{
		Username:  claims.Username,
		FullName:  claims.FullName,
		Role:      claims.Role,
		ExpiresIn: resp.ExpiresIn,
	}, nil
}

// Logout выполняет выход: уведомляет сервер (best effort)
// и всегда удаляет локальную сессию
func (s *Service) Logout(ctx context.Context) error {
	_, err := s.authStore.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return fmt.Errorf("not authenticated")
		}
		return fmt.Errorf("failed to get auth data: %w", err)
	}

	if err := s.apiClient.Logout(ctx); err != nil {
		// Сервер недоступен или токен уже невалиден, локальный
		// выход все равно выполняется
		s.logger.Warn("failed to logout on server", slog.Any("error", err))
	}

	if err := s.authStore.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete local auth data: %w", err)
	}

	s.users.Clear()

	return nil
}

// Status возвращает сохраненную сессию.
// Возвращает storage.ErrAuthNotFound, если входа не было.
func (s *Service) Status(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.authStore.GetAuth(ctx)
	if err != nil {
		return nil, err
	}

	s.users.Set(userstore.Identity{
		Username: auth.Username,
		FullName: auth.FullName,
		Role:     auth.Role,
	})

	return auth, nil
}

// RequestReset запрашивает письмо с кодом сброса пароля
func (s *Service) RequestReset(ctx context.Context, email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	if _, err := s.apiClient.SendResetEmail(ctx, validation.NormalizeEmail(email)); err != nil {
		return fmt.Errorf("reset request failed: %w", err)
	}

	return nil
}

// ResetPassword меняет пароль по коду из письма
func (s *Service) ResetPassword(ctx context.Context, email, newPassword, confirmPassword, code string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}
	if newPassword != confirmPassword {
		return fmt.Errorf("passwords do not match")
	}

	_, err := s.apiClient.ResetPassword(ctx, pkgapi.ResetPasswordRequest{
		Email:           validation.NormalizeEmail(email),
		NewPassword:     newPassword,
		ConfirmPassword: confirmPassword,
		EmailToken:      code,
	})
	if err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}

	return nil
}

// ListUsers возвращает список пользователей (требуется роль admin)
func (s *Service) ListUsers(ctx context.Context) ([]pkgapi.UserInfo, error) {
	resp, err := s.apiClient.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// parseClaims извлекает claims из access токена без проверки подписи
func parseClaims(accessToken string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}
