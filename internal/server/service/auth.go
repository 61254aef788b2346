// Package service содержит серверную бизнес-логику аутентификации:
// регистрацию, проверку учетных данных, выпуск и ротацию токенов,
// сброс пароля по emailed-коду.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/authgate/internal/crypto"
	"github.com/iudanet/authgate/internal/models"
	"github.com/iudanet/authgate/internal/server/mail"
	"github.com/iudanet/authgate/internal/server/storage"
	"github.com/iudanet/authgate/internal/server/token"
	"github.com/iudanet/authgate/internal/validation"
)

// Ошибки уровня сервиса. Handlers переводят их в HTTP статусы.
var (
	// ErrValidation — некорректный или неполный ввод (400)
	ErrValidation = errors.New("invalid input")

	// ErrInvalidCredentials — неизвестный username или неверный пароль.
	// Намеренно один и тот же результат для обоих случаев, чтобы не
	// позволять перечислять существующие usernames (401).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — истекший, подделанный или несовпавший токен (401)
	ErrInvalidToken = errors.New("invalid token")
)

// TokenPair объединяет короткоживущий access token и длинноживущий
// refresh token
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// AuthService реализует use-case слой авторизации поверх хранилищ,
// выпуска токенов и отправки писем
type AuthService struct {
	logger        *slog.Logger
	users         storage.UserStorage
	tokens        storage.TokenStorage
	resets        storage.ResetTokenStorage
	issuer        *token.Issuer
	mailer        mail.Sender
	resetTokenTTL time.Duration
}

// NewAuthService создает новый AuthService
func NewAuthService(
	logger *slog.Logger,
	users storage.UserStorage,
	tokens storage.TokenStorage,
	resets storage.ResetTokenStorage,
	issuer *token.Issuer,
	mailer mail.Sender,
	resetTokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		logger:        logger,
		users:         users,
		tokens:        tokens,
		resets:        resets,
		issuer:        issuer,
		mailer:        mailer,
		resetTokenTTL: resetTokenTTL,
	}
}

// Register регистрирует нового пользователя. Роль всегда "user",
// токены не выпускаются: пользователь должен отдельно пройти
// аутентификацию.
// Порядок проверки уникальности: сначала username, затем email.
func (s *AuthService) Register(ctx context.Context, username, email, password, firstName, lastName string) (*models.User, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	email = validation.NormalizeEmail(email)

	// Проверяем username до email, чтобы сообщать о первой коллизии
	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, storage.ErrUsernameTaken
	}

	exists, err = s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, storage.ErrEmailTaken
	}

	passwordHash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    time.Now(),
	}

	// Предварительные проверки не закрывают гонку двух одинаковых
	// регистраций: решает UNIQUE constraint в хранилище
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("username", username),
		slog.String("user_id", user.ID))

	return user, nil
}

// Authenticate проверяет учетные данные и выпускает пару токенов.
// Неизвестный username и неверный пароль неразличимы снаружи.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*TokenPair, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.logger.WarnContext(ctx, "authenticate failed: user not found", slog.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !crypto.VerifyPassword(password, user.PasswordHash) {
		s.logger.WarnContext(ctx, "authenticate failed: wrong password", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	// Не критичная ошибка: логируем, но вход не прерываем
	if err := s.users.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "user authenticated",
		slog.String("username", username),
		slog.String("user_id", user.ID))

	return pair, nil
}

// Renew обновляет пару токенов. Subject извлекается из access токена
// с проверкой подписи, но без проверки срока действия (токен к этому
// моменту обычно истек). Предъявленный refresh token должен совпасть
// с хранимым и быть неистекшим; тогда пара ротируется атомарно.
// Любое несовпадение — ErrInvalidToken, состояние не меняется.
func (s *AuthService) Renew(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	if accessToken == "" || refreshToken == "" {
		return nil, fmt.Errorf("%w: both tokens are required", ErrValidation)
	}

	claims, err := s.issuer.ParseExpiredClaims(accessToken)
	if err != nil {
		s.logger.WarnContext(ctx, "renew failed: bad access token", slog.Any("error", err))
		return nil, ErrInvalidToken
	}

	stored, err := s.tokens.GetRefreshTokenByUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			s.logger.WarnContext(ctx, "renew failed: no stored refresh token", slog.String("user_id", claims.Subject))
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored.Token), []byte(refreshToken)) != 1 {
		s.logger.WarnContext(ctx, "renew failed: refresh token mismatch", slog.String("user_id", claims.Subject))
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.logger.WarnContext(ctx, "renew failed: refresh token expired", slog.String("user_id", claims.Subject))
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	newAccess, err := s.issuer.GenerateAccessToken(user.ID, user.Username, user.FullName(), user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefresh, expiresAt, err := s.issuer.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Атомарная ротация: если параллельный renew успел потребить
	// токен первым, эта попытка целиком завершается неудачей
	err = s.tokens.ConsumeRefreshToken(ctx, user.ID, refreshToken, &models.RefreshToken{
		Token:     newRefresh,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens renewed", slog.String("user_id", user.ID))

	return &TokenPair{
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
		ExpiresIn:    s.issuer.AccessTokenTTL(),
	}, nil
}

// Logout удаляет все refresh токены пользователя
func (s *AuthService) Logout(ctx context.Context, userID string) (int, error) {
	deleted, err := s.tokens.DeleteUserTokens(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", userID),
		slog.Int("tokens_deleted", deleted))

	return deleted, nil
}

// RequestPasswordReset выпускает одноразовый код сброса пароля и
// передает его отправителю писем. Для неизвестного email ничего не
// отправляется, но снаружи результат неотличим от успешного.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}

	email = validation.NormalizeEmail(email)

	if _, err := s.users.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.logger.InfoContext(ctx, "reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	code := uuid.New().String()
	resetToken := &models.ResetToken{
		Code:      code,
		Email:     email,
		ExpiresAt: time.Now().Add(s.resetTokenTTL),
		CreatedAt: time.Now(),
	}

	if err := s.resets.SaveResetToken(ctx, resetToken); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	if err := s.mailer.SendResetEmail(ctx, email, code); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	s.logger.InfoContext(ctx, "reset email sent", slog.String("email", email))

	return nil
}

// ResetPassword меняет пароль по emailed-коду. Код одноразовый:
// успешная смена пароля потребляет его. Все refresh токены
// пользователя удаляются.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword, confirmPassword, code string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if newPassword != confirmPassword {
		return fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	if code == "" {
		return fmt.Errorf("%w: reset code is required", ErrValidation)
	}

	email = validation.NormalizeEmail(email)

	if err := s.resets.ConsumeResetToken(ctx, email, code); err != nil {
		if errors.Is(err, storage.ErrResetTokenNotFound) {
			s.logger.WarnContext(ctx, "reset failed: bad or expired code", slog.String("email", email))
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	passwordHash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Смена пароля инвалидирует выданные сессии
	if _, err := s.tokens.DeleteUserTokens(ctx, user.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete user tokens after reset", slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "password reset completed", slog.String("user_id", user.ID))

	return nil
}

// ListUsers возвращает всех пользователей (для административной панели)
func (s *AuthService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// issueTokenPair выпускает access+refresh пару и сохраняет refresh token
func (s *AuthService) issueTokenPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessToken, err := s.issuer.GenerateAccessToken(user.ID, user.Username, user.FullName(), user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, expiresAt, err := s.issuer.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	err = s.tokens.SaveRefreshToken(ctx, &models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.issuer.AccessTokenTTL(),
	}, nil
}
