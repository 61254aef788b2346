package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/authgate/internal/server/service"
	"github.com/iudanet/authgate/internal/server/storage"
	"github.com/iudanet/authgate/pkg/api"
)

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	logger *slog.Logger
	auth   *service.AuthService
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{
		logger: logger,
		auth:   auth,
	}
}

// Register обрабатывает POST /api/v1/auth/register
// Регистрация нового пользователя. Токены не выдаются:
// пользователь должен отдельно аутентифицироваться.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode register request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.auth.Register(ctx, req.Username, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			h.sendError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, storage.ErrUsernameTaken):
			h.sendError(w, "username already taken", http.StatusConflict)
		case errors.Is(err, storage.ErrEmailTaken):
			h.sendError(w, "email already taken", http.StatusConflict)
		default:
			h.logger.ErrorContext(ctx, "failed to register user", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	resp := api.RegisterResponse{
		UserID:  user.ID,
		Message: "User registered successfully",
	}

	h.sendJSON(w, resp, http.StatusCreated)
}

// Authenticate обрабатывает POST /api/v1/auth/authenticate
// Проверка учетных данных и выпуск пары токенов
func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.AuthenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode authenticate request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pair, err := h.auth.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			h.sendError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, service.ErrInvalidCredentials):
			h.sendError(w, "invalid credentials", http.StatusUnauthorized)
		default:
			h.logger.ErrorContext(ctx, "failed to authenticate user", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	resp := api.TokenResponse{
		Message:      "Login success",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Renew обрабатывает POST /api/v1/auth/renew
// Обновление пары токенов: access токен может быть истекшим,
// refresh токен проверяется по хранилищу и ротируется
func (h *AuthHandler) Renew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RenewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode renew request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pair, err := h.auth.Renew(ctx, req.AccessToken, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidToken):
			// Любой невалидный токен — 401: клиент должен заново войти
			h.sendError(w, "invalid or expired token", http.StatusUnauthorized)
		default:
			h.logger.ErrorContext(ctx, "failed to renew tokens", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	resp := api.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Logout обрабатывает POST /api/v1/auth/logout
// Выход пользователя (удаление refresh токенов). Маршрут защищен
// auth middleware: user_id берется из контекста.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if _, err := h.auth.Logout(ctx, userID); err != nil {
		h.logger.ErrorContext(ctx, "failed to logout user", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SendResetEmail обрабатывает POST /api/v1/auth/send-reset-email/{email}
// Запускает отправку письма со ссылкой для сброса пароля.
// Ответ одинаковый для известных и неизвестных email.
func (h *AuthHandler) SendResetEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := r.PathValue("email")
	if email == "" {
		h.sendError(w, "email is required", http.StatusBadRequest)
		return
	}

	if err := h.auth.RequestPasswordReset(ctx, email); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			h.sendError(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.ErrorContext(ctx, "failed to request password reset", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.sendJSON(w, api.MessageResponse{Message: "Reset email sent"}, http.StatusOK)
}

// ResetPassword обрабатывает POST /api/v1/auth/reset-password
// Смена пароля по одноразовому emailed-коду
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode reset password request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.auth.ResetPassword(ctx, req.Email, req.NewPassword, req.ConfirmPassword, req.EmailToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			h.sendError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, service.ErrInvalidToken):
			h.sendError(w, "invalid or expired reset code", http.StatusBadRequest)
		default:
			h.logger.ErrorContext(ctx, "failed to reset password", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.sendJSON(w, api.MessageResponse{Message: "Password reset successfully"}, http.StatusOK)
}

// sendJSON отправляет JSON ответ
func (h *AuthHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h *AuthHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}
