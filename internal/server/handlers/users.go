package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/authgate/internal/models"
	"github.com/iudanet/authgate/pkg/api"
)

// ListUsers обрабатывает GET /api/v1/users
// Список пользователей для административной панели. Маршрут защищен
// auth middleware; дополнительно требуется роль admin.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	role, _ := ctx.Value(RoleKey).(string)
	if role != models.RoleAdmin {
		h.sendError(w, "admin role required", http.StatusForbidden)
		return
	}

	users, err := h.auth.ListUsers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list users", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.UsersResponse{Users: make([]api.UserInfo, 0, len(users))}
	for _, u := range users {
		// Хеш пароля наружу не отдается
		resp.Users = append(resp.Users, api.UserInfo{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Role:      u.Role,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		})
	}

	h.sendJSON(w, resp, http.StatusOK)
}
