// Package transport реализует http.RoundTripper, который подставляет
// access токен в исходящие запросы и прозрачно обновляет пару токенов
// при получении 401.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iudanet/authgate/internal/client/storage"
	"github.com/iudanet/authgate/pkg/api"
)

// ErrSessionExpired означает, что обновить пару токенов не удалось
// и пользователю нужно заново пройти аутентификацию
var ErrSessionExpired = errors.New("session expired, please login again")

// Пути, для которых токен не подставляется и 401 не приводит
// к попытке обновления
var publicPaths = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/authenticate",
	"/api/v1/auth/renew",
	"/api/v1/auth/send-reset-email/",
	"/api/v1/auth/reset-password",
	"/api/v1/health",
}

// Transport оборачивает базовый RoundTripper.
// При 401 выполняется ровно одна попытка обновления: конкурентные
// запросы разделяют её через singleflight, затем исходный запрос
// повторяется один раз с новым токеном.
type Transport struct {
	base       http.RoundTripper
	baseURL    string
	authStore  storage.AuthStorage
	logger     *slog.Logger
	renewGroup singleflight.Group
}

// New создает Transport поверх base (nil означает http.DefaultTransport)
func New(base http.RoundTripper, baseURL string, authStore storage.AuthStorage, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:      base,
		baseURL:   baseURL,
		authStore: authStore,
		logger:    logger,
	}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if isPublicPath(req.URL.Path) {
		return t.base.RoundTrip(req)
	}

	ctx := req.Context()

	auth, err := t.authStore.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			// Нет сессии: запрос уходит без токена
			return t.base.RoundTrip(req)
		}
		return nil, fmt.Errorf("failed to load auth data: %w", err)
	}

	resp, err := t.base.RoundTrip(withBearer(req, auth.AccessToken))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Повторить запрос с телом можно только через GetBody
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	// Ответ 401 дальше не используется
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	renewed, err := t.renew(ctx, auth.AccessToken)
	if err != nil {
		return nil, err
	}

	retry, err := cloneRequest(req)
	if err != nil {
		return nil, err
	}

	return t.base.RoundTrip(withBearer(retry, renewed.AccessToken))
}

// renew обновляет пару токенов. Конкурентные 401 разделяют один
// запрос на обновление через singleflight.
func (t *Transport) renew(ctx context.Context, usedAccessToken string) (*storage.AuthData, error) {
	v, err, _ := t.renewGroup.Do("renew", func() (interface{}, error) {
		// Другой запрос мог уже обновить пару, пока мы ждали
		auth, err := t.authStore.GetAuth(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load auth data: %w", err)
		}
		if auth.AccessToken != usedAccessToken {
			return auth, nil
		}

		tokens, err := t.doRenew(ctx, auth.AccessToken, auth.RefreshToken)
		if err != nil {
			t.logger.Warn("token renewal failed", slog.Any("error", err))
			// Пара невалидна на сервере, локальная копия бесполезна
			_ = t.authStore.DeleteAuth(ctx)
			return nil, ErrSessionExpired
		}

		auth.AccessToken = tokens.AccessToken
		auth.RefreshToken = tokens.RefreshToken
		auth.ExpiresAt = time.Now().Unix() + tokens.ExpiresIn

		if err := t.authStore.SaveAuth(ctx, auth); err != nil {
			return nil, fmt.Errorf("failed to save renewed tokens: %w", err)
		}

		t.logger.Debug("token pair renewed")

		return auth, nil
	})
	if err != nil {
		return nil, err
	}

	auth, ok := v.(*storage.AuthData)
	if !ok {
		return nil, fmt.Errorf("unexpected renew result type %T", v)
	}

	return auth, nil
}

// doRenew выполняет запрос обновления напрямую через базовый
// RoundTripper, минуя перехват 401
func (t *Transport) doRenew(ctx context.Context, accessToken, refreshToken string) (*api.TokenResponse, error) {
	body, err := json.Marshal(api.RenewRequest{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal renew request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/v1/auth/renew", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create renew request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("renew request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read renew response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("renew failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var tokens api.TokenResponse
	if err := json.Unmarshal(respBody, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode renew response: %w", err)
	}

	return &tokens, nil
}

// withBearer возвращает копию запроса с заголовком Authorization
func withBearer(req *http.Request, accessToken string) *http.Request {
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+accessToken)
	return cloned
}

// cloneRequest готовит запрос к повторной отправке,
// восстанавливая тело через GetBody
func cloneRequest(req *http.Request) (*http.Request, error) {
	cloned := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		cloned.Body = body
	}
	return cloned, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
		} else if path == p {
			return true
		}
	}
	return false
}
