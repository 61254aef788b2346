// Package api содержит HTTP клиент серверного API
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/iudanet/authgate/pkg/api"
)

// APIError представляет ошибку, возвращенную сервером
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент.
// httpClient может нести transport.Transport для автоматического
// обновления токенов; nil означает клиент по умолчанию.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/register", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Authenticate выполняет аутентификацию пользователя
func (c *Client) Authenticate(ctx context.Context, req api.AuthenticateRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/authenticate", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("authenticate request failed: %w", err)
	}
	return &resp, nil
}

// Renew обменивает пару токенов на новую
func (c *Client) Renew(ctx context.Context, req api.RenewRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/renew", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("renew request failed: %w", err)
	}
	return &resp, nil
}

// Logout инвалидирует refresh токен на сервере.
// Требует валидного access токена в транспорте.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doRequest(ctx, "POST", "/api/v1/auth/logout", nil, nil)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// SendResetEmail запрашивает письмо для сброса пароля
func (c *Client) SendResetEmail(ctx context.Context, email string) (*api.MessageResponse, error) {
	var resp api.MessageResponse
	path := "/api/v1/auth/send-reset-email/" + url.PathEscape(email)
	err := c.doRequest(ctx, "POST", path, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("send reset email request failed: %w", err)
	}
	return &resp, nil
}

// ResetPassword меняет пароль по коду из письма
func (c *Client) ResetPassword(ctx context.Context, req api.ResetPasswordRequest) (*api.MessageResponse, error) {
	var resp api.MessageResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/reset-password", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("reset password request failed: %w", err)
	}
	return &resp, nil
}

// ListUsers возвращает список пользователей (требуется роль admin)
func (c *Client) ListUsers(ctx context.Context) (*api.UsersResponse, error) {
	var resp api.UsersResponse
	err := c.doRequest(ctx, "GET", "/api/v1/users", nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("list users request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Не-2xx ответы возвращаются как APIError с сообщением сервера
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		} else {
			apiErr.Message = string(respBody)
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
