package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authgate/internal/server/service"
	"github.com/iudanet/authgate/internal/server/storage/sqlite"
	"github.com/iudanet/authgate/internal/server/token"
	"github.com/iudanet/authgate/pkg/api"
)

// captureSender запоминает отправленные коды сброса пароля
type captureSender struct {
	mu    sync.Mutex
	codes map[string]string // email -> code
}

func (c *captureSender) SendResetEmail(ctx context.Context, email, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email] = code
	return nil
}

type testServer struct {
	srv    *httptest.Server
	mailer *captureSender
	store  *sqlite.Storage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	issuer := token.NewIssuer(token.Config{
		Secret:          []byte("test-secret-key-for-tests-only"),
		Issuer:          "authgate-test",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})

	mailer := &captureSender{codes: make(map[string]string)}

	authService := service.NewAuthService(logger, store, store, store, issuer, mailer, 15*time.Minute)

	mux := newRouter(logger, authService, issuer, "test")

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, mailer: mailer, store: store}
}

func (ts *testServer) do(t *testing.T, method, path, accessToken string, body, result interface{}) int {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, bodyReader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if result != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(result))
	}

	return resp.StatusCode
}

func (ts *testServer) register(t *testing.T, username, email, password string) api.RegisterResponse {
	t.Helper()

	var resp api.RegisterResponse
	code := ts.do(t, "POST", "/api/v1/auth/register", "", api.RegisterRequest{
		Username:  username,
		Email:     email,
		Password:  password,
		FirstName: "Test",
		LastName:  "User",
	}, &resp)
	require.Equal(t, http.StatusCreated, code)
	return resp
}

func (ts *testServer) authenticate(t *testing.T, username, password string) api.TokenResponse {
	t.Helper()

	var resp api.TokenResponse
	code := ts.do(t, "POST", "/api/v1/auth/authenticate", "", api.AuthenticateRequest{
		Username: username,
		Password: password,
	}, &resp)
	require.Equal(t, http.StatusOK, code)
	return resp
}

func TestRouter_RegisterAndAuthenticate(t *testing.T) {
	ts := newTestServer(t)

	reg := ts.register(t, "alice", "alice@example.com", "secret1")
	assert.NotEmpty(t, reg.UserID)

	tokens := ts.authenticate(t, "alice", "secret1")
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, int64(900), tokens.ExpiresIn)
}

func TestRouter_Authenticate_BadCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice", "alice@example.com", "secret1")

	// Неверный пароль и несуществующий пользователь дают одинаковый 401
	code := ts.do(t, "POST", "/api/v1/auth/authenticate", "", api.AuthenticateRequest{
		Username: "alice", Password: "wrongpass",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code = ts.do(t, "POST", "/api/v1/auth/authenticate", "", api.AuthenticateRequest{
		Username: "nobody", Password: "secret1",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_DuplicateRegistration(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice", "alice@example.com", "secret1")

	code := ts.do(t, "POST", "/api/v1/auth/register", "", api.RegisterRequest{
		Username: "alice", Email: "other@example.com", Password: "secret1",
	}, nil)
	assert.Equal(t, http.StatusConflict, code)

	code = ts.do(t, "POST", "/api/v1/auth/register", "", api.RegisterRequest{
		Username: "bob", Email: "alice@example.com", Password: "secret1",
	}, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestRouter_RenewRotatesTokens(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice", "alice@example.com", "secret1")
	tokens := ts.authenticate(t, "alice", "secret1")

	var renewed api.TokenResponse
	code := ts.do(t, "POST", "/api/v1/auth/renew", "", api.RenewRequest{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, &renewed)
	require.Equal(t, http.StatusOK, code)
	assert.NotEqual(t, tokens.RefreshToken, renewed.RefreshToken)

	// Использованный refresh токен больше не работает
	code = ts.do(t, "POST", "/api/v1/auth/renew", "", api.RenewRequest{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	// Новая пара работает
	code = ts.do(t, "POST", "/api/v1/auth/renew", "", api.RenewRequest{
		AccessToken:  renewed.AccessToken,
		RefreshToken: renewed.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_Logout(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice", "alice@example.com", "secret1")
	tokens := ts.authenticate(t, "alice", "secret1")

	code := ts.do(t, "POST", "/api/v1/auth/logout", tokens.AccessToken, nil, nil)
	assert.Equal(t, http.StatusNoContent, code)

	// После выхода refresh токен невалиден
	code = ts.do(t, "POST", "/api/v1/auth/renew", "", api.RenewRequest{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	// Без токена logout недоступен
	code = ts.do(t, "POST", "/api/v1/auth/logout", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_PasswordResetFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice", "alice@example.com", "secret1")

	code := ts.do(t, "POST", "/api/v1/auth/send-reset-email/alice@example.com", "", nil, nil)
	require.Equal(t, http.StatusOK, code)

	ts.mailer.mu.Lock()
	resetCode := ts.mailer.codes["alice@example.com"]
	ts.mailer.mu.Unlock()
	require.NotEmpty(t, resetCode)

	code = ts.do(t, "POST", "/api/v1/auth/reset-password", "", api.ResetPasswordRequest{
		Email:           "alice@example.com",
		NewPassword:     "newsecret",
		ConfirmPassword: "newsecret",
		EmailToken:      resetCode,
	}, nil)
	require.Equal(t, http.StatusOK, code)

	// Старый пароль не работает, новый работает
	code = ts.do(t, "POST", "/api/v1/auth/authenticate", "", api.AuthenticateRequest{
		Username: "alice", Password: "secret1",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	ts.authenticate(t, "alice", "newsecret")

	// Код одноразовый
	code = ts.do(t, "POST", "/api/v1/auth/reset-password", "", api.ResetPasswordRequest{
		Email:           "alice@example.com",
		NewPassword:     "thirdsecret",
		ConfirmPassword: "thirdsecret",
		EmailToken:      resetCode,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRouter_ResetUnknownEmail(t *testing.T) {
	ts := newTestServer(t)

	// Неизвестный email дает тот же ответ, что и известный
	code := ts.do(t, "POST", "/api/v1/auth/send-reset-email/nobody@example.com", "", nil, nil)
	assert.Equal(t, http.StatusOK, code)

	ts.mailer.mu.Lock()
	defer ts.mailer.mu.Unlock()
	assert.Empty(t, ts.mailer.codes)
}

func TestRouter_ListUsers_AdminOnly(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice", "alice@example.com", "secret1")
	ts.register(t, "bob", "bob@example.com", "secret1")

	tokens := ts.authenticate(t, "alice", "secret1")

	// Обычному пользователю список недоступен
	code := ts.do(t, "GET", "/api/v1/users", tokens.AccessToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// Выдаем alice роль admin и входим заново за новыми claims
	_, err := ts.store.DB().Exec("UPDATE users SET role = 'admin' WHERE username = 'alice'")
	require.NoError(t, err)

	adminTokens := ts.authenticate(t, "alice", "secret1")

	var users api.UsersResponse
	code = ts.do(t, "GET", "/api/v1/users", adminTokens.AccessToken, nil, &users)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, users.Users, 2)

	// Хеши паролей в ответ не попадают
	for _, u := range users.Users {
		assert.NotEmpty(t, u.Username)
		assert.NotEmpty(t, u.Email)
	}
}

func TestRouter_Health(t *testing.T) {
	ts := newTestServer(t)

	code := ts.do(t, "GET", "/api/v1/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, code)
}
