// Package server собирает приложение: хранилище, выпуск токенов,
// сервисный слой, HTTP маршруты и graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/authgate/internal/server/config"
	"github.com/iudanet/authgate/internal/server/handlers"
	"github.com/iudanet/authgate/internal/server/mail"
	"github.com/iudanet/authgate/internal/server/middleware"
	"github.com/iudanet/authgate/internal/server/service"
	"github.com/iudanet/authgate/internal/server/storage/sqlite"
	"github.com/iudanet/authgate/internal/server/token"
)

// App представляет собранное серверное приложение
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	storage *sqlite.Storage
	httpSrv *http.Server
	version string
}

// NewApp создает приложение: открывает хранилище и собирает все слои
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*App, error) {
	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	issuer := token.NewIssuer(token.Config{
		Secret:          []byte(cfg.JWTSecret),
		Issuer:          "authgate",
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})

	mailer := mail.NewLogSender(logger, cfg.ResetURL)

	authService := service.NewAuthService(logger, store, store, store, issuer, mailer, cfg.ResetTokenTTL)

	mux := newRouter(logger, authService, issuer, version)

	// Recovery снаружи, logging внутри: паника логируется один раз
	handler := middleware.RecoveryMiddleware(logger)(
		middleware.LoggingWithSkip(logger, []string{"/api/v1/health"})(mux),
	)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &App{
		cfg:     cfg,
		logger:  logger,
		storage: store,
		httpSrv: httpSrv,
		version: version,
	}, nil
}

// newRouter настраивает маршруты API
func newRouter(logger *slog.Logger, authService *service.AuthService, issuer *token.Issuer, version string) *http.ServeMux {
	authHandler := handlers.NewAuthHandler(logger, authService)
	healthHandler := handlers.NewHealthHandler(logger, version)

	requireAuth := middleware.AuthMiddleware(logger, issuer)

	mux := http.NewServeMux()

	// Публичные маршруты
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/authenticate", authHandler.Authenticate)
	mux.HandleFunc("POST /api/v1/auth/renew", authHandler.Renew)
	mux.HandleFunc("POST /api/v1/auth/send-reset-email/{email}", authHandler.SendResetEmail)
	mux.HandleFunc("POST /api/v1/auth/reset-password", authHandler.ResetPassword)
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)

	// Защищенные маршруты
	mux.Handle("POST /api/v1/auth/logout", requireAuth(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/v1/users", requireAuth(http.HandlerFunc(authHandler.ListUsers)))

	return mux
}

// Run запускает HTTP сервер и блокируется до сигнала завершения
// или ошибки сервера
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("HTTP server starting", slog.String("addr", a.cfg.Addr))
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown error: %w", err)
	}

	if err := a.storage.Close(); err != nil {
		return fmt.Errorf("storage close error: %w", err)
	}

	a.logger.Info("Shutdown complete")

	return nil
}
