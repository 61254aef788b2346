package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
)

// Sender доставляет пользователю письмо со ссылкой для сброса пароля.
// Реальная доставка (SMTP, внешний провайдер) — внешний collaborator
// и подключается через этот интерфейс.
type Sender interface {
	// SendResetEmail отправляет письмо со ссылкой вида
	// <resetURL>?email=<email>&code=<code>
	SendResetEmail(ctx context.Context, email, code string) error
}

// LogSender — dev-реализация Sender: вместо отправки письма пишет
// ссылку в лог. Код в лог не попадает целиком только на уровне Info,
// поэтому LogSender непригоден для production.
type LogSender struct {
	logger   *slog.Logger
	resetURL string
}

// NewLogSender создает LogSender. resetURL — базовый адрес страницы
// сброса пароля в UI.
func NewLogSender(logger *slog.Logger, resetURL string) *LogSender {
	return &LogSender{
		logger:   logger,
		resetURL: resetURL,
	}
}

// SendResetEmail пишет reset-ссылку в лог
func (s *LogSender) SendResetEmail(ctx context.Context, email, code string) error {
	link := fmt.Sprintf("%s?email=%s&code=%s",
		s.resetURL,
		url.QueryEscape(email),
		url.QueryEscape(code),
	)

	s.logger.InfoContext(ctx, "password reset link issued",
		slog.String("email", email),
		slog.String("link", link))

	return nil
}
