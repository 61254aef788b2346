// Package config содержит конфигурацию сервера: defaults,
// переменные окружения и флаги командной строки.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the AuthGate server
type Config struct {
	// Addr — адрес и порт HTTP сервера
	Addr string
	// DBPath — путь к файлу SQLite базы данных
	DBPath string
	// JWTSecret — HMAC секрет для подписи access токенов (HS256).
	// Обязателен: сервер не стартует с пустым секретом.
	JWTSecret string
	// ResetURL — базовый адрес страницы сброса пароля в UI
	ResetURL string
	// AccessTokenTTL — срок жизни access токена (минуты)
	AccessTokenTTL time.Duration
	// RefreshTokenTTL — срок жизни refresh токена (дни)
	RefreshTokenTTL time.Duration
	// ResetTokenTTL — срок жизни emailed-кода сброса пароля
	ResetTokenTTL time.Duration
}

// loadDefaults заполняет Config значениями по умолчанию
func (c *Config) loadDefaults() {
	c.Addr = ":8080"
	c.DBPath = "authgate.db"
	c.ResetURL = "http://localhost:4200/reset"
	c.AccessTokenTTL = 15 * time.Minute
	c.RefreshTokenTTL = 7 * 24 * time.Hour
	c.ResetTokenTTL = 15 * time.Minute
}

// parseEnv накладывает значения из переменных окружения
func (c *Config) parseEnv() {
	if v := os.Getenv("AUTHGATE_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("AUTHGATE_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("AUTHGATE_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("AUTHGATE_RESET_URL"); v != "" {
		c.ResetURL = v
	}
	if v := os.Getenv("AUTHGATE_ACCESS_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.AccessTokenTTL = d
		}
	}
	if v := os.Getenv("AUTHGATE_REFRESH_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RefreshTokenTTL = d
		}
	}
	if v := os.Getenv("AUTHGATE_RESET_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ResetTokenTTL = d
		}
	}
}

// parseFlags накладывает значения из флагов командной строки.
// Флаги имеют приоритет над переменными окружения.
func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&c.Addr, "addr", c.Addr, "address and port to run server")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "path to SQLite database file")
	fs.StringVar(&c.JWTSecret, "secret", c.JWTSecret, "JWT HMAC secret key")
	fs.StringVar(&c.ResetURL, "reset-url", c.ResetURL, "base URL of the password reset page")
	fs.DurationVar(&c.AccessTokenTTL, "access-ttl", c.AccessTokenTTL, "access token TTL")
	fs.DurationVar(&c.RefreshTokenTTL, "refresh-ttl", c.RefreshTokenTTL, "refresh token TTL")
	fs.DurationVar(&c.ResetTokenTTL, "reset-ttl", c.ResetTokenTTL, "password reset code TTL")

	return fs.Parse(args)
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required (flag -secret or env AUTHGATE_JWT_SECRET)")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token TTL must be positive")
	}
	if c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("refresh token TTL must be positive")
	}
	return nil
}

// Load builds a Config: defaults, затем env, затем флаги
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.loadDefaults()
	cfg.parseEnv()

	if err := cfg.parseFlags(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
