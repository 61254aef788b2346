package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims представляет JWT claims access токена.
// Subject (sub) содержит UUID пользователя.
type Claims struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Config содержит конфигурацию выпуска токенов
type Config struct {
	Secret          []byte
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Issuer выпускает и проверяет токены: подписанные JWT access токены
// и opaque refresh токены
type Issuer struct {
	cfg Config
}

// NewIssuer создает новый Issuer
func NewIssuer(cfg Config) *Issuer {
	return &Issuer{cfg: cfg}
}

// AccessTokenTTL возвращает срок жизни access токена в секундах
func (i *Issuer) AccessTokenTTL() int64 {
	return int64(i.cfg.AccessTokenTTL.Seconds())
}

// GenerateAccessToken создает подписанный JWT access token с данными
// пользователя в claims
func (i *Issuer) GenerateAccessToken(userID, username, fullName, role string) (string, error) {
	now := time.Now()

	claims := Claims{
		Username: username,
		FullName: fullName,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    i.cfg.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateAccessToken валидирует и парсит JWT access token.
// Истекший или подделанный токен возвращает ошибку, никогда не
// принимается молча.
func (i *Issuer) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, i.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// ParseExpiredClaims извлекает claims из access токена, проверяя подпись,
// но игнорируя срок действия. Используется при обновлении пары токенов:
// access токен к этому моменту обычно уже истек, но должен быть подписан
// нашим ключом.
func (i *Issuer) ParseExpiredClaims(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, i.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return claims, nil
}

// GenerateRefreshToken создает новый random refresh token
func (i *Issuer) GenerateRefreshToken() (string, time.Time, error) {
	// Генерируем случайные 32 байта
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate random token: %w", err)
	}

	// Кодируем в base64
	token := base64.URLEncoding.EncodeToString(tokenBytes)
	expiresAt := time.Now().Add(i.cfg.RefreshTokenTTL)

	return token, expiresAt, nil
}

// keyFunc проверяет алгоритм подписи и возвращает ключ
func (i *Issuer) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return i.cfg.Secret, nil
}
