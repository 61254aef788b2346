package crypto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword возвращается при попытке захешировать или проверить
// пустой пароль
var ErrEmptyPassword = fmt.Errorf("password cannot be empty")

// HashPassword хеширует пароль с использованием bcrypt.
// Соль генерируется bcrypt автоматически и включается в результат,
// поэтому один и тот же пароль дает разные хеши.
// Пароль никогда не логируется и не возвращается.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword проверяет, соответствует ли пароль сохраненному хешу.
// Возвращает true только при точном совпадении.
func VerifyPassword(password, hashedPassword string) bool {
	if password == "" || hashedPassword == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
