package models

import "time"

// Роли пользователей. Роль назначается сервером при регистрации,
// клиент повлиять на нее не может.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет пользователя в системе
type User struct {
	ID           string     `json:"id"`                   // UUID пользователя
	Username     string     `json:"username"`             // уникальный username
	Email        string     `json:"email"`                // уникальный email
	PasswordHash string     `json:"-"`                    // bcrypt хеш пароля, никогда не сериализуется
	Role         string     `json:"role"`                 // "user" или "admin"
	FirstName    string     `json:"first_name"`           // имя
	LastName     string     `json:"last_name"`            // фамилия
	CreatedAt    time.Time  `json:"created_at"`           // время создания
	LastLogin    *time.Time `json:"last_login,omitempty"` // время последнего входа
}

// FullName возвращает отображаемое имя пользователя
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RefreshToken представляет refresh token пользователя.
// Токен одноразовый: успешное обновление пары удаляет старую запись
// и создает новую (ротация).
type RefreshToken struct {
	Token     string    `json:"token"`      // opaque значение токена
	UserID    string    `json:"user_id"`    // ID пользователя
	ExpiresAt time.Time `json:"expires_at"` // время истечения
	CreatedAt time.Time `json:"created_at"` // время создания
}

// ResetToken представляет одноразовый код для сброса пароля,
// отправляемый пользователю по email.
type ResetToken struct {
	Code      string    `json:"code"`       // значение кода (UUID)
	Email     string    `json:"email"`      // email, для которого выпущен код
	ExpiresAt time.Time `json:"expires_at"` // время истечения
	CreatedAt time.Time `json:"created_at"` // время создания
}
