package api

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Username  string `json:"username"`   // уникальный username
	Email     string `json:"email"`      // уникальный email
	Password  string `json:"password"`   // пароль в открытом виде (только в транзите)
	FirstName string `json:"first_name"` // имя
	LastName  string `json:"last_name"`  // фамилия
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	UserID  string `json:"user_id"` // UUID пользователя
	Message string `json:"message"` // сообщение об успешной регистрации
}

// AuthenticateRequest представляет запрос на аутентификацию
type AuthenticateRequest struct {
	Username string `json:"username"` // username пользователя
	Password string `json:"password"` // пароль в открытом виде
}

// TokenResponse представляет ответ с токенами доступа
type TokenResponse struct {
	Message      string `json:"message,omitempty"` // сообщение об успехе
	AccessToken  string `json:"access_token"`      // JWT access token
	RefreshToken string `json:"refresh_token"`     // opaque refresh token
	ExpiresIn    int64  `json:"expires_in"`        // время жизни access token в секундах
}

// RenewRequest представляет запрос на обновление пары токенов.
// AccessToken может быть истекшим: из него извлекается subject,
// RefreshToken проверяется по серверному хранилищу.
type RenewRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ResetPasswordRequest представляет запрос на смену пароля по emailed-коду
type ResetPasswordRequest struct {
	Email           string `json:"email"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
	EmailToken      string `json:"email_token"` // код из письма
}

// MessageResponse представляет ответ, содержащий только сообщение
type MessageResponse struct {
	Message string `json:"message"`
}

// UserInfo представляет пользователя в ответах API (без хеша пароля)
type UserInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UsersResponse представляет список пользователей
type UsersResponse struct {
	Users []UserInfo `json:"users"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
