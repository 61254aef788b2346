package handlers

// contextKey — отдельный тип для ключей контекста, чтобы не
// конфликтовать с другими пакетами
type contextKey string

// Ключи контекста, заполняемые auth middleware из claims access токена
const (
	UserIDKey   contextKey = "user_id"
	UsernameKey contextKey = "username"
	RoleKey     contextKey = "role"
)
