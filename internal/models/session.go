package models

// Session описывает аутентифицированного пользователя, каким его видит гейт.
// Сессию создаёт и уничтожает сервис авторизации, гейт её только читает.
type Session struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	TokenID string `json:"-"`
}

// IsAdmin сообщает, принадлежит ли сессия администратору.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}
