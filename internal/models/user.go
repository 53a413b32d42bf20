// Package models содержит доменные структуры трекера UGC-кампаний:
// пользователей, сессии, лицензии, квитанции об оплате и данные кампаний.
// Статусы представлены закрытыми перечислениями, чтобы недопустимые значения
// отсекались на границе (парсинг из JSON и из БД).
package models

import (
	"fmt"
	"time"
)

// Role роль пользователя в системе.
type Role string

const (
	// RoleUser: обычный пользователь дашборда.
	RoleUser  Role = "user"
	// RoleAdmin: администратор, подтверждающий оплаты.
	RoleAdmin Role = "admin"
)

// ParseRole разбирает строковое значение роли.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID         string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта (уникальная)
	PasswordHash string    // Хэш пароля пользователя
	Role         Role      // Роль пользователя, admin или user
	CreatedAt    time.Time // Дата регистрации
}

// DummyCredentials используется для приёма email и пароля из JSON-запроса.
type DummyCredentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}
