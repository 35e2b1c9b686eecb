package models

import "gorm.io/gorm"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// ParseRole приводит произвольное значение из хранилища к одной из двух ролей.
// Всё, что не "admin", считается обычным пользователем.
func ParseRole(s string) UserRole {
	switch UserRole(s) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// User: строка таблицы users для postgres-хранилища учётных данных.
// IsHashed выставляется при записи: Password либо bcrypt-хеш, либо открытый
// пароль, заведённый руками в БД.
type User struct {
	gorm.Model
	Username string   `gorm:"uniqueIndex;size:50;not null"`
	Name     string   `gorm:"size:255"`
	Password string   `gorm:"not null"`
	IsHashed bool     `gorm:"not null"`
	Role     UserRole `gorm:"type:varchar(20);not null"`
}
