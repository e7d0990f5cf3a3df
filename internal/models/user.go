// Package models содержит доменные модели движка доступа к курсам:
// пользователя с его списками доступа, курс, подписку и производные
// значения (статус подписки и решение о доступе).
package models

import "time"

// Role роль пользователя платформы.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// UserStatus состояние учётной записи.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserInactive  UserStatus = "inactive"
	UserSuspended UserStatus = "suspended"
)

// User снимок пользователя, загружаемый из хранилища.
// Меняется только действиями администратора или биллингом, движок его не изменяет.
type User struct {
	ID              string
	Email           string
	Role            Role
	Status          UserStatus
	BlockedCourses  CourseSet
	AllowedCourses  AllowList
	AccessExpiresAt *time.Time // Устаревшее окно доступа, nil если не задано
}

// IsAdmin сообщает, является ли пользователь администратором.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive сообщает, активна ли учётная запись.
func (u *User) IsActive() bool {
	return u.Status == UserActive
}
