package models

import "time"

// User представляет зарегистрированного пользователя
type User struct {
	ID        int64
	Name      string
	Email     string // уникальный, используется как логин
	PassHash  []byte
	Role      string // "user" или "admin"
	CreatedAt time.Time
}
