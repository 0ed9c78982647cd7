package models

import "time"

// Роли пользователей площадки
const (
	RoleFarmer = "farmer"
	RoleBuyer  = "buyer"
)

// User представляет пользователя площадки — фермера или покупателя
type User struct {
	ID        int64
	Email     string
	PassHash  []byte
	Name      string
	Role      string // "farmer" или "buyer"
	CreatedAt time.Time
}
