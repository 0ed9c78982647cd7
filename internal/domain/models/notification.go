package models

import "time"

// Типы уведомлений
const (
	NotificationOrderStatus = "order_status"
)

// Notification представляет уведомление пользователя о событии по заказу.
type Notification struct {
	ID        string    `json:"id"` // uuid
	UserID    int64     `json:"user_id"`
	OrderID   int64     `json:"order_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
