package models

import "time"

// Order представляет заказ покупателя на одну позицию товара фермера.
// Поле Status изменяется только через машину статусов (internal/domain/order).
type Order struct {
	ID              int64     `json:"id"`
	BuyerID         int64     `json:"buyer_id"`
	FarmerID        int64     `json:"farmer_id"`
	ProductID       int64     `json:"product_id"`
	ProductName     string    `json:"product_name"` // Заполняется через JOIN с таблицей products
	Quantity        int       `json:"quantity"`
	TotalPrice      float64   `json:"total_price"`
	Status          string    `json:"status"`
	DeliveryAddress string    `json:"delivery_address,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
