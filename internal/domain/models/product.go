package models

import "time"

// Product представляет товар фермера, доступный на витрине
type Product struct {
	ID          int64     `json:"id"`
	FarmerID    int64     `json:"farmer_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"` // например, "vegetables", "fruits", "dairy"
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"` // цена за единицу
	Quantity    int       `json:"quantity"`
	Unit        string    `json:"unit"` // "kg", "piece", "litre"
	CreatedAt   time.Time `json:"created_at"`
}
