package models

import "time"

// Sale представляет продажу фермера — доставленный заказ в истории продаж.
// Имя товара и покупателя заполняются через JOIN.
type Sale struct {
	OrderID     int64     `json:"order_id"`
	ProductName string    `json:"product_name"`
	BuyerName   string    `json:"buyer_name"`
	Quantity    int       `json:"quantity"`
	Revenue     float64   `json:"revenue"`
	SoldAt      time.Time `json:"sold_at"` // момент перевода заказа в delivered
}
