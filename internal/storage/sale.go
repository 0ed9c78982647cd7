package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/farm2go/internal/domain/models"
)

// SaleStorage описывает чтение истории продаж фермера.
// Продажа — это доставленный заказ; отдельной таблицы нет.
type SaleStorage interface {
	ListSalesByFarmerID(ctx context.Context, farmerID int64) ([]*models.Sale, error)
}

// NewSaleRepository создаёт репозиторий продаж поверх таблицы заказов.
func NewSaleRepository(db *sql.DB) SaleStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) ListSalesByFarmerID(ctx context.Context, farmerID int64) ([]*models.Sale, error) {
	query := `
		SELECT o.id, p.name, u.name, o.quantity, o.total_price, o.updated_at
		FROM orders o
		JOIN products p ON o.product_id = p.id
		JOIN users u ON o.buyer_id = u.id
		WHERE o.farmer_id = $1 AND o.status = 'delivered'
		ORDER BY o.updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []*models.Sale
	for rows.Next() {
		s := &models.Sale{}
		if err := rows.Scan(&s.OrderID, &s.ProductName, &s.BuyerName, &s.Quantity, &s.Revenue, &s.SoldAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}
