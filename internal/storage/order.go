package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/farm2go/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrder вставляет новый заказ в рамках транзакции оформления и возвращает его id.
	CreateOrder(ctx context.Context, tx *sql.Tx, o *models.Order) (int64, error)
	// GetOrderByID возвращает заказ с именем товара (JOIN с products).
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	// ListOrdersByBuyerID возвращает заказы покупателя.
	ListOrdersByBuyerID(ctx context.Context, buyerID int64) ([]*models.Order, error)
	// ListOrdersByFarmerID возвращает входящие заказы фермера.
	ListOrdersByFarmerID(ctx context.Context, farmerID int64) ([]*models.Order, error)
	// UpdateOrderStatus атомарно меняет статус заказа и возвращает обновлённую запись.
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error)
}

// orderRepository — конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, o *models.Order) (int64, error) {
	var id int64
	query := `INSERT INTO orders (buyer_id, farmer_id, product_id, quantity, total_price, status, delivery_address, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING id`
	err := tx.QueryRowContext(ctx, query,
		o.BuyerID, o.FarmerID, o.ProductID, o.Quantity, o.TotalPrice, o.Status, o.DeliveryAddress, o.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	return id, nil
}

const orderSelect = `
	SELECT o.id, o.buyer_id, o.farmer_id, o.product_id, p.name,
	       o.quantity, o.total_price, o.status, o.delivery_address, o.notes,
	       o.created_at, o.updated_at
	FROM orders o
	JOIN products p ON o.product_id = p.id`

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(&o.ID, &o.BuyerID, &o.FarmerID, &o.ProductID, &o.ProductName,
		&o.Quantity, &o.TotalPrice, &o.Status, &o.DeliveryAddress, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, orderSelect+" WHERE o.id = $1", id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) ListOrdersByBuyerID(ctx context.Context, buyerID int64) ([]*models.Order, error) {
	return r.list(ctx, orderSelect+" WHERE o.buyer_id = $1 ORDER BY o.created_at DESC", buyerID)
}

func (r *orderRepository) ListOrdersByFarmerID(ctx context.Context, farmerID int64) ([]*models.Order, error) {
	return r.list(ctx, orderSelect+" WHERE o.farmer_id = $1 ORDER BY o.created_at DESC", farmerID)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus выполняет единственный атомарный UPDATE поля статуса.
// Возвращает обновлённый заказ; других путей изменения статуса в хранилище нет.
func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	query := `
		UPDATE orders o
		SET status = $1, updated_at = NOW()
		FROM products p
		WHERE o.id = $2 AND o.product_id = p.id
		RETURNING o.id, o.buyer_id, o.farmer_id, o.product_id, p.name,
		          o.quantity, o.total_price, o.status, o.delivery_address, o.notes,
		          o.created_at, o.updated_at`
	row := r.db.QueryRowContext(ctx, query, status, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return o, nil
}
