package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/farm2go/internal/domain/models"
)

var ErrProductNotFound = errors.New("product not found")

// ProductStorage описывает методы для работы с товарами фермеров.
type ProductStorage interface {
	// CreateProduct добавляет товар на витрину и возвращает его с присвоенным id.
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	// GetProductByID возвращает товар по идентификатору.
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// ListProducts возвращает все товары витрины.
	ListProducts(ctx context.Context) ([]*models.Product, error)
	// ListProductsByFarmerID возвращает товары конкретного фермера.
	ListProductsByFarmerID(ctx context.Context, farmerID int64) ([]*models.Product, error)
	// LockProductByIDTx блокирует строку товара в рамках транзакции оформления заказа.
	LockProductByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error)
	// UpdateProductQuantity изменяет остаток товара в рамках транзакции.
	UpdateProductQuantity(ctx context.Context, tx *sql.Tx, id int64, newQuantity int) error
}

// productRepository — конкретная реализация ProductStorage.
type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

const productColumns = "id, farmer_id, name, category, description, price, quantity, unit, created_at"

func scanProduct(row interface{ Scan(...interface{}) error }) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.FarmerID, &p.Name, &p.Category, &p.Description,
		&p.Price, &p.Quantity, &p.Unit, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (farmer_id, name, category, description, price, quantity, unit, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id`,
		product.FarmerID, product.Name, product.Category, product.Description,
		product.Price, product.Quantity, product.Unit,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	product.ID = id
	return product, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return r.list(ctx, "SELECT "+productColumns+" FROM products ORDER BY created_at DESC")
}

func (r *productRepository) ListProductsByFarmerID(ctx context.Context, farmerID int64) ([]*models.Product, error) {
	return r.list(ctx,
		"SELECT "+productColumns+" FROM products WHERE farmer_id = $1 ORDER BY created_at DESC", farmerID)
}

func (r *productRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) LockProductByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE NOWAIT", id)
	product, err := scanProduct(row)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "55P03" { // lock
				return nil, fmt.Errorf("resource is locked, please try again: %w", err)
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) UpdateProductQuantity(ctx context.Context, tx *sql.Tx, id int64, newQuantity int) error {
	res, err := tx.ExecContext(ctx, "UPDATE products SET quantity = $1 WHERE id = $2", newQuantity, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
