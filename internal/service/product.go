package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/linemk/farm2go/internal/domain/models"
	"github.com/linemk/farm2go/internal/filter"
	"github.com/linemk/farm2go/internal/storage"
)

// ProductService определяет операции с витриной и товарами фермера.
type ProductService interface {
	// CreateProduct добавляет товар фермера на витрину.
	CreateProduct(ctx context.Context, farmerID int64, product *models.Product) (*models.Product, error)
	// Marketplace возвращает витрину, суженную фильтрами покупателя.
	Marketplace(ctx context.Context, state filter.State) ([]*models.Product, error)
	// FarmerProducts возвращает товары фермера, суженные фильтрами.
	FarmerProducts(ctx context.Context, farmerID int64, state filter.State) ([]*models.Product, error)
}

type productService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
}

func NewProductService(log *slog.Logger, productRepo storage.ProductStorage) ProductService {
	return &productService{
		log:         log,
		productRepo: productRepo,
	}
}

// productFilterConfig — конфигурация конвейера фильтрации для товаров.
// Помимо стандартных секций поддерживается поиск по подстроке имени и
// переключатель "только в наличии".
func productFilterConfig() filter.Config[*models.Product] {
	return filter.Config[*models.Product]{
		Category: func(p *models.Product) string { return p.Category },
		Amount:   func(p *models.Product) float64 { return p.Price },
		Date:     func(p *models.Product) time.Time { return p.CreatedAt },
		Name:     func(p *models.Product) string { return p.Name },
		Custom: map[string]func(p *models.Product, value string) bool{
			"search": func(p *models.Product, value string) bool {
				return strings.Contains(strings.ToLower(p.Name), strings.ToLower(value))
			},
			"inStock": func(p *models.Product, value string) bool {
				return value != "true" || p.Quantity > 0
			},
		},
	}
}

func (s *productService) CreateProduct(ctx context.Context, farmerID int64, product *models.Product) (*models.Product, error) {
	const op = "service.ProductService.CreateProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("farmerID", farmerID))
	logger.Info("creating product", slog.String("name", product.Name))

	product.FarmerID = farmerID
	created, err := s.productRepo.CreateProduct(ctx, product)
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create product: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", created.ID))
	return created, nil
}

func (s *productService) Marketplace(ctx context.Context, state filter.State) ([]*models.Product, error) {
	const op = "service.ProductService.Marketplace"
	logger := s.log.With(slog.String("op", op))

	products, err := s.productRepo.ListProducts(ctx)
	if err != nil {
		logger.Error("failed to list products", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list products: %w", op, err)
	}

	return filter.Apply(products, state, productFilterConfig()), nil
}

func (s *productService) FarmerProducts(ctx context.Context, farmerID int64, state filter.State) ([]*models.Product, error) {
	const op = "service.ProductService.FarmerProducts"
	logger := s.log.With(slog.String("op", op), slog.Int64("farmerID", farmerID))

	products, err := s.productRepo.ListProductsByFarmerID(ctx, farmerID)
	if err != nil {
		logger.Error("failed to list farmer products", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list farmer products: %w", op, err)
	}

	return filter.Apply(products, state, productFilterConfig()), nil
}
