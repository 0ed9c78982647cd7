package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/farm2go/internal/domain/models"
	"github.com/linemk/farm2go/internal/filter"
	"github.com/linemk/farm2go/internal/storage"
)

// SalesService определяет интерфейс истории продаж фермера.
type SalesService interface {
	GetSales(ctx context.Context, farmerID int64, state filter.State) (*SalesResponse, error)
}

// SalesResponse — продажи за выбранный период плюс сводка.
type SalesResponse struct {
	Sales        []*models.Sale `json:"sales"`
	TotalRevenue float64        `json:"total_revenue"`
	TotalItems   int            `json:"total_items"`
}

type salesService struct {
	log      *slog.Logger
	saleRepo storage.SaleStorage
}

func NewSalesService(log *slog.Logger, saleRepo storage.SaleStorage) SalesService {
	return &salesService{
		log:      log,
		saleRepo: saleRepo,
	}
}

// saleFilterConfig — конфигурация конвейера фильтрации для продаж.
// Выручка подставляется как числовое поле, дата продажи — как дата.
func saleFilterConfig() filter.Config[*models.Sale] {
	return filter.Config[*models.Sale]{
		Amount: func(s *models.Sale) float64 { return s.Revenue },
		Date:   func(s *models.Sale) time.Time { return s.SoldAt },
		Name:   func(s *models.Sale) string { return s.ProductName },
	}
}

// GetSales возвращает доставленные заказы фермера как историю продаж,
// суженную фильтрами (период, диапазон выручки, сортировка), и сводку
// по отфильтрованной выборке.
func (s *salesService) GetSales(ctx context.Context, farmerID int64, state filter.State) (*SalesResponse, error) {
	const op = "service.SalesService.GetSales"
	logger := s.log.With(slog.String("op", op), slog.Int64("farmerID", farmerID))
	logger.Info("getting sales history")

	sales, err := s.saleRepo.ListSalesByFarmerID(ctx, farmerID)
	if err != nil {
		logger.Error("failed to list sales", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list sales: %w", op, err)
	}

	filtered := filter.Apply(sales, state, saleFilterConfig())

	resp := &SalesResponse{Sales: filtered}
	for _, sale := range filtered {
		resp.TotalRevenue += sale.Revenue
		resp.TotalItems += sale.Quantity
	}
	return resp, nil
}
