package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/farm2go/internal/domain/models"
	"github.com/linemk/farm2go/internal/filter"
	"github.com/linemk/farm2go/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/farm2go/internal/service"
)

// CreateProductRequest представляет входной JSON для добавления товара.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Unit        string  `json:"unit" validate:"required"`
}

// filterStateFromQuery собирает FilterState из query-параметров запроса.
// Нераспознанные ключи конвейер молча игнорирует, поэтому фильтрация
// не требует белого списка.
func filterStateFromQuery(r *http.Request) filter.State {
	state := filter.State{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			state[key] = values[0]
		}
	}
	return state
}

// MarketplaceHandler обрабатывает запрос GET /api/products — витрина для покупателя.
func MarketplaceHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MarketplaceHandler"
		logger := log.With(slog.String("op", op))

		products, err := productService.Marketplace(r.Context(), filterStateFromQuery(r))
		if err != nil {
			logger.Error("failed to load marketplace", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if products == nil {
			products = []*models.Product{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(products); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}
}

// CreateProductHandler обрабатывает запрос POST /api/products (только фермер).
func CreateProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		role, _ := jwtmiddleware.RoleFromContext(r.Context())
		if role != models.RoleFarmer {
			logger.Warn("non-farmer tried to create product", slog.Int64("userID", userID))
			http.Error(w, "only farmers can create products", http.StatusForbidden)
			return
		}

		var req CreateProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		product, err := productService.CreateProduct(r.Context(), userID, &models.Product{
			Name:        req.Name,
			Category:    req.Category,
			Description: req.Description,
			Price:       req.Price,
			Quantity:    req.Quantity,
			Unit:        req.Unit,
		})
		if err != nil {
			logger.Error("failed to create product", slog.Any("error", err))
			http.Error(w, "failed to create product", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(product); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}
}

// FarmerProductsHandler обрабатывает запрос GET /api/farmer/products — склад фермера.
func FarmerProductsHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.FarmerProductsHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		products, err := productService.FarmerProducts(r.Context(), userID, filterStateFromQuery(r))
		if err != nil {
			logger.Error("failed to load farmer products", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if products == nil {
			products = []*models.Product{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(products); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}
}
