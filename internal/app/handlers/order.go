package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/farm2go/internal/domain/models"
	"github.com/linemk/farm2go/internal/domain/order"
	"github.com/linemk/farm2go/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/farm2go/internal/service"
	"github.com/linemk/farm2go/internal/storage"
)

// CheckoutRequest представляет входной JSON для оформления заказа.
type CheckoutRequest struct {
	ProductID       int64  `json:"product_id" validate:"required,gt=0"`
	Quantity        int    `json:"quantity" validate:"required,gt=0"`
	DeliveryAddress string `json:"delivery_address"`
	Notes           string `json:"notes"`
}

// UpdateStatusRequest представляет входной JSON для смены статуса заказа.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed processing ready delivered cancelled"`
}

// CheckoutHandler обрабатывает запрос POST /api/orders (только покупатель).
func CheckoutHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		role, _ := jwtmiddleware.RoleFromContext(r.Context())
		if role != models.RoleBuyer {
			logger.Warn("non-buyer tried to checkout", slog.Int64("userID", userID))
			http.Error(w, "only buyers can place orders", http.StatusForbidden)
			return
		}

		var req CheckoutRequest
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

		created, err := orderService.Checkout(r.Context(), userID, service.CheckoutInput{
			ProductID:       req.ProductID,
			Quantity:        req.Quantity,
			DeliveryAddress: req.DeliveryAddress,
			Notes:           req.Notes,
		})
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrProductNotFound):
				http.Error(w, "product not found", http.StatusNotFound)
			case errors.Is(err, service.ErrInsufficientStock):
				http.Error(w, "insufficient stock", http.StatusConflict)
			case errors.Is(err, service.ErrOwnProduct):
				http.Error(w, "cannot order your own product", http.StatusBadRequest)
			default:
				logger.Error("checkout failed", slog.Any("error", err))
				http.Error(w, "checkout failed", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(created); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}
}

// OrdersHandler обрабатывает запрос GET /api/orders.
// Покупатель видит свои заказы, фермер — входящие; query-параметры
// образуют FilterState (status, dateRange, amountRange, sortBy).
func OrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		role, _ := jwtmiddleware.RoleFromContext(r.Context())

		orders, err := orderService.Orders(r.Context(), userID, role, filterStateFromQuery(r))
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(orders); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}
}

// UpdateOrderStatusHandler обрабатывает запрос PATCH /api/orders/{id}/status.
func UpdateOrderStatusHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderStatusHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		role, _ := jwtmiddleware.RoleFromContext(r.Context())

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || orderID <= 0 {
			logger.Error("invalid order id")
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req UpdateStatusRequest
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

		updated, err := orderService.UpdateStatus(r.Context(), userID, role, orderID, order.Status(req.Status))
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrOrderNotFound):
				http.Error(w, "order not found", http.StatusNotFound)
			case errors.Is(err, service.ErrAccessDenied):
				http.Error(w, "access denied", http.StatusForbidden)
			case errors.Is(err, order.ErrInvalidTransition):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				logger.Error("failed to update status", slog.Any("error", err))
				http.Error(w, "failed to update status", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(updated); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}
}
