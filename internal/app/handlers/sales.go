package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/farm2go/internal/domain/models"
	"github.com/linemk/farm2go/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/farm2go/internal/service"
)

// SalesHandler обрабатывает запрос GET /api/farmer/sales (только фермер).
// Query-параметры образуют FilterState (period, revenueRange, sortBy).
func SalesHandler(log *slog.Logger, salesService service.SalesService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SalesHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		role, _ := jwtmiddleware.RoleFromContext(r.Context())
		if role != models.RoleFarmer {
			logger.Warn("non-farmer requested sales", slog.Int64("userID", userID))
			http.Error(w, "only farmers have sales history", http.StatusForbidden)
			return
		}

		resp, err := salesService.GetSales(r.Context(), userID, filterStateFromQuery(r))
		if err != nil {
			logger.Error("failed to get sales", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if resp.Sales == nil {
			resp.Sales = []*models.Sale{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}
}
