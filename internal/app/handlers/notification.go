package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/farm2go/internal/domain/models"
	"github.com/linemk/farm2go/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/farm2go/internal/service"
)

// NotificationsHandler обрабатывает запрос GET /api/notifications.
func NotificationsHandler(log *slog.Logger, notificationService service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.NotificationsHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		notifications, err := notificationService.GetNotifications(r.Context(), userID)
		if err != nil {
			logger.Error("failed to get notifications", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if notifications == nil {
			notifications = []*models.Notification{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(notifications); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}
}
