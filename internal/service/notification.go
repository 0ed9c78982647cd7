package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/farm2go/internal/domain/models"
	"github.com/linemk/farm2go/internal/storage"
)

// NotificationService определяет интерфейс чтения уведомлений пользователя.
type NotificationService interface {
	GetNotifications(ctx context.Context, userID int64) ([]*models.Notification, error)
}

type notificationService struct {
	log       *slog.Logger
	notifRepo storage.NotificationStorage
}

func NewNotificationService(log *slog.Logger, notifRepo storage.NotificationStorage) NotificationService {
	return &notificationService{
		log:       log,
		notifRepo: notifRepo,
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID int64) ([]*models.Notification, error) {
	const op = "service.NotificationService.GetNotifications"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	notifications, err := s.notifRepo.ListNotificationsByUserID(ctx, userID)
	if err != nil {
		logger.Error("failed to list notifications", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list notifications: %w", op, err)
	}
	return notifications, nil
}
