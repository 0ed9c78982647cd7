// Package notify доставляет уведомления об изменении статуса заказа:
// строка в таблице notifications плюс событие в redis-канал получателя.
// Доставка — fire-and-observe: вызывающая сторона логирует ошибку и не
// откатывает уже сохранённый статус заказа.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/linemk/farm2go/internal/domain/models"
	"github.com/linemk/farm2go/internal/storage"
)

// StatusChange описывает состоявшееся изменение статуса заказа.
type StatusChange struct {
	OrderID     int64  `json:"order_id"`
	ActorID     int64  `json:"actor_id"`     // кто изменил статус
	RecipientID int64  `json:"recipient_id"` // контрагент, которого уведомляем
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
	Summary     string `json:"summary"` // человекочитаемое описание: товар, количество, сумма
}

// event — полезная нагрузка, публикуемая в redis.
type event struct {
	ID   string       `json:"id"`
	Type string       `json:"type"`
	At   time.Time    `json:"at"`
	Data StatusChange `json:"data"`
}

// Notifier — интерфейс уведомления контрагента об изменении статуса.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, change StatusChange) error
}

type notifier struct {
	log       *slog.Logger
	notifRepo storage.NotificationStorage
	redis     *redis.Client // nil — публикация событий отключена
}

// New создаёт Notifier. redisClient может быть nil: тогда уведомления
// только сохраняются в БД, без realtime-канала.
func New(log *slog.Logger, notifRepo storage.NotificationStorage, redisClient *redis.Client) Notifier {
	return &notifier{
		log:       log,
		notifRepo: notifRepo,
		redis:     redisClient,
	}
}

// NotifyStatusChange сохраняет уведомление и публикует событие.
// Ошибка публикации в redis логируется и не возвращается: запись в БД —
// основной канал, realtime — best effort.
func (n *notifier) NotifyStatusChange(ctx context.Context, change StatusChange) error {
	const op = "notify.NotifyStatusChange"
	logger := n.log.With(
		slog.String("op", op),
		slog.Int64("orderID", change.OrderID),
		slog.Int64("recipientID", change.RecipientID),
	)

	eventID := uuid.NewString()
	notification := &models.Notification{
		ID:        eventID,
		UserID:    change.RecipientID,
		OrderID:   change.OrderID,
		Type:      models.NotificationOrderStatus,
		Title:     fmt.Sprintf("Order #%d is now %s", change.OrderID, change.NewStatus),
		Body:      change.Summary,
		OldStatus: change.OldStatus,
		NewStatus: change.NewStatus,
	}
	if err := n.notifRepo.CreateNotification(ctx, notification); err != nil {
		return fmt.Errorf("%s: failed to store notification: %w", op, err)
	}

	if n.redis == nil {
		return nil
	}

	payload, err := json.Marshal(event{
		ID:   eventID,
		Type: models.NotificationOrderStatus,
		At:   time.Now(),
		Data: change,
	})
	if err != nil {
		logger.Error("failed to marshal event", slog.Any("error", err))
		return nil
	}

	channel := fmt.Sprintf("user:%d:events", change.RecipientID)
	if err := n.redis.Publish(ctx, channel, payload).Err(); err != nil {
		logger.Error("failed to publish event", slog.String("channel", channel), slog.Any("error", err))
	}
	return nil
}
