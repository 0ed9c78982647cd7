package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/farm2go/internal/domain/models"
)

// NotificationStorage описывает методы для работы с уведомлениями.
type NotificationStorage interface {
	// CreateNotification сохраняет уведомление пользователя.
	CreateNotification(ctx context.Context, n *models.Notification) error
	// ListNotificationsByUserID возвращает уведомления пользователя, новые первыми.
	ListNotificationsByUserID(ctx context.Context, userID int64) ([]*models.Notification, error)
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationStorage {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `INSERT INTO notifications (id, user_id, order_id, type, title, body, old_status, new_status, read, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.OrderID, n.Type, n.Title, n.Body, n.OldStatus, n.NewStatus, n.Read)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListNotificationsByUserID(ctx context.Context, userID int64) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, order_id, type, title, body, old_status, new_status, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.OrderID, &n.Type, &n.Title, &n.Body,
			&n.OldStatus, &n.NewStatus, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}
