package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/farm2go/internal/domain/models"
	"github.com/linemk/farm2go/internal/domain/order"
	"github.com/linemk/farm2go/internal/filter"
	"github.com/linemk/farm2go/internal/notify"
	"github.com/linemk/farm2go/internal/storage"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOwnProduct        = errors.New("cannot order your own product")
	ErrAccessDenied      = errors.New("access denied")
)

// CheckoutInput — данные оформления заказа покупателем.
type CheckoutInput struct {
	ProductID       int64
	Quantity        int
	DeliveryAddress string
	Notes           string
}

// OrderService определяет операции над заказами.
type OrderService interface {
	// Checkout оформляет заказ на одну позицию: проверяет остаток,
	// списывает его и создаёт заказ в статусе pending одной транзакцией.
	Checkout(ctx context.Context, buyerID int64, in CheckoutInput) (*models.Order, error)
	// Orders возвращает заказы, видимые вызывающему: свои для покупателя,
	// входящие для фермера; список сужается фильтрами.
	Orders(ctx context.Context, userID int64, role string, state filter.State) ([]*models.Order, error)
	// UpdateStatus проводит заказ по машине статусов: авторизация,
	// валидация ребра, атомарное сохранение, затем уведомление контрагента.
	UpdateStatus(ctx context.Context, actorID int64, actorRole string, orderID int64, target order.Status) (*models.Order, error)
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	orderRepo   storage.OrderStorage
	productRepo storage.ProductStorage
	userRepo    storage.UserStorage
	notifier    notify.Notifier
}

func NewOrderService(log *slog.Logger, db *sql.DB, orderRepo storage.OrderStorage,
	productRepo storage.ProductStorage, userRepo storage.UserStorage, notifier notify.Notifier) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

// orderFilterConfig — конфигурация конвейера фильтрации для заказов.
// Статус — пользовательский предикат: это доменное поле, а не одна из
// стандартных секций конвейера.
func orderFilterConfig() filter.Config[*models.Order] {
	return filter.Config[*models.Order]{
		Amount: func(o *models.Order) float64 { return o.TotalPrice },
		Date:   func(o *models.Order) time.Time { return o.CreatedAt },
		Name:   func(o *models.Order) string { return o.ProductName },
		Custom: map[string]func(o *models.Order, value string) bool{
			"status": func(o *models.Order, value string) bool {
				return o.Status == value
			},
		},
	}
}

// Checkout оформляет покупку. Если что-то идет не так, транзакция откатывается
func (s *orderService) Checkout(ctx context.Context, buyerID int64, in CheckoutInput) (*models.Order, error) {
	const op = "service.OrderService.Checkout"
	logger := s.log.With(slog.String("op", op), slog.Int64("buyerID", buyerID), slog.Int64("productID", in.ProductID))
	logger.Info("starting checkout transaction")

	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%s: quantity must be positive", op)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// Блокируем строку товара на время оформления
	product, err := s.productRepo.LockProductByIDTx(ctx, tx, in.ProductID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	// Покупка собственного товара запрещена
	if product.FarmerID == buyerID {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("buyer owns the product")
		return nil, fmt.Errorf("%s: %w", op, ErrOwnProduct)
	}

	// Проверяем остаток
	if product.Quantity < in.Quantity {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("insufficient stock", slog.Int("available", product.Quantity), slog.Int("requested", in.Quantity))
		return nil, fmt.Errorf("%s: %w", op, ErrInsufficientStock)
	}

	// Списываем остаток товара
	if err := s.productRepo.UpdateProductQuantity(ctx, tx, product.ID, product.Quantity-in.Quantity); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to update product quantity", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update product quantity: %w", op, err)
	}

	// Создаем заказ в начальном статусе pending
	newOrder := &models.Order{
		BuyerID:         buyerID,
		FarmerID:        product.FarmerID,
		ProductID:       product.ID,
		ProductName:     product.Name,
		Quantity:        in.Quantity,
		TotalPrice:      product.Price * float64(in.Quantity),
		Status:          string(order.StatusPending),
		DeliveryAddress: in.DeliveryAddress,
		Notes:           in.Notes,
	}
	orderID, err := s.orderRepo.CreateOrder(ctx, tx, newOrder)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}
	newOrder.ID = orderID

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("checkout completed successfully", slog.Int64("orderID", orderID))
	return newOrder, nil
}

func (s *orderService) Orders(ctx context.Context, userID int64, role string, state filter.State) ([]*models.Order, error) {
	const op = "service.OrderService.Orders"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.String("role", role))

	var (
		orders []*models.Order
		err    error
	)
	if role == models.RoleFarmer {
		orders, err = s.orderRepo.ListOrdersByFarmerID(ctx, userID)
	} else {
		orders, err = s.orderRepo.ListOrdersByBuyerID(ctx, userID)
	}
	if err != nil {
		logger.Error("failed to list orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list orders: %w", op, err)
	}

	return filter.Apply(orders, state, orderFilterConfig()), nil
}

// UpdateStatus проводит заказ по машине статусов.
// Порядок эффектов фиксирован: сначала атомарное сохранение нового статуса,
// затем уведомление контрагента. Ошибка сохранения прерывает операцию до
// уведомления; ошибка уведомления логируется и не откатывает уже
// сохранённый статус — запись заказа считается авторитетной.
func (s *orderService) UpdateStatus(ctx context.Context, actorID int64, actorRole string, orderID int64, target order.Status) (*models.Order, error) {
	const op = "service.OrderService.UpdateStatus"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("actorID", actorID),
		slog.Int64("orderID", orderID),
		slog.String("target", string(target)),
	)
	logger.Info("updating order status")

	current, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		logger.Error("failed to get order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	// Авторизация: переходы вперёд делает фермер; отмену может запросить
	// и покупатель (допустимость состояния проверит машина статусов)
	if err := authorizeTransition(current, actorID, actorRole, target); err != nil {
		logger.Warn("transition not authorized", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Валидация ребра перехода; повтор текущего статуса — идемпотентный no-op
	updated, err := order.Transition(*current, target)
	if err != nil {
		logger.Warn("transition rejected", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if updated.Status == current.Status {
		logger.Info("status unchanged, nothing to do")
		return current, nil
	}

	// Сохраняем новый статус одним атомарным UPDATE
	stored, err := s.orderRepo.UpdateOrderStatus(ctx, orderID, updated.Status)
	if err != nil {
		logger.Error("failed to persist status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to persist status: %w", op, err)
	}

	// Уведомляем контрагента после успешного сохранения; неудача доставки
	// не считается неудачей смены статуса
	recipientID := stored.FarmerID
	if actorID == stored.FarmerID {
		recipientID = stored.BuyerID
	}
	change := notify.StatusChange{
		OrderID:     stored.ID,
		ActorID:     actorID,
		RecipientID: recipientID,
		OldStatus:   current.Status,
		NewStatus:   stored.Status,
		Summary:     s.changeSummary(ctx, actorID, stored),
	}
	if err := s.notifier.NotifyStatusChange(ctx, change); err != nil {
		logger.Error("failed to notify counterparty", slog.Any("error", err))
	}

	logger.Info("order status updated", slog.String("from", current.Status), slog.String("to", stored.Status))
	return stored, nil
}

// changeSummary собирает человекочитаемое описание изменения: кто изменил,
// какой товар, количество и сумма. Ошибки поиска имени не прерывают
// уведомление — имя просто опускается.
func (s *orderService) changeSummary(ctx context.Context, actorID int64, o *models.Order) string {
	actorName := ""
	if actor, err := s.userRepo.GetUserByID(ctx, actorID); err == nil {
		actorName = actor.Name
	}
	summary := fmt.Sprintf("%s x%d (%.2f total)", o.ProductName, o.Quantity, o.TotalPrice)
	if actorName != "" {
		summary = fmt.Sprintf("%s — updated by %s", summary, actorName)
	}
	return summary
}

// authorizeTransition проверяет право действующего лица на переход.
// Машина статусов остаётся безролевой, роли — забота сервиса.
func authorizeTransition(o *models.Order, actorID int64, actorRole string, target order.Status) error {
	switch {
	case target == order.StatusCancelled:
		// Отменить может любая из сторон заказа
		if actorID != o.BuyerID && actorID != o.FarmerID {
			return ErrAccessDenied
		}
	default:
		// Переходы вперёд — только фермер заказа
		if actorRole != models.RoleFarmer || actorID != o.FarmerID {
			return ErrAccessDenied
		}
	}
	return nil
}
