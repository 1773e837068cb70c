package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/inventory-api/internal/domain/models"
	"github.com/linemk/inventory-api/internal/storage"
)

// OrderItemInput — позиция входящего запроса на заказ: товар и количество.
type OrderItemInput struct {
	ProductID int64
	Quantity  int
}

// OrderSummary — результат успешного оформления заказа.
type OrderSummary struct {
	OrderID     int64   `json:"order_id"`
	TotalAmount float64 `json:"total_amount"`
	Status      string  `json:"status"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID int64, items []OrderItemInput) (*OrderSummary, error)
	GetOrder(ctx context.Context, orderID, userID int64) (*models.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	CancelOrder(ctx context.Context, orderID, userID int64) error
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, productRepo storage.ProductStorage, orderRepo storage.OrderStorage) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// CreateOrder оформляет заказ одной транзакцией: на каждый товар берётся
// блокировка FOR UPDATE, остаток проверяется и списывается под ней, позиция
// фиксируется со снимком цены. Любая ошибка откатывает всё: ни частичного
// заказа, ни частичного списания остатков не остаётся.
func (s *orderService) CreateOrder(ctx context.Context, userID int64, items []OrderItemInput) (*OrderSummary, error) {
	const op = "service.OrderService.CreateOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int("items", len(items)))
	logger.Info("starting order transaction")

	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyOrder)
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// Сначала создаём сам заказ, чтобы у позиций был стабильный идентификатор
	orderID, err := s.orderRepo.CreateOrder(ctx, tx, userID)
	if err != nil {
		s.rollback(logger, tx)
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	var total float64
	// Позиции обрабатываются в порядке запроса — сумма детерминирована
	for _, item := range items {
		product, err := s.productRepo.GetProductForUpdate(ctx, tx, item.ProductID)
		if err != nil {
			s.rollback(logger, tx)
			if errors.Is(err, storage.ErrProductNotFound) {
				logger.Warn("product not found", slog.Int64("productID", item.ProductID))
				return nil, fmt.Errorf("%s: %w", op, &ProductNotFoundError{ProductID: item.ProductID})
			}
			logger.Error("failed to lock product", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to lock product: %w", op, err)
		}

		if product.Stock < item.Quantity {
			s.rollback(logger, tx)
			logger.Warn("insufficient stock",
				slog.Int64("productID", product.ID),
				slog.Int("requested", item.Quantity),
				slog.Int("available", product.Stock),
			)
			return nil, fmt.Errorf("%s: %w", op, &InsufficientStockError{
				ProductID: product.ID,
				Requested: item.Quantity,
				Available: product.Stock,
			})
		}

		if err := s.productRepo.DecrementStock(ctx, tx, product.ID, item.Quantity); err != nil {
			s.rollback(logger, tx)
			logger.Error("failed to decrement stock", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to decrement stock: %w", op, err)
		}

		lineTotal := product.Price * float64(item.Quantity)
		orderItem := &models.OrderItem{
			OrderID:   orderID,
			ProductID: product.ID,
			Quantity:  item.Quantity,
			LineTotal: lineTotal,
		}
		if err := s.orderRepo.CreateOrderItem(ctx, tx, orderItem); err != nil {
			s.rollback(logger, tx)
			logger.Error("failed to create order item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to create order item: %w", op, err)
		}
		total += lineTotal
	}

	if err := s.orderRepo.UpdateOrderTotal(ctx, tx, orderID, total); err != nil {
		s.rollback(logger, tx)
		logger.Error("failed to update order total", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update order total: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order created", slog.Int64("orderID", orderID), slog.Float64("total", total))
	return &OrderSummary{
		OrderID:     orderID,
		TotalAmount: total,
		Status:      models.OrderStatusPending,
	}, nil
}

// GetOrder возвращает заказ с позициями, только если он принадлежит пользователю.
// Чужой заказ и несуществующий заказ дают одинаковую ошибку.
func (s *orderService) GetOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	const op = "service.OrderService.GetOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.Int64("userID", userID))

	order, err := s.orderRepo.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	items, err := s.orderRepo.GetItemsByOrderID(ctx, orderID)
	if err != nil {
		logger.Error("failed to get order items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order items: %w", op, err)
	}
	order.Items = items
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.ListOrders"

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list orders: %w", op, err)
	}
	return orders, nil
}

// CancelOrder переводит PENDING-заказ в CANCELLED и возвращает остатки
// по всем его позициям той же транзакцией: после отмены склад выглядит так,
// как будто заказ инвентарь не потреблял. Строки заказа сохраняются для истории.
func (s *orderService) CancelOrder(ctx context.Context, orderID, userID int64) error {
	const op = "service.OrderService.CancelOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.Int64("userID", userID))
	logger.Info("starting cancel transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.LockOrderForUser(ctx, tx, orderID, userID)
	if err != nil {
		s.rollback(logger, tx)
		if errors.Is(err, storage.ErrOrderNotFound) {
			return fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		logger.Error("failed to lock order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to lock order: %w", op, err)
	}

	if order.Status != models.OrderStatusPending {
		s.rollback(logger, tx)
		logger.Warn("order is not pending", slog.String("status", order.Status))
		return fmt.Errorf("%s: %w", op, ErrOrderNotPending)
	}

	items, err := s.orderRepo.GetItemsByOrderIDTx(ctx, tx, orderID)
	if err != nil {
		s.rollback(logger, tx)
		logger.Error("failed to get order items", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get order items: %w", op, err)
	}

	for _, item := range items {
		if err := s.productRepo.IncrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			s.rollback(logger, tx)
			logger.Error("failed to restore stock", slog.Any("error", err))
			return fmt.Errorf("%s: failed to restore stock: %w", op, err)
		}
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, tx, orderID, models.OrderStatusCancelled); err != nil {
		s.rollback(logger, tx)
		logger.Error("failed to update order status", slog.Any("error", err))
		return fmt.Errorf("%s: failed to update order status: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order cancelled")
	return nil
}

func (s *orderService) rollback(logger *slog.Logger, tx *sql.Tx) {
	if rbErr := tx.Rollback(); rbErr != nil {
		logger.Error("transaction rollback failed", slog.Any("error", rbErr))
	}
}
