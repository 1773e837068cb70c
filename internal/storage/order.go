package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/inventory-api/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами и их позициями.
type OrderStorage interface {
	// CreateOrder вставляет заказ со статусом PENDING и нулевой суммой,
	// возвращая его идентификатор; итоговая сумма записывается позже,
	// той же транзакцией, после обработки всех позиций.
	CreateOrder(ctx context.Context, tx *sql.Tx, userID int64) (int64, error)
	CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error
	UpdateOrderTotal(ctx context.Context, tx *sql.Tx, orderID int64, total float64) error
	UpdateOrderStatus(ctx context.Context, tx *sql.Tx, orderID int64, status string) error
	// LockOrderForUser читает заказ с FOR UPDATE, фильтруя по id и владельцу:
	// чужой и несуществующий заказ неразличимы для вызывающего.
	LockOrderForUser(ctx context.Context, tx *sql.Tx, orderID, userID int64) (*models.Order, error)
	GetOrderForUser(ctx context.Context, orderID, userID int64) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	GetItemsByOrderID(ctx context.Context, orderID int64) ([]*models.OrderItem, error)
	GetItemsByOrderIDTx(ctx context.Context, tx *sql.Tx, orderID int64) ([]*models.OrderItem, error)
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, total_amount, status, created_at)
		 VALUES ($1, 0, $2, NOW()) RETURNING id`,
		userID, models.OrderStatusPending,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	return id, nil
}

func (r *orderRepository) CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, line_total)
		 VALUES ($1, $2, $3, $4)`,
		item.OrderID, item.ProductID, item.Quantity, item.LineTotal)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	return nil
}

func (r *orderRepository) UpdateOrderTotal(ctx context.Context, tx *sql.Tx, orderID int64, total float64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET total_amount = $1 WHERE id = $2", total, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order total: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, tx *sql.Tx, orderID int64, status string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2", status, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) LockOrderForUser(ctx context.Context, tx *sql.Tx, orderID, userID int64) (*models.Order, error) {
	order := &models.Order{}
	row := tx.QueryRowContext(ctx,
		`SELECT id, user_id, total_amount, status, created_at
		 FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		orderID, userID)
	if err := row.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "55P03" || pqErr.Code == "40P01" {
				return nil, fmt.Errorf("%w: %v", ErrStoreBusy, err)
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetOrderForUser(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order := &models.Order{}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, total_amount, status, created_at
		 FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID)
	if err := row.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, total_amount, status, created_at
		 FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) GetItemsByOrderID(ctx context.Context, orderID int64) ([]*models.OrderItem, error) {
	return scanItems(r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, line_total
		 FROM order_items WHERE order_id = $1 ORDER BY id`, orderID))
}

func (r *orderRepository) GetItemsByOrderIDTx(ctx context.Context, tx *sql.Tx, orderID int64) ([]*models.OrderItem, error) {
	return scanItems(tx.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, line_total
		 FROM order_items WHERE order_id = $1 ORDER BY id`, orderID))
}

func scanItems(rows *sql.Rows, err error) ([]*models.OrderItem, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.OrderItem
	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
