package models

import "time"

// Статусы заказа. Заказ изменяем только в статусе PENDING,
// единственный доступный переход — PENDING -> CANCELLED.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusCancelled = "CANCELLED"
)

// Order представляет заказ пользователя
type Order struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"user_id"`
	TotalAmount float64      `json:"total_amount"` // всегда пересчитывается сервером, от клиента не принимается
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	Items       []*OrderItem `json:"items,omitempty"`
}

// OrderItem представляет позицию заказа.
// LineTotal — снимок цены на момент оформления (цена * количество),
// последующие изменения цены товара на него не влияют.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}
