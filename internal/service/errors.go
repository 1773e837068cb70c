package service

import (
	"errors"
	"fmt"
)

// Ошибки бизнес-правил. Каждая из них откатывает объемлющую транзакцию
// до того, как будет отдана наружу; транспортный слой переводит их в статусы HTTP.
var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderNotPending    = errors.New("only pending orders can be cancelled")
	ErrEmptyOrder         = errors.New("order must contain at least one item")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

// ProductNotFoundError сообщает, какой именно товар не найден при оформлении заказа.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InsufficientStockError сообщает о нехватке остатка: сколько запрошено и сколько доступно.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
