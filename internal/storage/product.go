package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/inventory-api/internal/domain/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrStoreBusy — строка заблокирована конкурентной транзакцией или транзакция
	// попала в deadlock; вызывающий может повторить запрос целиком.
	ErrStoreBusy = errors.New("store is busy, retry the request")
)

// ProductStorage описывает методы для работы с таблицей товаров.
// Изменение остатка доступно только внутри транзакции заказа и
// никогда не выставляется наружу как самостоятельная операция.
type ProductStorage interface {
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	// GetProductForUpdate читает товар с блокировкой FOR UPDATE в рамках tx,
	// сериализуя конкурентные проверки остатка по одному товару.
	GetProductForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error)
	DecrementStock(ctx context.Context, tx *sql.Tx, id int64, quantity int) error
	IncrementStock(ctx context.Context, tx *sql.Tx, id int64, quantity int) error
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO products (name, category, price, stock) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
		product.Name, product.Category, product.Price, product.Stock,
	).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, category, price, stock, created_at FROM products ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(&product.ID, &product.Name, &product.Category, &product.Price, &product.Stock, &product.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductForUpdate удерживает блокировку строки до конца транзакции:
// конкурентная проверка остатка по тому же товару будет ждать, а не читать
// устаревшее значение.
func (r *productRepository) GetProductForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	product := &models.Product{}
	row := tx.QueryRowContext(ctx,
		"SELECT id, name, category, price, stock, created_at FROM products WHERE id = $1 FOR UPDATE", id)
	if err := row.Scan(&product.ID, &product.Name, &product.Category, &product.Price, &product.Stock, &product.CreatedAt); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "55P03" || pqErr.Code == "40P01" { // lock_not_available / deadlock_detected
				return nil, fmt.Errorf("%w: %v", ErrStoreBusy, err)
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, tx *sql.Tx, id int64, quantity int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $2 WHERE id = $1", id, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) IncrementStock(ctx context.Context, tx *sql.Tx, id int64, quantity int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock + $2 WHERE id = $1", id, quantity)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
