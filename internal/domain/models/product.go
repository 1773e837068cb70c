package models

import "time"

// Product представляет товар каталога
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"` // цена за единицу, неотрицательная
	Stock     int       `json:"stock"` // остаток на складе, не может уйти в минус
	CreatedAt time.Time `json:"created_at"`
}
