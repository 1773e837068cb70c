package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/inventory-api/internal/domain/models"
	"github.com/linemk/inventory-api/internal/storage"
)

var ErrInvalidProduct = errors.New("price and stock must be non-negative")

// ProductService — простой CRUD каталога. Остатком он не управляет:
// списание и возврат идут только внутри транзакции заказа.
type ProductService interface {
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
}

type productService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
}

func NewProductService(log *slog.Logger, productRepo storage.ProductStorage) ProductService {
	return &productService{
		log:         log,
		productRepo: productRepo,
	}
}

func (s *productService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	const op = "service.ProductService.CreateProduct"
	logger := s.log.With(slog.String("op", op), slog.String("name", product.Name))

	if product.Price < 0 || product.Stock < 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidProduct)
	}

	created, err := s.productRepo.CreateProduct(ctx, product)
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create product: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", created.ID))
	return created, nil
}

func (s *productService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	const op = "service.ProductService.ListProducts"

	products, err := s.productRepo.ListProducts(ctx)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list products: %w", op, err)
	}
	return products, nil
}
