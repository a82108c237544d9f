package service

import (
	"context"
	"strings"

	"github.com/mmeshcher/guitarshop/internal/model"
)

// CreateProduct добавляет товар в каталог.
func (s *Service) CreateProduct(ctx context.Context, p *model.Product) error {
	return s.repo.CreateProduct(ctx, p)
}

// GetProduct возвращает товар каталога.
func (s *Service) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts возвращает каталог, при непустом query только товары с подходящим названием.
func (s *Service) ListProducts(ctx context.Context, query string) ([]model.Product, error) {
	return s.repo.ListProducts(ctx, strings.TrimSpace(query))
}

// UpdateProduct перезаписывает поля товара. Цены в существующих заказах не меняются.
func (s *Service) UpdateProduct(ctx context.Context, p *model.Product) error {
	return s.repo.UpdateProduct(ctx, p)
}

// DeleteProduct удаляет товар из каталога.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}
