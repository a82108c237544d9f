package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/guitarshop/internal/model"
	"github.com/mmeshcher/guitarshop/internal/policy"
	"github.com/mmeshcher/guitarshop/internal/pricing"
	"github.com/mmeshcher/guitarshop/internal/repository"
)

// CreateOrder фиксирует цены запрошенных позиций и сохраняет активный заказ пользователя.
// Если хотя бы один товар не найден, возвращается *pricing.ProductNotFoundError и заказ не сохраняется.
func (s *Service) CreateOrder(ctx context.Context, p model.Principal, requested []model.LineRequest) (*model.Order, error) {
	lines, total, err := pricing.Snapshot(ctx, s.repo, requested)
	if err != nil {
		return nil, err
	}

	o := &model.Order{
		ID:     s.newID(),
		UserID: p.SubjectID,
		Status: model.OrderStatusActive,
		Total:  total,
		Lines:  lines,
	}
	if err := s.repo.InsertOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	return o, nil
}

// ListAllOrders возвращает все заказы. Права администратора проверяются вызывающим.
func (s *Service) ListAllOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx, model.OrderFilter{})
}

// ListOrdersForOwner возвращает заказы указанного пользователя.
func (s *Service) ListOrdersForOwner(ctx context.Context, userID string) ([]model.Order, error) {
	return s.repo.ListOrders(ctx, model.OrderFilter{UserID: userID})
}

// GetOrder возвращает заказ с позициями и товарами, если он доступен пользователю.
func (s *Service) GetOrder(ctx context.Context, id string, p model.Principal) (*model.Order, error) {
	return s.loadAccessible(ctx, id, p, true)
}

// CancelOrder переводит заказ в статус CANCELLED. Повторная отмена не считается ошибкой.
func (s *Service) CancelOrder(ctx context.Context, id string, p model.Principal) error {
	if _, err := s.loadAccessible(ctx, id, p, false); err != nil {
		return err
	}

	if err := s.repo.UpdateOrderStatus(ctx, id, model.OrderStatusCancelled); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("cancel order: %w", err)
	}
	return nil
}

func (s *Service) loadAccessible(ctx context.Context, id string, p model.Principal, includeLines bool) (*model.Order, error) {
	o, err := s.repo.GetOrder(ctx, id, includeLines)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	// Чужой заказ выглядит так же, как отсутствующий.
	if !policy.CanAccess(p, o.UserID) {
		return nil, ErrOrderNotFound
	}

	return o, nil
}
