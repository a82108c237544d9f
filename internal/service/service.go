// Package service реализует бизнес-логику магазина: пользователей, каталог и жизненный цикл заказов.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mmeshcher/guitarshop/internal/model"
)

var (
	// ErrOrderNotFound возвращается, если заказа нет или он недоступен пользователю.
	// Оба случая неразличимы для вызывающего.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidCredentials возвращается при неверном email или пароле.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, u *model.User) error
	UpsertAdmin(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context, query string) ([]model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	InsertOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id string, includeLines bool) (*model.Order, error)
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error
}

// TokenIssuer выпускает токен доступа для аутентифицированного пользователя.
type TokenIssuer interface {
	Issue(u *model.User) (string, error)
}

// Service содержит бизнес-логику магазина.
type Service struct {
	repo   Repository
	tokens TokenIssuer
	newID  func() string
}

// NewService создаёт новый сервис с указанным хранилищем и выпуском токенов.
func NewService(repo Repository, tokens TokenIssuer) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		newID:  func() string { return uuid.NewString() },
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}
