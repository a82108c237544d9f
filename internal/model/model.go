// Package model содержит доменные сущности магазина.
package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Role описывает роль пользователя. Набор ролей закрыт.
type Role string

// RoleAdmin даёт доступ к любым ресурсам независимо от владельца.
const RoleAdmin Role = "ADMIN"

// Principal описывает аутентифицированного пользователя текущего запроса.
type Principal struct {
	SubjectID string
	Roles     []Role
}

// HasRole сообщает, содержит ли набор ролей указанную роль.
func (p Principal) HasRole(role Role) bool {
	return slices.Contains(p.Roles, role)
}

// IsAdmin сообщает, является ли пользователь администратором.
func (p Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// User представляет зарегистрированного покупателя.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	IsAdmin      bool
	CreatedAt    time.Time
}

// Roles возвращает роли пользователя для выпуска токена.
func (u *User) Roles() []Role {
	if u.IsAdmin {
		return []Role{RoleAdmin}
	}
	return []Role{}
}

// Product описывает товар каталога.
type Product struct {
	ID          int64
	Title       string
	Price       decimal.Decimal
	Description string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderStatus описывает состояние заказа.
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "ACTIVE"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// MaxLineQuantity ограничивает количество единиц товара в одной позиции заказа.
const MaxLineQuantity = 10000

// MaxProductPrice соответствует колонке products.price NUMERIC(12, 2).
var MaxProductPrice = decimal.RequireFromString("9999999999.99")

// LineRequest описывает запрошенную позицию заказа.
type LineRequest struct {
	ProductID int64
	Quantity  int
}

// OrderLine описывает позицию заказа с зафиксированной на момент покупки ценой.
type OrderLine struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	// Product заполняется только при чтении заказа для отображения.
	Product *Product
}

// Order описывает заказ пользователя.
type Order struct {
	ID        string
	UserID    string
	Status    OrderStatus
	Total     decimal.Decimal
	Lines     []OrderLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderFilter ограничивает выборку заказов. Пустой UserID означает все заказы.
type OrderFilter struct {
	UserID string
}
