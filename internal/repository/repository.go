// Package repository содержит реализации хранилища пользователей, каталога и заказов.
package repository

import "errors"

// ErrUserExists возвращается при попытке создать пользователя с уже существующим email.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrProductNotFound возвращается, если товар отсутствует в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductInUse возвращается при удалении товара, на который ссылаются заказы.
	ErrProductInUse = errors.New("product is referenced by orders")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
)
