// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/guitarshop/internal/model"
)

// MaxOrderLines ограничивает число позиций в одном заказе.
const MaxOrderLines = 100

var (
	// ErrInvalidInput оборачивает все ошибки валидации.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPasswordMismatch возвращается, если подтверждение пароля не совпадает с паролем.
	ErrPasswordMismatch = fmt.Errorf("%w: password confirmation does not match", ErrInvalidInput)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// OrderLines проверяет позиции создаваемого заказа.
func OrderLines(lines []model.LineRequest) error {
	if len(lines) == 0 {
		return invalid("order must contain at least one product")
	}
	if len(lines) > MaxOrderLines {
		return invalid("order must contain at most %d products", MaxOrderLines)
	}

	for i, l := range lines {
		if l.ProductID <= 0 {
			return invalid("products[%d].id must be positive", i)
		}
		if l.Quantity < 1 || l.Quantity > model.MaxLineQuantity {
			return invalid("products[%d].quantity must be between 1 and %d", i, model.MaxLineQuantity)
		}
	}
	return nil
}

// Product проверяет поля товара каталога.
func Product(p *model.Product) error {
	if strings.TrimSpace(p.Title) == "" {
		return invalid("title is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		return invalid("description is required")
	}
	if !p.Price.GreaterThan(decimal.Zero) {
		return invalid("price must be positive")
	}
	if p.Price.GreaterThan(model.MaxProductPrice) {
		return invalid("price must not exceed %s", model.MaxProductPrice.StringFixed(2))
	}
	if !p.Price.Equal(p.Price.Round(2)) {
		return invalid("price must have at most two decimal places")
	}
	if !IsURL(p.ImageURL) {
		return invalid("imageURL must be an absolute http(s) URL")
	}
	return nil
}

// Signup проверяет данные регистрации.
func Signup(email, name, password, confirmation string) error {
	if !IsEmail(email) {
		return invalid("email is invalid")
	}
	if strings.TrimSpace(name) == "" {
		return invalid("name is required")
	}
	if password == "" {
		return invalid("password is required")
	}
	if password != confirmation {
		return ErrPasswordMismatch
	}
	return nil
}

// Signin проверяет данные входа.
func Signin(email, password string) error {
	if !IsEmail(email) {
		return invalid("email is invalid")
	}
	if password == "" {
		return invalid("password is required")
	}
	return nil
}

// IsEmail проверяет, что строка является одиночным адресом без отображаемого имени.
func IsEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// IsURL проверяет, что строка является абсолютным http(s) URL.
func IsURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
