package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmeshcher/guitarshop/internal/credentials"
	"github.com/mmeshcher/guitarshop/internal/model"
	"github.com/mmeshcher/guitarshop/internal/repository"
)

// RegisterUser регистрирует нового покупателя.
func (s *Service) RegisterUser(ctx context.Context, email, name, password string) (*model.User, error) {
	hash, err := credentials.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:           s.newID(),
		Email:        normalizeEmail(email),
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, repository.ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

// SignIn проверяет email и пароль и возвращает токен доступа.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !credentials.VerifyPassword(u.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(u)
}

// EnsureAdmin создаёт администратора с указанными email и паролем или обновляет пароль существующего.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	hash, err := credentials.HashPassword(password)
	if err != nil {
		return err
	}

	u := &model.User{
		ID:           s.newID(),
		Email:        normalizeEmail(email),
		Name:         "Admin",
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if err := s.repo.UpsertAdmin(ctx, u); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
