// Package credentials проверяет пароли и выпускает токены доступа.
package credentials

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/guitarshop/internal/model"
)

// ErrInvalidToken возвращается для неподписанного, просроченного или повреждённого токена.
var ErrInvalidToken = errors.New("invalid token")

// HashPassword возвращает bcrypt-хеш пароля.
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// VerifyPassword сравнивает пароль с сохранённым хешем.
func VerifyPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Claims содержит данные пользователя, зашитые в токен.
type Claims struct {
	Email string       `json:"email"`
	Roles []model.Role `json:"roles"`
	jwt.RegisteredClaims
}

// TokenIssuer выпускает и проверяет HS256-токены.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer создаёт TokenIssuer. При пустом секрете генерируется случайный ключ,
// и токены перестают быть действительными после перезапуска.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		// rand.Read не возвращает ошибок начиная с Go 1.24.
		_, _ = rand.Read(key)
	}

	return &TokenIssuer{
		secret: key,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue выпускает токен для пользователя.
func (t *TokenIssuer) Issue(u *model.User) (string, error) {
	now := t.now()
	claims := Claims{
		Email: u.Email,
		Roles: u.Roles(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  u.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись и срок действия токена и возвращает пользователя запроса.
func (t *TokenIssuer) Parse(token string) (model.Principal, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return model.Principal{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return model.Principal{}, ErrInvalidToken
	}

	roles := make([]model.Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		if r == model.RoleAdmin {
			roles = append(roles, r)
		}
	}

	return model.Principal{SubjectID: claims.Subject, Roles: roles}, nil
}
