package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"kindred/backend/internal/store"
	kerrors "kindred/backend/pkg/errors"
)

// Service issues and validates bearer credentials for relational users
type Service struct {
	users       *store.UserRepository
	secret      []byte
	tokenExpiry time.Duration
}

// NewService creates a new auth service
func NewService(users *store.UserRepository, secret string, tokenExpiry time.Duration) *Service {
	return &Service{
		users:       users,
		secret:      []byte(secret),
		tokenExpiry: tokenExpiry,
	}
}

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Authenticate verifies a username/password pair and returns the user
func (s *Service) Authenticate(ctx context.Context, username, password string) (*store.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, kerrors.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, kerrors.ErrInvalidCredentials
	}
	return user, nil
}

// CreateAccessToken issues a signed bearer token for the user
func (s *Service) CreateAccessToken(user *store.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   user.Username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ResolveToken validates a bearer token and returns the user it names
func (s *Service) ResolveToken(ctx context.Context, tokenString string) (*store.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, kerrors.ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, kerrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, kerrors.ErrInvalidToken
	}

	user, err := s.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, kerrors.ErrInvalidToken
	}
	return user, nil
}
