package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	kerrors "kindred/backend/pkg/errors"
)

// UserRepository persists and looks up relational user identities
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. Username and email collisions surface as a
// typed duplicate error.
func (r *UserRepository) Create(ctx context.Context, username, email, hashedPassword string) (*User, error) {
	user := &User{
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, kerrors.NewDuplicateUser(username, err)
		}
		return nil, err
	}

	return user, nil
}

// FindByID returns the user with the given id, or a typed not-found error
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kerrors.NewUserNotFound(strconv.FormatUint(uint64(id), 10))
		}
		return nil, err
	}
	return &user, nil
}

// FindByGraphID resolves a graph identity key back to the relational user
func (r *UserRepository) FindByGraphID(ctx context.Context, graphID string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("id = ?", graphID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kerrors.NewUserNotFound(graphID)
		}
		return nil, err
	}
	return &user, nil
}

// FindByUsername returns the user with the given username, or a typed
// not-found error
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kerrors.NewUserNotFound(username)
		}
		return nil, err
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite reports constraint violations as plain errors
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
