// Package users provides the credential store: database operations for
// user records.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.FindByEmail(ctx, "alice@example.com")
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/mrlokans/heartcheck/internal/entities"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Insert creates a user record. Uniqueness of the email is left to the
// unique index so two concurrent signups cannot both succeed.
func (r *Repository) Insert(ctx context.Context, fullName, email, passwordHash string) (*entities.User, error) {
	user := &entities.User{
		FullName:     fullName,
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// FindByEmail retrieves a user by email address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindByID retrieves a user by ID.
func (r *Repository) FindByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UpdateFullName changes the display name of a user.
func (r *Repository) UpdateFullName(ctx context.Context, id uint, fullName string) (*entities.User, error) {
	return r.update(ctx, id, "full_name", fullName)
}

// UpdatePasswordHash replaces the stored password hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uint, passwordHash string) error {
	_, err := r.update(ctx, id, "password_hash", passwordHash)
	return err
}

// Count returns the number of registered users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}

func (r *Repository) update(ctx context.Context, id uint, column string, value any) (*entities.User, error) {
	db := r.db.WithContext(ctx)

	result := db.Model(&entities.User{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var user entities.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
