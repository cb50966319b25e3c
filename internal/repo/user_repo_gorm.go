package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"luxauction-api/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

// Create reports a taken email as a validation error on "email"; the
// unique index catches registrations that race past the lookup.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &domain.ValidationError{Fields: map[string]string{"email": "Email is already registered."}}
	}
	return storageErr("insert user", err)
}

// FindByID returns nil, nil when no user has the id.
func (r *UserRepo) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	return firstOrNil[domain.User](r.db.WithContext(ctx), "find user", "id = ?", id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return firstOrNil[domain.User](r.db.WithContext(ctx), "find user", "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// List pages users newest first. q matches name or email.
func (r *UserRepo) List(ctx context.Context, offset, limit int, q string) ([]domain.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.User{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, storageErr("count users", err)
	}
	var users []domain.User
	if err := tx.Offset(offset).Limit(limit).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, 0, storageErr("list users", err)
	}
	return users, total, nil
}

func firstOrNil[T any](tx *gorm.DB, op string, query string, args ...any) (*T, error) {
	var v T
	err := tx.Where(query, args...).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &v, nil
}
