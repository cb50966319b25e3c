package service

import (
	"context"

	"luxauction-api/internal/domain"
)

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

type UserService struct{ users domain.UserRepository }

func NewUserService(users domain.UserRepository) *UserService { return &UserService{users: users} }

func (s *UserService) List(ctx context.Context, page, size int, q string) (*Page[domain.User], error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	items, total, err := s.users.List(ctx, (page-1)*size, size, q)
	if err != nil {
		return nil, err
	}
	return &Page[domain.User]{Items: items, Total: total, Page: page, Size: size}, nil
}
