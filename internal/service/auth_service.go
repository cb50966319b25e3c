package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"luxauction-api/internal/core/auth"
	"luxauction-api/internal/domain"
	"luxauction-api/pkg/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

type RegisterInput struct {
	FullName string `json:"fullName" binding:"required,max=128"`
	Email    string `json:"email" binding:"required,email,max=191"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"required,oneof=Seller Buyer"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type AuthService struct {
	users domain.UserRepository
	jwt   *auth.JWTer
	log   *zap.Logger
}

func NewAuthService(users domain.UserRepository, j *auth.JWTer, l *zap.Logger) *AuthService {
	return &AuthService{users: users, jwt: j, log: l}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.ValidationError{Fields: map[string]string{"email": "Email is already registered."}}
	}
	if in.Role != domain.RoleSeller && in.Role != domain.RoleBuyer {
		return nil, &domain.ValidationError{Fields: map[string]string{"role": "Role must be Seller or Buyer."}}
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, &domain.ValidationError{Fields: map[string]string{"password": "Password is not acceptable."}}
	}
	u := &domain.User{
		FullName:     strings.TrimSpace(in.FullName),
		Email:        email,
		Role:         in.Role,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Uint("user_id", u.ID), zap.String("role", u.Role))
	return u, nil
}

// Login answers every mismatch with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	tok, err := s.jwt.Issue(strconv.FormatUint(uint64(u.ID), 10), u.Role, u.FullName)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: tok, User: u}, nil
}

// Me loads the account behind an authenticated principal.
func (s *AuthService) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	id, err := domain.ParseUserID(p.ID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}
