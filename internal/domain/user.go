package domain

import (
	"context"
	"time"
)

const (
	RoleSeller = "Seller"
	RoleBuyer  = "Buyer"
	RoleAdmin  = "Admin"
)

// User is the account behind a seller or buyer. Listings reference it by SellerID.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FullName     string    `gorm:"size:128;not null" json:"fullName"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Role         string    `gorm:"size:16;not null" json:"role"` // Seller / Buyer / Admin
	PasswordHash string    `gorm:"size:191;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uint) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, offset, limit int, q string) ([]User, int64, error)
}
