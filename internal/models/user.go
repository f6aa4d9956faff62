package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       *string   `json:"full_name"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	IsSuperuser    bool      `json:"is_superuser"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserCreate is the public registration payload. Registration never grants
// superuser rights; those come from the bootstrap superuser or an admin update.
type UserCreate struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

// UserUpdateMe carries the fields a user may change on their own account.
// Nil fields are left untouched.
type UserUpdateMe struct {
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

// UserUpdate is the superuser's partial update of another account.
type UserUpdate struct {
	FullName    *string `json:"full_name" validate:"omitempty,max=255"`
	Password    *string `json:"password" validate:"omitempty,min=8,max=72"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}
