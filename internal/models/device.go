package models

import (
	"time"

	"github.com/google/uuid"
)

type Device struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Model        *string    `json:"model"`
	SerialNumber string     `json:"serial_number"`
	OwnerID      *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type DeviceCreate struct {
	Name         string  `json:"name" validate:"required,max=255"`
	Model        *string `json:"model" validate:"omitempty,max=255"`
	SerialNumber string  `json:"serial_number" validate:"required,max=255"`
}
