package models

import (
	"time"

	"github.com/google/uuid"
)

// User is stored in PostgreSQL. The password hash never leaves the service
// layer; the JSON form is what handlers return to clients.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	AvatarURL    string    `json:"avatar_url"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
