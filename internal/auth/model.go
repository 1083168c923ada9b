package auth

import (
	"time"

	"github.com/gofrs/uuid"
)

// User is a shop account. Its ID is the owner id every tenant row carries.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	Address      string    `json:"address" db:"address"`
	AvatarURL    string    `json:"avatar_url" db:"avatar_url"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Disabled     bool      `json:"-" db:"disabled"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type SignUpInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type ProfileUpdate struct {
	Name    string
	Phone   string
	Email   string
	Address string
}
