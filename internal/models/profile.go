package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an identity account. Profiles carry everything user-facing;
// users only exists for credentials and email confirmation state.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
}

// Profile is the resident or staff record shown throughout the portal.
// ID equals the identity account's id; exactly one profile per identity.
type Profile struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Mobile    string     `json:"mobile"`
	Address   string     `json:"address"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}
