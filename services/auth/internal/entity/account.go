package entity

import (
	"time"

	"authkit/pkg/models"
)

type Account struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         models.Role `json:"role"`
	Photo        string      `json:"photo"`
	Bio          string      `json:"bio"`
	IsVerified   bool        `json:"is_verified"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ProfilePatch carries the caller-editable profile fields. Nil means unchanged.
type ProfilePatch struct {
	Name  *string `json:"name" validate:"omitnil,min=1,max=100"`
	Email *string `json:"email" validate:"omitnil,email,max=254"`
	Photo *string `json:"photo" validate:"omitnil,max=500"`
	Bio   *string `json:"bio" validate:"omitnil,max=500"`
}

func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Photo == nil && p.Bio == nil
}
