package model

import (
	"github.com/google/uuid"
	"time"
)

// User is a stored account. InternalID is the storage row key and never leaves
// the persistence layer; PublicID is the only user reference placed in tokens
// and responses.
type User struct {
	InternalID   int64
	PublicID     uuid.UUID
	DisplayName  string
	Email        string
	PasswordHash *string
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether password login is configured for the account.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Credentials is the projection of a user needed to check a login.
type Credentials struct {
	InternalID   int64
	PublicID     uuid.UUID
	PasswordHash *string
}

// UserUpdate holds the fields to change; nil means keep the stored value.
type UserUpdate struct {
	DisplayName  *string
	Email        *string
	PasswordHash *string
}

func (u UserUpdate) IsEmpty() bool {
	return u.DisplayName == nil && u.Email == nil && u.PasswordHash == nil
}

type RefreshToken struct {
	Token     uuid.UUID
	OwnerID   uuid.UUID
	ExpiresAt time.Time
}

func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
