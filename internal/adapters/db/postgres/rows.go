package postgres

import (
	"errors"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

type userRow struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	PublicID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	DisplayName  string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash *string
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

func userRowFromModel(u model.User) userRow {
	return userRow{
		ID:           u.InternalID,
		PublicID:     u.PublicID,
		DisplayName:  u.DisplayName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		LastLogin:    u.LastLogin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r userRow) toModel() model.User {
	return model.User{
		InternalID:   r.ID,
		PublicID:     r.PublicID,
		DisplayName:  r.DisplayName,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		LastLogin:    r.LastLogin,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type refreshTokenRow struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Token        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	UserPublicID uuid.UUID `gorm:"type:uuid;index;not null"`
	ExpiresAt    time.Time `gorm:"index;not null"`
}

func (refreshTokenRow) TableName() string { return "refresh_tokens" }

func (r refreshTokenRow) toModel() model.RefreshToken {
	return model.RefreshToken{Token: r.Token, OwnerID: r.UserPublicID, ExpiresAt: r.ExpiresAt}
}

// isUniqueViolation covers both a gorm session opened with TranslateError and
// a raw driver error.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
