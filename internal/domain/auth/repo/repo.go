package repo

import (
	"context"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
	"github.com/google/uuid"
)

type UserRepo interface {
	// CreateUser persists u and returns it with its storage identifiers filled
	// in. Email and display name collisions return ErrAlreadyExists.
	CreateUser(ctx context.Context, u model.User) (model.User, error)

	GetUserByPublicID(ctx context.Context, id uuid.UUID) (model.User, error)

	GetCredentialsByEmail(ctx context.Context, email string) (model.Credentials, error)

	// UpdateUser applies the non-nil fields of upd. An empty update succeeds
	// without touching storage.
	UpdateUser(ctx context.Context, id uuid.UUID, upd model.UserUpdate) error

	TouchLastLogin(ctx context.Context, internalID int64) error
}

type RefreshTokenRepo interface {
	// CreateRefreshToken stores a new token with a freshly generated id.
	CreateRefreshToken(ctx context.Context, owner uuid.UUID, expiresAt time.Time) (model.RefreshToken, error)

	// FindWithOwner resolves a token and its owner. A token whose owner no
	// longer exists yields ErrOwnerMissing, a missing token ErrNotFound.
	FindWithOwner(ctx context.Context, token uuid.UUID) (model.RefreshToken, model.User, error)

	// DeleteRefreshToken removes the token. Deleting an unknown token is not
	// an error.
	DeleteRefreshToken(ctx context.Context, token uuid.UUID) error
}
