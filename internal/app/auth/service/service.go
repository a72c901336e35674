package service

import (
	"context"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/claim"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
	"github.com/google/uuid"
)

const TokenTypeBearer = "Bearer"

// Session is the token pair handed out after a successful login.
type Session struct {
	Refresh    claim.RefreshToken
	Access     claim.AccessToken
	TokenType  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.User, error)
	// Login checks the credentials and returns the public id of the account.
	Login(context.Context, dto.LoginDTO) (uuid.UUID, error)
	IssueSession(ctx context.Context, owner uuid.UUID) (Session, error)
	// Refresh mints a new access token. The refresh token is left as is.
	Refresh(context.Context, claim.RefreshClaim) (claim.AccessToken, error)
	Logout(context.Context, claim.RefreshClaim) error
	WhoAmI(claim.AccessClaim) claim.AccessClaim
	Profile(context.Context, claim.AccessClaim) (model.User, error)
	UpdateProfile(context.Context, claim.AccessClaim, dto.UpdateProfileDTO) (model.User, error)
}

// PasswordHasher is satisfied by password.Crypto.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}
