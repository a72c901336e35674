package service

import (
	"context"
	"strings"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/claim"
	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
	repo "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/repo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type authService struct {
	userRepo  repo.UserRepo
	tokenRepo repo.RefreshTokenRepo
	codec     *claim.Codec
	hasher    PasswordHasher
	v         *validator.Validate
	log       *zap.Logger
	now       func() time.Time
}

type Option func(*authService)

// WithClock sets the clock used for user timestamps and refresh token
// expiry. Pass the same clock to the codec.
func WithClock(now func() time.Time) Option {
	return func(a *authService) { a.now = now }
}

func New(
	ur repo.UserRepo,
	tr repo.RefreshTokenRepo,
	codec *claim.Codec,
	hasher PasswordHasher,
	v *validator.Validate,
	log *zap.Logger,
	opts ...Option,
) Service {
	if log == nil {
		log = zap.NewNop()
	}
	a := &authService{
		userRepo: ur, tokenRepo: tr, codec: codec, hasher: hasher, v: v, log: log, now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	var passwordHash *string
	if in.Password != nil && *in.Password != "" {
		hash, err := a.hasher.Hash(ctx, *in.Password)
		if err != nil {
			return model.User{}, err
		}
		passwordHash = &hash
	}

	now := a.now().UTC()
	user := model.User{
		PublicID:     uuid.New(),
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Email:        normalizeEmail(in.Email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := a.userRepo.CreateUser(ctx, user)
	if err != nil {
		if customErrors.IsAlreadyExists(err) {
			return model.User{}, customErrors.ErrAlreadyExists
		}
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}
	return created, nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (uuid.UUID, error) {
	if err := a.v.Struct(in); err != nil {
		return uuid.Nil, customErrors.NewInvalidArgument(err.Error())
	}
	if in.Password == nil || *in.Password == "" {
		return uuid.Nil, customErrors.ErrPasswordRequired
	}

	creds, err := a.userRepo.GetCredentialsByEmail(ctx, normalizeEmail(in.Email))
	switch {
	case customErrors.IsNotFound(err):
		return uuid.Nil, customErrors.ErrUserNotFound
	case err != nil:
		return uuid.Nil, customErrors.WrapInternal(err, "Login")
	}
	if creds.PasswordHash == nil || *creds.PasswordHash == "" {
		return uuid.Nil, customErrors.ErrNoPassword
	}

	ok, err := a.hasher.Verify(ctx, *in.Password, *creds.PasswordHash)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, customErrors.ErrPasswordWrong
	}

	if err := a.userRepo.TouchLastLogin(ctx, creds.InternalID); err != nil {
		return uuid.Nil, customErrors.WrapInternal(err, "TouchLastLogin")
	}
	return creds.PublicID, nil
}

func (a *authService) IssueSession(ctx context.Context, owner uuid.UUID) (Session, error) {
	refreshTTL := claim.Lifetime[claim.RefreshSubject](a.codec)
	accessTTL := claim.Lifetime[claim.AccessSubject](a.codec)

	rt, err := a.tokenRepo.CreateRefreshToken(ctx, owner, a.now().Add(refreshTTL))
	if err != nil {
		return Session{}, customErrors.WrapInternal(err, "CreateRefreshToken")
	}

	refresh, err := claim.Sign(a.codec, claim.NewRefreshSubject(rt.Token))
	if err != nil {
		return Session{}, customErrors.WrapInternal(err, "IssueSession")
	}
	access, err := claim.Sign(a.codec, claim.NewAccessSubject(owner))
	if err != nil {
		return Session{}, customErrors.WrapInternal(err, "IssueSession")
	}

	return Session{
		Refresh:    refresh,
		Access:     access,
		TokenType:  TokenTypeBearer,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}, nil
}

func (a *authService) Refresh(ctx context.Context, rc claim.RefreshClaim) (claim.AccessToken, error) {
	tokenID := rc.Subject().TokenID

	rt, owner, err := a.tokenRepo.FindWithOwner(ctx, tokenID)
	switch {
	case customErrors.IsNotFound(err):
		return claim.AccessToken{}, err
	case customErrors.IsOwnerMissing(err):
		a.log.Error("refresh token has no owner",
			zap.String("token", tokenID.String()),
			zap.String("owner", rt.OwnerID.String()),
			zap.Error(err),
		)
		return claim.AccessToken{}, customErrors.WrapInternal(err, "Refresh")
	case err != nil:
		return claim.AccessToken{}, customErrors.WrapInternal(err, "Refresh")
	}

	access, err := claim.Sign(a.codec, claim.NewAccessSubject(owner.PublicID))
	if err != nil {
		return claim.AccessToken{}, customErrors.WrapInternal(err, "Refresh")
	}
	return access, nil
}

func (a *authService) Logout(ctx context.Context, rc claim.RefreshClaim) error {
	if err := a.tokenRepo.DeleteRefreshToken(ctx, rc.Subject().TokenID); err != nil {
		return customErrors.WrapInternal(err, "Logout")
	}
	return nil
}

func (a *authService) WhoAmI(ac claim.AccessClaim) claim.AccessClaim {
	return ac
}

func (a *authService) Profile(ctx context.Context, ac claim.AccessClaim) (model.User, error) {
	user, err := a.userRepo.GetUserByPublicID(ctx, ac.Subject().UserID)
	switch {
	case customErrors.IsNotFound(err):
		return model.User{}, customErrors.ErrNotFound
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "Profile")
	}
	return user, nil
}

func (a *authService) UpdateProfile(ctx context.Context, ac claim.AccessClaim, in dto.UpdateProfileDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	var upd model.UserUpdate
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		upd.DisplayName = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		upd.Email = &email
	}
	if in.Password != nil {
		hash, err := a.hasher.Hash(ctx, *in.Password)
		if err != nil {
			return model.User{}, err
		}
		upd.PasswordHash = &hash
	}

	err := a.userRepo.UpdateUser(ctx, ac.Subject().UserID, upd)
	switch {
	case customErrors.IsNotFound(err):
		return model.User{}, customErrors.ErrNotFound
	case customErrors.IsAlreadyExists(err):
		return model.User{}, customErrors.ErrAlreadyExists
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "UpdateProfile")
	}
	return a.Profile(ctx, ac)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
