package redis

import (
	"context"
	"strconv"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
	repo "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/repo"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "rt:"

	fieldOwner   = "owner"
	fieldExpires = "exp"
)

// RedisTokenRepo keeps refresh tokens as hashes that expire together with the
// token. Owners are resolved through the user repository.
type RedisTokenRepo struct {
	client redis.UniversalClient
	users  repo.UserRepo
	now    func() time.Time
}

func NewRedisTokenRepo(client redis.UniversalClient, users repo.UserRepo) *RedisTokenRepo {
	return &RedisTokenRepo{client: client, users: users, now: time.Now}
}

func key(token uuid.UUID) string {
	return keyPrefix + token.String()
}

func (r *RedisTokenRepo) CreateRefreshToken(ctx context.Context, owner uuid.UUID, expiresAt time.Time) (model.RefreshToken, error) {
	rt := model.RefreshToken{Token: uuid.New(), OwnerID: owner, ExpiresAt: expiresAt.UTC()}
	k := key(rt.Token)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, fieldOwner, owner.String(), fieldExpires, rt.ExpiresAt.Unix())
		pipe.Expire(ctx, k, r.safeTTL(rt.ExpiresAt))
		return nil
	})
	if err != nil {
		return model.RefreshToken{}, customErrors.WrapInternal(err, "CreateRefreshToken")
	}
	return rt, nil
}

func (r *RedisTokenRepo) FindWithOwner(ctx context.Context, token uuid.UUID) (model.RefreshToken, model.User, error) {
	vals, err := r.client.HGetAll(ctx, key(token)).Result()
	if err != nil {
		return model.RefreshToken{}, model.User{}, customErrors.WrapInternal(err, "FindWithOwner")
	}
	if len(vals) == 0 {
		return model.RefreshToken{}, model.User{}, customErrors.ErrNotFound
	}

	owner, err := uuid.Parse(vals[fieldOwner])
	if err != nil {
		return model.RefreshToken{}, model.User{}, customErrors.WrapInternal(err, "FindWithOwner: owner")
	}
	exp, err := strconv.ParseInt(vals[fieldExpires], 10, 64)
	if err != nil {
		return model.RefreshToken{}, model.User{}, customErrors.WrapInternal(err, "FindWithOwner: exp")
	}
	rt := model.RefreshToken{Token: token, OwnerID: owner, ExpiresAt: time.Unix(exp, 0).UTC()}

	user, err := r.users.GetUserByPublicID(ctx, owner)
	switch {
	case customErrors.IsNotFound(err):
		return rt, model.User{}, customErrors.ErrOwnerMissing
	case err != nil:
		return model.RefreshToken{}, model.User{}, customErrors.WrapInternal(err, "FindWithOwner")
	}
	return rt, user, nil
}

func (r *RedisTokenRepo) DeleteRefreshToken(ctx context.Context, token uuid.UUID) error {
	if err := r.client.Del(ctx, key(token)).Err(); err != nil {
		return customErrors.WrapInternal(err, "DeleteRefreshToken")
	}
	return nil
}

// safeTTL never returns zero: a key without a positive TTL would live forever.
func (r *RedisTokenRepo) safeTTL(exp time.Time) time.Duration {
	ttl := exp.Sub(r.now())
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}
