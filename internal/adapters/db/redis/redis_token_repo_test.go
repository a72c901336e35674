package redis

import (
	"context"
	"testing"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
)

type usersStub struct {
	users map[uuid.UUID]model.User
}

func (u *usersStub) CreateUser(_ context.Context, m model.User) (model.User, error) {
	u.users[m.PublicID] = m
	return m, nil
}

func (u *usersStub) GetUserByPublicID(_ context.Context, id uuid.UUID) (model.User, error) {
	m, ok := u.users[id]
	if !ok {
		return model.User{}, customErrors.ErrNotFound
	}
	return m, nil
}

func (u *usersStub) GetCredentialsByEmail(context.Context, string) (model.Credentials, error) {
	return model.Credentials{}, customErrors.ErrNotFound
}

func (u *usersStub) UpdateUser(context.Context, uuid.UUID, model.UserUpdate) error { return nil }

func (u *usersStub) TouchLastLogin(context.Context, int64) error { return nil }

func newRepo(t *testing.T) (*RedisTokenRepo, *miniredis.Miniredis, *usersStub) {
	mr := miniredis.RunT(t)

	client := redisv9.NewClient(&redisv9.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	users := &usersStub{users: map[uuid.UUID]model.User{}}
	return NewRedisTokenRepo(client, users), mr, users
}

func TestRedisTokenRepo_CreateAndFind(t *testing.T) {
	repo, mr, users := newRepo(t)
	ctx := context.Background()

	alice, _ := users.CreateUser(ctx, model.User{PublicID: uuid.New(), DisplayName: "alice"})
	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)

	rt, err := repo.CreateRefreshToken(ctx, alice.PublicID, exp)
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}
	if !mr.Exists("rt:" + rt.Token.String()) {
		t.Fatal("token key not written")
	}
	if ttl := mr.TTL("rt:" + rt.Token.String()); ttl <= 0 || ttl > 10*time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	found, owner, err := repo.FindWithOwner(ctx, rt.Token)
	if err != nil {
		t.Fatalf("FindWithOwner: %v", err)
	}
	if found.OwnerID != alice.PublicID || !found.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected token %+v", found)
	}
	if owner.DisplayName != "alice" {
		t.Fatalf("unexpected owner %+v", owner)
	}
}

func TestRedisTokenRepo_Expiry(t *testing.T) {
	repo, mr, users := newRepo(t)
	ctx := context.Background()

	alice, _ := users.CreateUser(ctx, model.User{PublicID: uuid.New()})
	rt, err := repo.CreateRefreshToken(ctx, alice.PublicID, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, _, err := repo.FindWithOwner(ctx, rt.Token); !customErrors.IsNotFound(err) {
		t.Fatalf("expired token must be gone, got %v", err)
	}
}

func TestRedisTokenRepo_PastExpiryStillExpires(t *testing.T) {
	repo, mr, _ := newRepo(t)

	rt, err := repo.CreateRefreshToken(context.Background(), uuid.New(), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}
	if ttl := mr.TTL("rt:" + rt.Token.String()); ttl <= 0 {
		t.Fatalf("key must carry a ttl, got %v", ttl)
	}
}

func TestRedisTokenRepo_DeleteIsIdempotent(t *testing.T) {
	repo, _, users := newRepo(t)
	ctx := context.Background()

	alice, _ := users.CreateUser(ctx, model.User{PublicID: uuid.New()})
	rt, err := repo.CreateRefreshToken(ctx, alice.PublicID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}

	if err := repo.DeleteRefreshToken(ctx, rt.Token); err != nil {
		t.Fatalf("DeleteRefreshToken: %v", err)
	}
	if _, _, err := repo.FindWithOwner(ctx, rt.Token); !customErrors.IsNotFound(err) {
		t.Fatalf("deleted token must be gone, got %v", err)
	}
	if err := repo.DeleteRefreshToken(ctx, rt.Token); err != nil {
		t.Fatalf("second delete must succeed: %v", err)
	}
	if err := repo.DeleteRefreshToken(ctx, uuid.New()); err != nil {
		t.Fatalf("deleting an unknown token must succeed: %v", err)
	}
}

func TestRedisTokenRepo_OwnerMissing(t *testing.T) {
	repo, _, _ := newRepo(t)
	ctx := context.Background()

	ghost := uuid.New()
	rt, err := repo.CreateRefreshToken(ctx, ghost, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}

	found, _, err := repo.FindWithOwner(ctx, rt.Token)
	if !customErrors.IsOwnerMissing(err) {
		t.Fatalf("expected owner missing, got %v", err)
	}
	if found.OwnerID != ghost {
		t.Fatalf("token should be returned with the error, got %+v", found)
	}
}

func TestRedisTokenRepo_CorruptRecord(t *testing.T) {
	repo, mr, _ := newRepo(t)
	token := uuid.New()
	mr.HSet("rt:"+token.String(), "owner", "not-a-uuid", "exp", "1")

	if _, _, err := repo.FindWithOwner(context.Background(), token); !customErrors.IsInternal(err) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestRedisTokenRepo_ConnectionLost(t *testing.T) {
	repo, mr, _ := newRepo(t)
	mr.Close()

	_, err := repo.CreateRefreshToken(context.Background(), uuid.New(), time.Now().Add(time.Hour))
	if !customErrors.IsInternal(err) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if _, _, err := repo.FindWithOwner(context.Background(), uuid.New()); !customErrors.IsInternal(err) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
