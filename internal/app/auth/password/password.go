// Package password hashes and checks passwords with argon2id on a dedicated
// worker pool.
package password

import (
	"context"
	"errors"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/workerpool"
	"github.com/alexedwards/argon2id"
)

var DefaultParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type Crypto struct {
	pool   *workerpool.Pool
	params *argon2id.Params
	pepper string
}

type Option func(*Crypto)

func WithParams(p *argon2id.Params) Option {
	return func(c *Crypto) { c.params = p }
}

// WithPepper appends a server-side secret to every password before hashing.
func WithPepper(pepper string) Option {
	return func(c *Crypto) { c.pepper = pepper }
}

func New(pool *workerpool.Pool, opts ...Option) *Crypto {
	c := &Crypto{pool: pool, params: DefaultParams}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hash returns a self-describing PHC string with a fresh random salt.
func (c *Crypto) Hash(ctx context.Context, password string) (string, error) {
	return workerpool.Do(ctx, c.pool, func() (string, error) {
		hash, err := argon2id.CreateHash(password+c.pepper, c.params)
		if err != nil {
			return "", customErrors.WrapInternal(errors.Join(customErrors.ErrHashCompute, err), "Hash")
		}
		return hash, nil
	})
}

// Verify recomputes the hash with the parameters and salt stored in hash.
func (c *Crypto) Verify(ctx context.Context, password, hash string) (bool, error) {
	return workerpool.Do(ctx, c.pool, func() (bool, error) {
		// Comparing can only fail while decoding the stored hash.
		ok, err := argon2id.ComparePasswordAndHash(password+c.pepper, hash)
		if err != nil {
			return false, customErrors.WrapInternal(errors.Join(customErrors.ErrHashParse, err), "Verify")
		}
		return ok, nil
	})
}
