package claim

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTTL  = 5 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type keySpec struct {
	secret []byte
	ttl    time.Duration
}

// Codec holds the per-kind secrets and lifetimes. It is safe for concurrent
// use.
type Codec struct {
	keys   map[kind]keySpec
	now    func() time.Time
	leeway time.Duration
}

type Option func(*Codec)

// WithClock replaces time.Now for both signing and verification.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func WithLeeway(d time.Duration) Option {
	return func(c *Codec) { c.leeway = d }
}

func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 {
		return nil, errors.New("claim: access secret is empty")
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("claim: refresh secret is empty")
	}
	// A shared secret would let a refresh token pass as an access token.
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("claim: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}

	c := &Codec{
		keys: map[kind]keySpec{
			kindAccess:  {secret: bytes.Clone(cfg.AccessSecret), ttl: cfg.AccessTTL},
			kindRefresh: {secret: bytes.Clone(cfg.RefreshSecret), ttl: cfg.RefreshTTL},
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Lifetime returns how long claims of subject type S stay valid.
func Lifetime[S Subject](c *Codec) time.Duration {
	var zero S
	return c.keys[zero.kind()].ttl
}

// Sign stamps iat and exp on sub and signs it with the secret of its kind.
func Sign[S Subject](c *Codec, sub S) (Encoded[S], error) {
	spec := c.keys[sub.kind()]
	now := c.now()

	claims := wireClaims[S]{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(spec.ttl)),
		},
		Payload: sub,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(spec.secret)
	if err != nil {
		return Encoded[S]{}, fmt.Errorf("%w: %s: %w", customErrors.ErrSigning, sub.kind(), err)
	}
	return Encoded[S]{raw: signed}, nil
}

// Decode verifies the signature and expiry of enc. Every failure is reported
// as ErrInvalidToken; callers can not learn which check rejected the token.
func Decode[S Subject](c *Codec, enc Encoded[S]) (Decoded[S], error) {
	var zero S
	spec := c.keys[zero.kind()]

	claims := &wireClaims[S]{}
	token, err := jwt.ParseWithClaims(enc.raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return spec.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
		jwt.WithLeeway(c.leeway),
	)
	if err != nil || !token.Valid {
		return Decoded[S]{}, customErrors.ErrInvalidToken
	}
	if !claims.Payload.valid() || claims.IssuedAt == nil {
		return Decoded[S]{}, customErrors.ErrInvalidToken
	}

	return Decoded[S]{
		subject:   claims.Payload,
		issuedAt:  claims.IssuedAt.Time,
		expiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify decodes a raw bearer string.
func Verify[S Subject](c *Codec, raw string) (Decoded[S], error) {
	return Decode(c, FromString[S](raw))
}
