package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInternal           = errors.New("internal error")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingBearer      = errors.New("missing bearer token")

	// ErrOwnerMissing means a refresh token outlived the user it belongs to.
	ErrOwnerMissing = errors.New("refresh token owner missing")

	ErrHashParse         = errors.New("malformed password hash")
	ErrHashCompute       = errors.New("password hash computation failed")
	ErrWorkerUnavailable = errors.New("hash worker unavailable")
	ErrSigning           = errors.New("token signing failed")
)

// Login failures. Each one is an ErrInvalidCredentials so callers outside the
// service can not tell them apart.
var (
	ErrPasswordRequired = fmt.Errorf("%w: password required", ErrInvalidCredentials)
	ErrPasswordWrong    = fmt.Errorf("%w: password wrong", ErrInvalidCredentials)
	ErrNoPassword       = fmt.Errorf("%w: user has no password", ErrInvalidCredentials)
	ErrUserNotFound     = fmt.Errorf("%w: user not found", ErrInvalidCredentials)
)

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsMissingBearer(err error) bool {
	return errors.Is(err, ErrMissingBearer)
}

func IsOwnerMissing(err error) bool {
	return errors.Is(err, ErrOwnerMissing)
}

func IsWorkerUnavailable(err error) bool {
	return errors.Is(err, ErrWorkerUnavailable)
}
