// Package claim signs and verifies bearer tokens.
//
// A token exists in one of two forms. Encoded[S] is the opaque wire string and
// offers nothing but the string itself. Decoded[S] carries the subject and its
// timestamps and can only be produced by Decode, which checks the signature
// and the expiry first. Code holding an Encoded value therefore has no way to
// read subject fields it has not verified.
package claim

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Subject is the closed set of claim payloads. The kind selects the signing
// secret and the lifetime used for that payload.
type Subject interface {
	AccessSubject | RefreshSubject
	kind() kind
	valid() bool
}

// Encoded is a signed claim as sent over the wire.
type Encoded[S Subject] struct {
	raw string
}

// FromString wraps a token received from a client. Nothing is checked until
// the value is passed to Decode.
func FromString[S Subject](raw string) Encoded[S] {
	return Encoded[S]{raw: raw}
}

func (e Encoded[S]) String() string {
	return e.raw
}

func (e Encoded[S]) IsZero() bool {
	return e.raw == ""
}

func (e Encoded[S]) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.raw)
}

// Decoded is a verified, unexpired claim.
type Decoded[S Subject] struct {
	subject   S
	issuedAt  time.Time
	expiresAt time.Time
}

func (d Decoded[S]) Subject() S {
	return d.subject
}

func (d Decoded[S]) IssuedAt() time.Time {
	return d.issuedAt
}

func (d Decoded[S]) ExpiresAt() time.Time {
	return d.expiresAt
}

// MarshalJSON renders the claim in its wire payload shape: subject fields
// next to iat and exp.
func (d Decoded[S]) MarshalJSON() ([]byte, error) {
	return wireClaims[S]{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(d.issuedAt),
			ExpiresAt: jwt.NewNumericDate(d.expiresAt),
		},
		Payload: d.subject,
	}.MarshalJSON()
}

// wireClaims is the JWT payload. Subject fields are flattened into the same
// object as the registered claims, so subjects must not use registered claim
// names as JSON keys.
type wireClaims[S Subject] struct {
	jwt.RegisteredClaims
	Payload S
}

func (w wireClaims[S]) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}

	sub, err := json.Marshal(w.Payload)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sub, &fields); err != nil {
		return nil, fmt.Errorf("subject must encode as an object: %w", err)
	}

	reg, err := json.Marshal(w.RegisteredClaims)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(reg, &fields); err != nil {
		return nil, err
	}

	return json.Marshal(fields)
}

func (w *wireClaims[S]) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, &w.RegisteredClaims); err != nil {
		return err
	}
	return json.Unmarshal(b, &w.Payload)
}
