package claim

import "github.com/google/uuid"

type kind int

const (
	kindAccess kind = iota
	kindRefresh
)

func (k kind) String() string {
	switch k {
	case kindAccess:
		return "access"
	case kindRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// AccessSubject asserts that a request acts as the user with UserID.
type AccessSubject struct {
	UserID uuid.UUID `json:"uid"`
}

func NewAccessSubject(userID uuid.UUID) AccessSubject {
	return AccessSubject{UserID: userID}
}

func (AccessSubject) kind() kind { return kindAccess }

func (s AccessSubject) valid() bool { return s.UserID != uuid.Nil }

// RefreshSubject points at a persisted refresh token record.
type RefreshSubject struct {
	TokenID uuid.UUID `json:"rti"`
}

func NewRefreshSubject(tokenID uuid.UUID) RefreshSubject {
	return RefreshSubject{TokenID: tokenID}
}

func (RefreshSubject) kind() kind { return kindRefresh }

func (s RefreshSubject) valid() bool { return s.TokenID != uuid.Nil }

type (
	AccessToken  = Encoded[AccessSubject]
	RefreshToken = Encoded[RefreshSubject]
	AccessClaim  = Decoded[AccessSubject]
	RefreshClaim = Decoded[RefreshSubject]
)
