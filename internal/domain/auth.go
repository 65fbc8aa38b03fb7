package domain

import (
	"errors"
	"time"
)

// Principal is the verified claim set of a bearer token. It is produced
// fresh on every successful verification and never mutated afterwards.
//
// Permissions distinguishes an absent claim from an empty grant set: nil
// means the token carried no permissions claim at all, while a non-nil
// empty slice means the claim was present but granted nothing.
type Principal struct {
	Subject     string
	Issuer      string
	Audience    string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Permissions []string
}

// HasPermission reports whether the principal's grant set contains perm.
func (p Principal) HasPermission(perm string) bool {
	for _, granted := range p.Permissions {
		if granted == perm {
			return true
		}
	}
	return false
}

// Auth failure codes. Each maps to a fixed HTTP status carried by AuthError.
const (
	AuthCodeHeaderMissing           = "AUTH_HEADER_MISSING"
	AuthCodeHeaderMalformed         = "AUTH_HEADER_MALFORMED"
	AuthCodeTokenMalformed          = "TOKEN_MALFORMED"
	AuthCodeKeyUnknown              = "KEY_UNKNOWN"
	AuthCodeSignatureInvalid        = "SIGNATURE_INVALID"
	AuthCodeTokenExpired            = "TOKEN_EXPIRED"
	AuthCodeClaimsInvalid           = "CLAIMS_INVALID"
	AuthCodePermissionsClaimMissing = "PERMISSIONS_CLAIM_MISSING"
	AuthCodePermissionDenied        = "PERMISSION_DENIED"
	AuthCodeKeySetUnavailable       = "KEYSET_UNAVAILABLE"
)

// AuthError is a terminal authentication or authorization failure. The
// request that triggered it never reaches its handler; the HTTP layer
// renders StatusCode and Description verbatim.
type AuthError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *AuthError) Error() string {
	return e.Code + ": " + e.Description
}

func NewAuthError(status int, code, description string) *AuthError {
	return &AuthError{StatusCode: status, Code: code, Description: description}
}

// AsAuthError unwraps err to an AuthError if one is in its chain.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
