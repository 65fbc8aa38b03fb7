// Package rbac enforces permission-scope membership on verified
// principals. Authentication establishes who the caller is; this package
// decides whether that caller may perform one named action.
package rbac

import (
	"net/http"

	"coffeeshop/internal/domain"
)

type Authorizer struct{}

func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

// Require fails unless the principal's grant set contains permission.
// A nil grant set means the token was issued without any RBAC data
// attached, which is an identity-provider configuration problem rather
// than a forged or under-privileged token, and is reported as such.
func (a *Authorizer) Require(principal domain.Principal, permission string) error {
	if principal.Permissions == nil {
		return domain.NewAuthError(http.StatusBadRequest,
			domain.AuthCodePermissionsClaimMissing, "token carries no permissions claim")
	}
	if !principal.HasPermission(permission) {
		return domain.NewAuthError(http.StatusForbidden,
			domain.AuthCodePermissionDenied, "permission "+permission+" is not granted")
	}
	return nil
}
