package policy

import (
	"rentalhub/internal/auth"
	"rentalhub/internal/domain"
)

type ScopeKind int

const (
	ScopeNone ScopeKind = iota
	ScopeTenant
	ScopeLandlord
)

// Visibility narrows application and payment listings.
type Visibility struct {
	Kind   ScopeKind
	UserID int64
}

// Scope returns which applications/payments actor may see:
// tenants their own, landlords those against their properties, everyone else nothing.
func Scope(actor *auth.Identity) Visibility {
	if actor == nil {
		return Visibility{Kind: ScopeNone}
	}
	switch actor.Role {
	case domain.RoleTenant:
		return Visibility{Kind: ScopeTenant, UserID: actor.UserID}
	case domain.RoleLandlord:
		return Visibility{Kind: ScopeLandlord, UserID: actor.UserID}
	}
	return Visibility{Kind: ScopeNone}
}

// Allows reports whether an object with the given ownership is visible.
func (v Visibility) Allows(res Resource) bool {
	switch v.Kind {
	case ScopeTenant:
		return res.TenantID == v.UserID
	case ScopeLandlord:
		return res.LandlordID == v.UserID
	}
	return false
}
