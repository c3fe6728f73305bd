package auth

import "rentalhub/internal/domain"

// Identity is the authenticated actor of one request.
// A nil *Identity means anonymous; it is always passed explicitly, never read from globals.
type Identity struct {
	UserID   int64
	Username string
	Role     domain.Role
}

// FromUser builds the Identity of a stored user.
func FromUser(u *domain.User) *Identity {
	if u == nil {
		return nil
	}
	return &Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (i *Identity) IsTenant() bool {
	return i != nil && i.Role == domain.RoleTenant
}

func (i *Identity) IsLandlord() bool {
	return i != nil && i.Role == domain.RoleLandlord
}
