package domain

import (
	"database/sql"
	"strings"
	"time"
)

// Role is fixed at registration. The set is closed: every permission decision
// switches over these two values.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
)

// Roles lists every role, in display order.
var Roles = []Role{RoleTenant, RoleLandlord}

// ParseRole accepts "tenant" or "landlord" (case-insensitive).
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleTenant:
		return RoleTenant, true
	case RoleLandlord:
		return RoleLandlord, true
	}
	return "", false
}

// Label is the human readable name used by the rendered pages.
func (r Role) Label() string {
	switch r {
	case RoleTenant:
		return "Tenant"
	case RoleLandlord:
		return "Landlord"
	}
	return string(r)
}

// User 对应 users 表
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	DateJoined   time.Time `db:"date_joined"`
}

// Profile 对应 profiles 表 (1:1 with users)
type Profile struct {
	ID     int64          `db:"id"`
	UserID int64          `db:"user_id"`
	Phone  sql.NullString `db:"phone"` // nullable
}
