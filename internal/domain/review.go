package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review 对应 reviews 表
// UNIQUE (property_id, tenant_id), immutable once created.
type Review struct {
	ID             int64     `db:"id"`
	PropertyID     int64     `db:"property_id"`
	TenantID       int64     `db:"tenant_id"`
	TenantUsername string    `db:"tenant_username"` // joined
	Rating         int       `db:"rating"`
	Comment        string    `db:"comment"`
	CreatedAt      time.Time `db:"created_at"`
}
