package domain

import (
	"strings"
	"time"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

var ApplicationStatuses = []ApplicationStatus{ApplicationPending, ApplicationApproved, ApplicationRejected}

// ParseApplicationStatus accepts exactly the three known values (case-insensitive).
func ParseApplicationStatus(s string) (ApplicationStatus, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, st := range ApplicationStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// RentalApplication 对应 rental_applications 表
// UNIQUE (property_id, tenant_id)
type RentalApplication struct {
	ID             int64             `db:"id"`
	PropertyID     int64             `db:"property_id"`
	PropertyName   string            `db:"property_name"` // joined
	LandlordID     int64             `db:"landlord_id"`   // joined from properties
	TenantID       int64             `db:"tenant_id"`
	TenantUsername string            `db:"tenant_username"` // joined
	Message        string            `db:"message"`
	Status         ApplicationStatus `db:"status"`
	CreatedAt      time.Time         `db:"created_at"`
}
