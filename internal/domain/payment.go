package domain

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus transitions past pending belong to the external payment processor.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment 对应 payments 表
type Payment struct {
	ID            int64           `db:"id"`
	ApplicationID int64           `db:"application_id"`
	PropertyID    int64           `db:"property_id"` // joined
	TenantID      int64           `db:"tenant_id"`   // joined from rental_applications
	LandlordID    int64           `db:"landlord_id"` // joined from properties
	Amount        decimal.Decimal `db:"amount"`
	Status        PaymentStatus   `db:"status"`
	TransactionID sql.NullString  `db:"transaction_id"` // set by the payment processor
	CreatedAt     time.Time       `db:"created_at"`
}
