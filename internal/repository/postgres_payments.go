package repository

import (
	"context"

	"rentalhub/internal/domain"
	"rentalhub/internal/policy"
	"rentalhub/internal/search"

	"github.com/jmoiron/sqlx"
)

type PostgresPaymentsRepository struct {
	db *sqlx.DB
}

func NewPostgresPaymentsRepository(db *sqlx.DB) *PostgresPaymentsRepository {
	return &PostgresPaymentsRepository{db: db}
}

var _ PaymentsRepository = (*PostgresPaymentsRepository)(nil)

const paymentSelect = `
	SELECT pay.id, pay.application_id, a.property_id, a.tenant_id, p.landlord_id,
	       pay.amount, pay.status, pay.transaction_id, pay.created_at
`

const paymentJoins = ` JOIN rental_applications a ON a.id = pay.application_id JOIN properties p ON p.id = a.property_id`

func (r *PostgresPaymentsRepository) ListPayments(ctx context.Context, v policy.Visibility, page search.Page) ([]domain.Payment, int, error) {
	const op = "PostgresPaymentsRepository.ListPayments"

	where, ok := visibilityWhere(v, "a.tenant_id", "p.landlord_id")
	if !ok {
		return []domain.Payment{}, 0, nil
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM payments pay`+paymentJoins+where, v.UserID); err != nil {
		return nil, 0, wrap(op, err)
	}

	items := []domain.Payment{}
	err := r.db.SelectContext(ctx, &items,
		paymentSelect+`FROM payments pay`+paymentJoins+where+
			` ORDER BY pay.created_at DESC, pay.id DESC LIMIT $2 OFFSET $3`,
		v.UserID, page.Size, page.Offset(),
	)
	if err != nil {
		return nil, 0, wrap(op, err)
	}
	return items, total, nil
}

func (r *PostgresPaymentsRepository) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.GetContext(ctx, &p, paymentSelect+`FROM payments pay`+paymentJoins+` WHERE pay.id = $1`, id); err != nil {
		return nil, wrap("PostgresPaymentsRepository.GetPayment", err)
	}
	return &p, nil
}

// CreatePayment always stores status pending without a transaction id.
func (r *PostgresPaymentsRepository) CreatePayment(ctx context.Context, in *domain.Payment) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.GetContext(ctx, &p, `
		WITH pay AS (
			INSERT INTO payments (application_id, amount, status)
			VALUES ($1, $2, $3)
			RETURNING *
		)`+paymentSelect+`FROM pay`+paymentJoins,
		in.ApplicationID, in.Amount, domain.PaymentPending,
	)
	if err != nil {
		return nil, wrap("PostgresPaymentsRepository.CreatePayment", err)
	}
	return &p, nil
}
