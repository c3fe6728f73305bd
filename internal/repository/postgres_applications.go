package repository

import (
	"context"

	"rentalhub/internal/domain"
	"rentalhub/internal/policy"
	"rentalhub/internal/search"

	"github.com/jmoiron/sqlx"
)

type PostgresApplicationsRepository struct {
	db *sqlx.DB
}

func NewPostgresApplicationsRepository(db *sqlx.DB) *PostgresApplicationsRepository {
	return &PostgresApplicationsRepository{db: db}
}

var _ ApplicationsRepository = (*PostgresApplicationsRepository)(nil)

const applicationSelect = `
	SELECT a.id, a.property_id, p.name AS property_name, p.landlord_id, a.tenant_id,
	       u.username AS tenant_username, a.message, a.status, a.created_at
`

const applicationJoins = ` JOIN properties p ON p.id = a.property_id JOIN users u ON u.id = a.tenant_id`

// visibilityWhere renders the scope predicate; ok is false when nothing is visible.
func visibilityWhere(v policy.Visibility, tenantCol, landlordCol string) (string, bool) {
	switch v.Kind {
	case policy.ScopeTenant:
		return " WHERE " + tenantCol + " = $1", true
	case policy.ScopeLandlord:
		return " WHERE " + landlordCol + " = $1", true
	}
	return "", false
}

func (r *PostgresApplicationsRepository) ListApplications(ctx context.Context, v policy.Visibility, page search.Page) ([]domain.RentalApplication, int, error) {
	const op = "PostgresApplicationsRepository.ListApplications"

	where, ok := visibilityWhere(v, "a.tenant_id", "p.landlord_id")
	if !ok {
		return []domain.RentalApplication{}, 0, nil
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM rental_applications a JOIN properties p ON p.id = a.property_id`+where, v.UserID,
	); err != nil {
		return nil, 0, wrap(op, err)
	}

	items := []domain.RentalApplication{}
	err := r.db.SelectContext(ctx, &items,
		applicationSelect+`FROM rental_applications a`+applicationJoins+where+
			` ORDER BY a.created_at DESC, a.id DESC LIMIT $2 OFFSET $3`,
		v.UserID, page.Size, page.Offset(),
	)
	if err != nil {
		return nil, 0, wrap(op, err)
	}
	return items, total, nil
}

func (r *PostgresApplicationsRepository) GetApplication(ctx context.Context, id int64) (*domain.RentalApplication, error) {
	var a domain.RentalApplication
	err := r.db.GetContext(ctx, &a, applicationSelect+`FROM rental_applications a`+applicationJoins+` WHERE a.id = $1`, id)
	if err != nil {
		return nil, wrap("PostgresApplicationsRepository.GetApplication", err)
	}
	return &a, nil
}

// CreateApplication relies on uq_rental_applications_property_tenant; a second
// application for the same pair fails with ErrDuplicate.
func (r *PostgresApplicationsRepository) CreateApplication(ctx context.Context, in *domain.RentalApplication) (*domain.RentalApplication, error) {
	status := in.Status
	if status == "" {
		status = domain.ApplicationPending
	}
	var a domain.RentalApplication
	err := r.db.GetContext(ctx, &a, `
		WITH a AS (
			INSERT INTO rental_applications (property_id, tenant_id, message, status)
			VALUES ($1, $2, $3, $4)
			RETURNING *
		)`+applicationSelect+`FROM a`+applicationJoins,
		in.PropertyID, in.TenantID, in.Message, status,
	)
	if err != nil {
		return nil, wrap("PostgresApplicationsRepository.CreateApplication", err)
	}
	return &a, nil
}

func (r *PostgresApplicationsRepository) UpdateApplicationStatus(ctx context.Context, id int64, status domain.ApplicationStatus) (*domain.RentalApplication, error) {
	var a domain.RentalApplication
	err := r.db.GetContext(ctx, &a, `
		WITH a AS (
			UPDATE rental_applications SET status = $2 WHERE id = $1
			RETURNING *
		)`+applicationSelect+`FROM a`+applicationJoins,
		id, status,
	)
	if err != nil {
		return nil, wrap("PostgresApplicationsRepository.UpdateApplicationStatus", err)
	}
	return &a, nil
}
