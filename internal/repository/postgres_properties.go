package repository

import (
	"context"
	"fmt"

	"rentalhub/internal/domain"
	"rentalhub/internal/search"

	"github.com/jmoiron/sqlx"
)

type PostgresPropertiesRepository struct {
	db *sqlx.DB
}

func NewPostgresPropertiesRepository(db *sqlx.DB) *PostgresPropertiesRepository {
	return &PostgresPropertiesRepository{db: db}
}

var _ PropertiesRepository = (*PostgresPropertiesRepository)(nil)

const propertySelect = `
	SELECT p.id, p.landlord_id, u.username AS landlord_username, p.name, p.category,
	       p.description, p.location, p.price, p.is_available, p.created_at
`

func (r *PostgresPropertiesRepository) ListProperties(ctx context.Context, c search.Criteria, page search.Page) ([]domain.Property, int, error) {
	const op = "PostgresPropertiesRepository.ListProperties"

	where, args := c.Where("p", nil)
	if where != "" {
		where = " WHERE " + where
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM properties p`+where, args...); err != nil {
		return nil, 0, wrap(op, err)
	}

	query := propertySelect + `FROM properties p JOIN users u ON u.id = p.landlord_id` + where +
		fmt.Sprintf(" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())

	items := []domain.Property{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, wrap(op, err)
	}
	return items, total, nil
}

func (r *PostgresPropertiesRepository) GetProperty(ctx context.Context, id int64) (*domain.Property, error) {
	var p domain.Property
	err := r.db.GetContext(ctx, &p, propertySelect+`FROM properties p JOIN users u ON u.id = p.landlord_id WHERE p.id = $1`, id)
	if err != nil {
		return nil, wrap("PostgresPropertiesRepository.GetProperty", err)
	}
	return &p, nil
}

func (r *PostgresPropertiesRepository) CreateProperty(ctx context.Context, in *domain.Property) (*domain.Property, error) {
	var p domain.Property
	err := r.db.GetContext(ctx, &p, `
		WITH p AS (
			INSERT INTO properties (landlord_id, name, category, description, location, price, is_available)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		)`+propertySelect+`FROM p JOIN users u ON u.id = p.landlord_id`,
		in.LandlordID, in.Name, in.Category, in.Description, in.Location, in.Price, in.IsAvailable,
	)
	if err != nil {
		return nil, wrap("PostgresPropertiesRepository.CreateProperty", err)
	}
	return &p, nil
}

func (r *PostgresPropertiesRepository) UpdateProperty(ctx context.Context, in *domain.Property) (*domain.Property, error) {
	var p domain.Property
	err := r.db.GetContext(ctx, &p, `
		WITH p AS (
			UPDATE properties
			SET name = $2, category = $3, description = $4, location = $5, price = $6, is_available = $7
			WHERE id = $1
			RETURNING *
		)`+propertySelect+`FROM p JOIN users u ON u.id = p.landlord_id`,
		in.ID, in.Name, in.Category, in.Description, in.Location, in.Price, in.IsAvailable,
	)
	if err != nil {
		return nil, wrap("PostgresPropertiesRepository.UpdateProperty", err)
	}
	return &p, nil
}

// DeleteProperty cascades to applications, payments and reviews.
func (r *PostgresPropertiesRepository) DeleteProperty(ctx context.Context, id int64) error {
	const op = "PostgresPropertiesRepository.DeleteProperty"
	res, err := r.db.ExecContext(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
