package repository

import (
	"context"

	"rentalhub/internal/domain"
	"rentalhub/internal/search"

	"github.com/jmoiron/sqlx"
)

type PostgresReviewsRepository struct {
	db *sqlx.DB
}

func NewPostgresReviewsRepository(db *sqlx.DB) *PostgresReviewsRepository {
	return &PostgresReviewsRepository{db: db}
}

var _ ReviewsRepository = (*PostgresReviewsRepository)(nil)

const reviewSelect = `
	SELECT r.id, r.property_id, r.tenant_id, u.username AS tenant_username, r.rating, r.comment, r.created_at
`

func (r *PostgresReviewsRepository) ListReviews(ctx context.Context, propertyID int64, page search.Page) ([]domain.Review, int, error) {
	const op = "PostgresReviewsRepository.ListReviews"

	// $1 = 0 lists every property
	const where = ` WHERE ($1::bigint = 0 OR r.property_id = $1)`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reviews r`+where, propertyID); err != nil {
		return nil, 0, wrap(op, err)
	}

	items := []domain.Review{}
	err := r.db.SelectContext(ctx, &items,
		reviewSelect+`FROM reviews r JOIN users u ON u.id = r.tenant_id`+where+
			` ORDER BY r.created_at DESC, r.id DESC LIMIT $2 OFFSET $3`,
		propertyID, page.Size, page.Offset(),
	)
	if err != nil {
		return nil, 0, wrap(op, err)
	}
	return items, total, nil
}

func (r *PostgresReviewsRepository) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	var rv domain.Review
	if err := r.db.GetContext(ctx, &rv, reviewSelect+`FROM reviews r JOIN users u ON u.id = r.tenant_id WHERE r.id = $1`, id); err != nil {
		return nil, wrap("PostgresReviewsRepository.GetReview", err)
	}
	return &rv, nil
}

// CreateReview relies on uq_reviews_property_tenant for one review per tenant and property.
func (r *PostgresReviewsRepository) CreateReview(ctx context.Context, in *domain.Review) (*domain.Review, error) {
	var rv domain.Review
	err := r.db.GetContext(ctx, &rv, `
		WITH r AS (
			INSERT INTO reviews (property_id, tenant_id, rating, comment)
			VALUES ($1, $2, $3, $4)
			RETURNING *
		)`+reviewSelect+`FROM r JOIN users u ON u.id = r.tenant_id`,
		in.PropertyID, in.TenantID, in.Rating, in.Comment,
	)
	if err != nil {
		return nil, wrap("PostgresReviewsRepository.CreateReview", err)
	}
	return &rv, nil
}
