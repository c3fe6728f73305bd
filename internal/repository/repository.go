package repository

import (
	"context"

	"rentalhub/internal/domain"
	"rentalhub/internal/policy"
	"rentalhub/internal/search"
)

// UsersRepository users + profiles
type UsersRepository interface {
	// CreateUser inserts the user and its profile in one transaction.
	CreateUser(ctx context.Context, u *domain.User, phone string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetProfile(ctx context.Context, userID int64) (*domain.Profile, error)
}

// PropertiesRepository properties, with the landlord username joined in.
type PropertiesRepository interface {
	// ListProperties returns one page of matching properties (newest first) and the total match count.
	ListProperties(ctx context.Context, c search.Criteria, page search.Page) ([]domain.Property, int, error)
	GetProperty(ctx context.Context, id int64) (*domain.Property, error)
	CreateProperty(ctx context.Context, p *domain.Property) (*domain.Property, error)
	// UpdateProperty writes every mutable column of p.
	UpdateProperty(ctx context.Context, p *domain.Property) (*domain.Property, error)
	DeleteProperty(ctx context.Context, id int64) error
}

// ApplicationsRepository rental applications. UNIQUE(property_id, tenant_id) is enforced here.
type ApplicationsRepository interface {
	ListApplications(ctx context.Context, v policy.Visibility, page search.Page) ([]domain.RentalApplication, int, error)
	GetApplication(ctx context.Context, id int64) (*domain.RentalApplication, error)
	CreateApplication(ctx context.Context, a *domain.RentalApplication) (*domain.RentalApplication, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status domain.ApplicationStatus) (*domain.RentalApplication, error)
}

type PaymentsRepository interface {
	ListPayments(ctx context.Context, v policy.Visibility, page search.Page) ([]domain.Payment, int, error)
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
	CreatePayment(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
}

// ReviewsRepository reviews. UNIQUE(property_id, tenant_id) is enforced here.
type ReviewsRepository interface {
	// ListReviews lists reviews of one property, or of all properties when propertyID is 0.
	ListReviews(ctx context.Context, propertyID int64, page search.Page) ([]domain.Review, int, error)
	GetReview(ctx context.Context, id int64) (*domain.Review, error)
	CreateReview(ctx context.Context, r *domain.Review) (*domain.Review, error)
}
