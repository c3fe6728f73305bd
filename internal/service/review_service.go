package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rentalhub/internal/auth"
	"rentalhub/internal/domain"
	"rentalhub/internal/policy"
	"rentalhub/internal/repository"
	"rentalhub/internal/search"

	"go.uber.org/zap"
)

// ReviewService 评价. Reviews are immutable once written.
type ReviewService interface {
	// List lists reviews of one property, or all reviews when propertyID is 0.
	List(ctx context.Context, actor *auth.Identity, propertyID int64, page search.Page) (*ListResult[ReviewDTO], error)
	Get(ctx context.Context, actor *auth.Identity, id int64) (*ReviewDTO, error)
	Create(ctx context.Context, actor *auth.Identity, req CreateReviewRequest) (*ReviewDTO, error)
}

type reviewService struct {
	properties repository.PropertiesRepository
	reviews    repository.ReviewsRepository
	logger     *zap.Logger
}

func NewReviewService(properties repository.PropertiesRepository, reviews repository.ReviewsRepository, logger *zap.Logger) ReviewService {
	return &reviewService{properties: properties, reviews: reviews, logger: logger}
}

type CreateReviewRequest struct {
	PropertyID int64
	Rating     string // must be integral, 1..5
	Comment    string
}

func (s *reviewService) List(ctx context.Context, actor *auth.Identity, propertyID int64, page search.Page) (*ListResult[ReviewDTO], error) {
	if !policy.Permitted(actor, policy.ListReviews, policy.Resource{}) {
		return nil, denyFor(actor == nil, "")
	}
	items, total, err := s.reviews.ListReviews(ctx, propertyID, page)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	out := make([]ReviewDTO, 0, len(items))
	for i := range items {
		out = append(out, toReviewDTO(&items[i]))
	}
	return &ListResult[ReviewDTO]{Items: out, Total: total, Page: page}, nil
}

func (s *reviewService) Get(ctx context.Context, actor *auth.Identity, id int64) (*ReviewDTO, error) {
	if !policy.Permitted(actor, policy.ViewReview, policy.Resource{}) {
		return nil, denyFor(actor == nil, "")
	}
	r, err := s.reviews.GetReview(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Review not found.")
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	dto := toReviewDTO(r)
	return &dto, nil
}

func (s *reviewService) Create(ctx context.Context, actor *auth.Identity, req CreateReviewRequest) (*ReviewDTO, error) {
	if !policy.Permitted(actor, policy.CreateReview, policy.Resource{}) {
		return nil, denyFor(actor == nil, "Only tenants can leave reviews.")
	}

	fe := FieldErrors{}
	if req.PropertyID <= 0 {
		fe.Add("property", "This field is required.")
	}
	rating := parseRating(fe, req.Rating)
	if err := fe.Err(); err != nil {
		return nil, err
	}

	if _, err := s.properties.GetProperty(ctx, req.PropertyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Property not found.")
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	r, err := s.reviews.CreateReview(ctx, &domain.Review{
		PropertyID: req.PropertyID,
		TenantID:   actor.UserID,
		Rating:     rating,
		Comment:    strings.TrimSpace(req.Comment),
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, Duplicate("You have already reviewed this property.").
				WithField("non_field_errors", "You have already reviewed this property.").
				Wrap(err)
		case errors.Is(err, repository.ErrNotFound):
			return nil, NotFound("Property not found.")
		case errors.Is(err, repository.ErrConstraint):
			return nil, Validation("Invalid input.").WithField("rating", "Rating must be between 1 and 5.")
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.Info("Review created",
		zap.Int64("review_id", r.ID),
		zap.Int64("property_id", r.PropertyID),
		zap.Int("rating", r.Rating),
	)
	dto := toReviewDTO(r)
	return &dto, nil
}
