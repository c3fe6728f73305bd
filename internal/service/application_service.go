package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rentalhub/internal/auth"
	"rentalhub/internal/domain"
	"rentalhub/internal/events"
	"rentalhub/internal/policy"
	"rentalhub/internal/repository"
	"rentalhub/internal/search"

	"go.uber.org/zap"
)

// ApplicationService 租房申请
type ApplicationService interface {
	List(ctx context.Context, actor *auth.Identity, page search.Page) (*ListResult[ApplicationDTO], error)
	Get(ctx context.Context, actor *auth.Identity, id int64) (*ApplicationDTO, error)
	Apply(ctx context.Context, actor *auth.Identity, req ApplyRequest) (*ApplicationDTO, error)
	// UpdateStatus reads only the status; the message cannot be changed.
	UpdateStatus(ctx context.Context, actor *auth.Identity, id int64, req UpdateStatusRequest) (*ApplicationDTO, error)
}

type applicationService struct {
	properties   repository.PropertiesRepository
	applications repository.ApplicationsRepository
	publisher    events.Publisher
	logger       *zap.Logger
}

func NewApplicationService(
	properties repository.PropertiesRepository,
	applications repository.ApplicationsRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) ApplicationService {
	return &applicationService{
		properties:   properties,
		applications: applications,
		publisher:    publisher,
		logger:       logger,
	}
}

type ApplyRequest struct {
	PropertyID int64
	Message    string
}

type UpdateStatusRequest struct {
	Status string
}

func (s *applicationService) List(ctx context.Context, actor *auth.Identity, page search.Page) (*ListResult[ApplicationDTO], error) {
	if !policy.Permitted(actor, policy.ListApplications, policy.Resource{}) {
		return nil, denyFor(actor == nil, "")
	}
	items, total, err := s.applications.ListApplications(ctx, policy.Scope(actor), page)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	out := make([]ApplicationDTO, 0, len(items))
	for i := range items {
		out = append(out, toApplicationDTO(&items[i]))
	}
	return &ListResult[ApplicationDTO]{Items: out, Total: total, Page: page}, nil
}

// Get hides applications outside the actor's scope as not found.
func (s *applicationService) Get(ctx context.Context, actor *auth.Identity, id int64) (*ApplicationDTO, error) {
	if actor == nil {
		return nil, Unauthenticated(msgNotAuthenticated)
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Permitted(actor, policy.ViewApplication, policy.ForApplication(a)) {
		return nil, NotFound("Application not found.")
	}
	dto := toApplicationDTO(a)
	return &dto, nil
}

func (s *applicationService) Apply(ctx context.Context, actor *auth.Identity, req ApplyRequest) (*ApplicationDTO, error) {
	if !policy.Permitted(actor, policy.CreateApplication, policy.Resource{}) {
		return nil, denyFor(actor == nil, "Only tenants can apply for properties.")
	}
	if req.PropertyID <= 0 {
		return nil, Validation("Invalid input.").WithField("property", "This field is required.")
	}

	p, err := s.properties.GetProperty(ctx, req.PropertyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Property not found.")
		}
		return nil, fmt.Errorf("apply: %w", err)
	}
	if p.LandlordID == actor.UserID {
		return nil, Validation("You cannot apply for your own property.").
			WithField("property", "You cannot apply for your own property.")
	}
	if !p.IsAvailable {
		return nil, Validation("This property is not available.").
			WithField("property", "This property is not available.")
	}

	// one application per (property, tenant): the unique key decides, not a pre-check
	a, err := s.applications.CreateApplication(ctx, &domain.RentalApplication{
		PropertyID: p.ID,
		TenantID:   actor.UserID,
		Message:    strings.TrimSpace(req.Message),
		Status:     domain.ApplicationPending,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, Duplicate("You have already applied for this property.").
				WithField("non_field_errors", "You have already applied for this property.").
				Wrap(err)
		case errors.Is(err, repository.ErrNotFound):
			return nil, NotFound("Property not found.")
		}
		return nil, fmt.Errorf("apply: %w", err)
	}

	s.logger.Info("Rental application submitted",
		zap.Int64("application_id", a.ID),
		zap.Int64("property_id", a.PropertyID),
		zap.Int64("tenant_id", a.TenantID),
	)
	dto := toApplicationDTO(a)
	publish(ctx, s.publisher, s.logger, events.New(events.ApplicationSubmitted, dto))
	return &dto, nil
}

func (s *applicationService) UpdateStatus(ctx context.Context, actor *auth.Identity, id int64, req UpdateStatusRequest) (*ApplicationDTO, error) {
	if actor == nil {
		return nil, Unauthenticated(msgNotAuthenticated)
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Permitted(actor, policy.UpdateApplicationStatus, policy.ForApplication(a)) {
		return nil, Forbidden("Only the landlord of this property can change the application status.")
	}

	status, ok := domain.ParseApplicationStatus(req.Status)
	if !ok {
		msg := fmt.Sprintf("%q is not a valid choice.", req.Status)
		if strings.TrimSpace(req.Status) == "" {
			msg = "This field is required."
		}
		return nil, Validation("Invalid status.").WithField("status", msg)
	}

	updated, err := s.applications.UpdateApplicationStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Application not found.")
		}
		return nil, fmt.Errorf("update application status: %w", err)
	}

	s.logger.Info("Rental application status changed",
		zap.Int64("application_id", id),
		zap.String("from", string(a.Status)),
		zap.String("to", string(updated.Status)),
		zap.Int64("landlord_id", actor.UserID),
	)
	dto := toApplicationDTO(updated)
	publish(ctx, s.publisher, s.logger, events.New(events.ApplicationStatusChanged, dto))
	return &dto, nil
}

func (s *applicationService) load(ctx context.Context, id int64) (*domain.RentalApplication, error) {
	a, err := s.applications.GetApplication(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Application not found.")
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

// publish never fails the request; the write has already committed.
func publish(ctx context.Context, pub events.Publisher, logger *zap.Logger, e events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, e); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("event_type", e.Type),
			zap.String("event_id", e.ID),
			zap.Error(err),
		)
	}
}
