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

// PropertyService 房源管理
type PropertyService interface {
	List(ctx context.Context, actor *auth.Identity, c search.Criteria, page search.Page) (*ListResult[PropertyDTO], error)
	Get(ctx context.Context, actor *auth.Identity, id int64) (*PropertyDTO, error)
	Create(ctx context.Context, actor *auth.Identity, req CreatePropertyRequest) (*PropertyDTO, error)
	Update(ctx context.Context, actor *auth.Identity, id int64, req UpdatePropertyRequest) (*PropertyDTO, error)
	Delete(ctx context.Context, actor *auth.Identity, id int64) error
}

type propertyService struct {
	properties repository.PropertiesRepository
	logger     *zap.Logger
}

func NewPropertyService(properties repository.PropertiesRepository, logger *zap.Logger) PropertyService {
	return &propertyService{properties: properties, logger: logger}
}

// ============================================
// Request DTOs
// ============================================

type CreatePropertyRequest struct {
	Name        string
	Category    string
	Description string
	Location    string
	Price       string // decimal text
	IsAvailable *bool  // default true
}

// UpdatePropertyRequest nil fields are left unchanged (PATCH); PUT sends all of them.
type UpdatePropertyRequest struct {
	Name        *string
	Category    *string
	Description *string
	Location    *string
	Price       *string
	IsAvailable *bool
}

func (s *propertyService) List(ctx context.Context, actor *auth.Identity, c search.Criteria, page search.Page) (*ListResult[PropertyDTO], error) {
	if !policy.Permitted(actor, policy.ListProperties, policy.Resource{}) {
		return nil, denyFor(actor == nil, "")
	}
	items, total, err := s.properties.ListProperties(ctx, c, page)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	out := make([]PropertyDTO, 0, len(items))
	for i := range items {
		out = append(out, toPropertyDTO(&items[i]))
	}
	return &ListResult[PropertyDTO]{Items: out, Total: total, Page: page}, nil
}

func (s *propertyService) Get(ctx context.Context, actor *auth.Identity, id int64) (*PropertyDTO, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Permitted(actor, policy.ViewProperty, policy.ForProperty(p)) {
		return nil, denyFor(actor == nil, "")
	}
	dto := toPropertyDTO(p)
	return &dto, nil
}

func (s *propertyService) Create(ctx context.Context, actor *auth.Identity, req CreatePropertyRequest) (*PropertyDTO, error) {
	if !policy.Permitted(actor, policy.CreateProperty, policy.Resource{}) {
		return nil, denyFor(actor == nil, "Only landlords can list properties.")
	}

	fe := FieldErrors{}
	p := &domain.Property{
		LandlordID:  actor.UserID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		IsAvailable: true,
	}
	validateName(fe, p.Name)
	validateLocation(fe, p.Location)
	p.Category = validateCategory(fe, req.Category)
	p.Price = parseMoney(fe, "price", req.Price, false)
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	created, err := s.properties.CreateProperty(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}
	s.logger.Info("Property created",
		zap.Int64("property_id", created.ID),
		zap.Int64("landlord_id", created.LandlordID),
	)
	dto := toPropertyDTO(created)
	return &dto, nil
}

func (s *propertyService) Update(ctx context.Context, actor *auth.Identity, id int64, req UpdatePropertyRequest) (*PropertyDTO, error) {
	if actor == nil {
		return nil, Unauthenticated(msgNotAuthenticated)
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Permitted(actor, policy.UpdateProperty, policy.ForProperty(p)) {
		return nil, Forbidden("Only the landlord of this property can change it.")
	}

	fe := FieldErrors{}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
		validateName(fe, p.Name)
	}
	if req.Category != nil {
		p.Category = validateCategory(fe, *req.Category)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		p.Location = strings.TrimSpace(*req.Location)
		validateLocation(fe, p.Location)
	}
	if req.Price != nil {
		p.Price = parseMoney(fe, "price", *req.Price, false)
	}
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	updated, err := s.properties.UpdateProperty(ctx, p)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Property not found.")
		}
		return nil, fmt.Errorf("update property: %w", err)
	}
	dto := toPropertyDTO(updated)
	return &dto, nil
}

func (s *propertyService) Delete(ctx context.Context, actor *auth.Identity, id int64) error {
	if actor == nil {
		return Unauthenticated(msgNotAuthenticated)
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !policy.Permitted(actor, policy.DeleteProperty, policy.ForProperty(p)) {
		return Forbidden("Only the landlord of this property can delete it.")
	}
	if err := s.properties.DeleteProperty(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("Property not found.")
		}
		return fmt.Errorf("delete property: %w", err)
	}
	s.logger.Info("Property deleted", zap.Int64("property_id", id), zap.Int64("landlord_id", actor.UserID))
	return nil
}

func (s *propertyService) load(ctx context.Context, id int64) (*domain.Property, error) {
	p, err := s.properties.GetProperty(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Property not found.")
		}
		return nil, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

func validateName(fe FieldErrors, name string) {
	switch {
	case name == "":
		fe.Add("name", "This field is required.")
	case tooLong(name, maxNameLen):
		fe.Add("name", "Ensure this field has no more than 200 characters.")
	}
}

func validateLocation(fe FieldErrors, location string) {
	switch {
	case location == "":
		fe.Add("location", "This field is required.")
	case tooLong(location, maxLocationLen):
		fe.Add("location", "Ensure this field has no more than 255 characters.")
	}
}

func validateCategory(fe FieldErrors, raw string) domain.Category {
	if strings.TrimSpace(raw) == "" {
		fe.Add("category", "This field is required.")
		return ""
	}
	c, ok := domain.ParseCategory(raw)
	if !ok {
		fe.Add("category", fmt.Sprintf("%q is not a valid choice.", raw))
	}
	return c
}
