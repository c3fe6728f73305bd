package service

import (
	"database/sql"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/search"
)

// ============================================
// DTOs shared by the JSON API and the rendered pages
// ============================================

type UserDTO struct {
	ID         int64       `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	Phone      string      `json:"phone"`
	DateJoined time.Time   `json:"date_joined"`
}

type PropertyDTO struct {
	ID               int64           `json:"id"`
	Landlord         int64           `json:"landlord"`
	LandlordUsername string          `json:"landlord_username"`
	Name             string          `json:"name"`
	Category         domain.Category `json:"category"`
	CategoryDisplay  string          `json:"category_display"`
	Description      string          `json:"description"`
	Location         string          `json:"location"`
	Price            string          `json:"price"` // decimal, 2 places
	IsAvailable      bool            `json:"is_available"`
	CreatedAt        time.Time       `json:"created_at"`
}

type ApplicationDTO struct {
	ID             int64                    `json:"id"`
	Property       int64                    `json:"property"`
	PropertyName   string                   `json:"property_name"`
	Tenant         int64                    `json:"tenant"`
	TenantUsername string                   `json:"tenant_username"`
	Landlord       int64                    `json:"landlord"`
	Message        string                   `json:"message"`
	Status         domain.ApplicationStatus `json:"status"`
	CreatedAt      time.Time                `json:"created_at"`
}

type PaymentDTO struct {
	ID            int64                `json:"id"`
	Application   int64                `json:"application"`
	Property      int64                `json:"property"`
	Tenant        int64                `json:"tenant"`
	Amount        string               `json:"amount"`
	Status        domain.PaymentStatus `json:"status"`
	TransactionID *string              `json:"transaction_id"`
	CreatedAt     time.Time            `json:"created_at"`
}

type ReviewDTO struct {
	ID             int64     `json:"id"`
	Property       int64     `json:"property"`
	Tenant         int64     `json:"tenant"`
	TenantUsername string    `json:"tenant_username"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListResult one page of a list endpoint.
type ListResult[T any] struct {
	Items []T
	Total int
	Page  search.Page
}

func toUserDTO(u *domain.User, p *domain.Profile) *UserDTO {
	dto := &UserDTO{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		DateJoined: u.DateJoined,
	}
	if p != nil && p.Phone.Valid {
		dto.Phone = p.Phone.String
	}
	return dto
}

func toPropertyDTO(p *domain.Property) PropertyDTO {
	return PropertyDTO{
		ID:               p.ID,
		Landlord:         p.LandlordID,
		LandlordUsername: p.LandlordUsername,
		Name:             p.Name,
		Category:         p.Category,
		CategoryDisplay:  p.Category.Label(),
		Description:      p.Description,
		Location:         p.Location,
		Price:            p.Price.StringFixed(2),
		IsAvailable:      p.IsAvailable,
		CreatedAt:        p.CreatedAt,
	}
}

func toApplicationDTO(a *domain.RentalApplication) ApplicationDTO {
	return ApplicationDTO{
		ID:             a.ID,
		Property:       a.PropertyID,
		PropertyName:   a.PropertyName,
		Tenant:         a.TenantID,
		TenantUsername: a.TenantUsername,
		Landlord:       a.LandlordID,
		Message:        a.Message,
		Status:         a.Status,
		CreatedAt:      a.CreatedAt,
	}
}

func toPaymentDTO(p *domain.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:          p.ID,
		Application: p.ApplicationID,
		Property:    p.PropertyID,
		Tenant:      p.TenantID,
		Amount:      p.Amount.StringFixed(2),
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
	}
	if p.TransactionID.Valid {
		tx := p.TransactionID.String
		dto.TransactionID = &tx
	}
	return dto
}

func toReviewDTO(r *domain.Review) ReviewDTO {
	return ReviewDTO{
		ID:             r.ID,
		Property:       r.PropertyID,
		Tenant:         r.TenantID,
		TenantUsername: r.TenantUsername,
		Rating:         r.Rating,
		Comment:        r.Comment,
		CreatedAt:      r.CreatedAt,
	}
}

func phoneOf(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
