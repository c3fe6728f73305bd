// Package policy decides who may do what. It is pure: no I/O, no side effects.
package policy

import (
	"rentalhub/internal/auth"
	"rentalhub/internal/domain"
)

// Action is the closed set of operations the policy knows about.
type Action int

const (
	ListProperties Action = iota
	ViewProperty
	CreateProperty
	UpdateProperty
	DeleteProperty

	ListApplications
	ViewApplication
	CreateApplication
	UpdateApplicationStatus

	ListPayments
	ViewPayment
	CreatePayment

	ListReviews
	ViewReview
	CreateReview
)

var actionNames = map[Action]string{
	ListProperties:          "list_properties",
	ViewProperty:            "view_property",
	CreateProperty:          "create_property",
	UpdateProperty:          "update_property",
	DeleteProperty:          "delete_property",
	ListApplications:        "list_applications",
	ViewApplication:         "view_application",
	CreateApplication:       "create_application",
	UpdateApplicationStatus: "update_application_status",
	ListPayments:            "list_payments",
	ViewPayment:             "view_payment",
	CreatePayment:           "create_payment",
	ListReviews:             "list_reviews",
	ViewReview:              "view_review",
	CreateReview:            "create_review",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Resource carries the ownership facts of the object being acted on.
// LandlordID is the landlord of the property involved (directly or through an application);
// TenantID is the applicant / payer. Zero means not applicable.
type Resource struct {
	LandlordID int64
	TenantID   int64
}

// ForProperty describes a property.
func ForProperty(p *domain.Property) Resource {
	return Resource{LandlordID: p.LandlordID}
}

// ForApplication describes an application and the property behind it.
func ForApplication(a *domain.RentalApplication) Resource {
	return Resource{LandlordID: a.LandlordID, TenantID: a.TenantID}
}

// ForPayment describes a payment through its application.
func ForPayment(p *domain.Payment) Resource {
	return Resource{LandlordID: p.LandlordID, TenantID: p.TenantID}
}

// Permitted reports whether actor may perform action on res. A nil actor is anonymous.
func Permitted(actor *auth.Identity, action Action, res Resource) bool {
	if isPublic(action) {
		return true
	}
	if actor == nil {
		return false
	}

	switch actor.Role {
	case domain.RoleTenant:
		return tenantMay(actor.UserID, action, res)
	case domain.RoleLandlord:
		return landlordMay(actor.UserID, action, res)
	}
	return false
}

func isPublic(action Action) bool {
	switch action {
	case ListProperties, ViewProperty, ListReviews, ViewReview:
		return true
	}
	return false
}

func tenantMay(uid int64, action Action, res Resource) bool {
	switch action {
	case CreateApplication, CreateReview:
		return true
	case ListApplications, ListPayments:
		// rows are narrowed by Scope
		return true
	case ViewApplication, ViewPayment, CreatePayment:
		return res.TenantID == uid
	case CreateProperty, UpdateProperty, DeleteProperty, UpdateApplicationStatus:
		return false
	}
	return false
}

func landlordMay(uid int64, action Action, res Resource) bool {
	switch action {
	case CreateProperty:
		return true
	case UpdateProperty, DeleteProperty, UpdateApplicationStatus:
		return res.LandlordID == uid
	case ListApplications, ListPayments:
		return true
	case ViewApplication, ViewPayment:
		return res.LandlordID == uid
	case CreateApplication, CreatePayment, CreateReview:
		return false
	}
	return false
}
