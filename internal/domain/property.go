package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryApartment  Category = "apartment"
	CategoryHouse      Category = "house"
	CategoryBedsitter  Category = "bedsitter"
	CategorySingleRoom Category = "single_room"
)

// Categories lists every category, in display order.
var Categories = []Category{CategoryApartment, CategoryHouse, CategoryBedsitter, CategorySingleRoom}

// ParseCategory matches case-insensitively and returns the canonical value.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

func (c Category) Label() string {
	switch c {
	case CategoryApartment:
		return "Apartment"
	case CategoryHouse:
		return "House"
	case CategoryBedsitter:
		return "Bedsitter"
	case CategorySingleRoom:
		return "Single Room"
	}
	return string(c)
}

// Property 对应 properties 表
type Property struct {
	ID               int64           `db:"id"`
	LandlordID       int64           `db:"landlord_id"`
	LandlordUsername string          `db:"landlord_username"` // joined from users
	Name             string          `db:"name"`
	Category         Category        `db:"category"`
	Description      string          `db:"description"`
	Location         string          `db:"location"`
	Price            decimal.Decimal `db:"price"`
	IsAvailable      bool            `db:"is_available"`
	CreatedAt        time.Time       `db:"created_at"`
}
