package studio

import (
	"context"
	"errors"
	"fmt"

	"github.com/hidenkeys/studios/pricing"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("studio not found")

type Unit struct {
	gorm.Model
	Name              string                      `json:"name" gorm:"not null" validate:"required"`
	Names             datatypes.JSONMap           `json:"names"`
	Description       string                      `json:"description"`
	PricePerNight     pricing.Amount              `json:"pricePerNight" gorm:"not null" validate:"gt=0"`
	LowSeasonDiscount pricing.Amount              `json:"lowSeasonDiscount" validate:"gte=0"`
	HighSeasonMarkup  pricing.Amount              `json:"highSeasonMarkup" validate:"gte=0"`
	Capacity          int                         `json:"capacity" gorm:"not null" validate:"min=1"`
	Bedrooms          int                         `json:"bedrooms" validate:"gte=0"`
	Bathrooms         int                         `json:"bathrooms" validate:"gte=0"`
	Beds              int                         `json:"beds" validate:"gte=0"`
	Amenities         datatypes.JSONSlice[string] `json:"amenities"`
	Images            datatypes.JSONSlice[string] `json:"images"`
	MainImage         string                      `json:"mainImage"`
}

func (u Unit) TableName() string {
	return "studios"
}

func (u Unit) Rates() pricing.Rates {
	return pricing.Rates{
		Base:     u.PricePerNight,
		Discount: u.LowSeasonDiscount,
		Markup:   u.HighSeasonMarkup,
	}
}

// DisplayName returns the localized name for lang, falling back to Name.
func (u Unit) DisplayName(lang string) string {
	if v, ok := u.Names[lang].(string); ok && v != "" {
		return v
	}
	return u.Name
}

// Check enforces the rules the validate tags can't express.
func (u Unit) Check() error {
	if u.LowSeasonDiscount >= u.PricePerNight {
		return fmt.Errorf("low season discount %d must be below the nightly price %d", u.LowSeasonDiscount, u.PricePerNight)
	}
	return nil
}

// Store is the catalog persistence the handlers and the booking engine use.
type Store interface {
	List(ctx context.Context) ([]Unit, error)
	Get(ctx context.Context, id uint) (Unit, error)
	Create(ctx context.Context, u *Unit) error
	Update(ctx context.Context, id uint, fields map[string]any) (Unit, error)
}
