package studio

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/hidenkeys/studios/pricing"
)

type Handler struct {
	store    Store
	calendar pricing.Calendar
	validate *validator.Validate
}

func NewHandler(store Store, calendar pricing.Calendar) *Handler {
	return &Handler{store: store, calendar: calendar, validate: validator.New()}
}

type UpdateRequest struct {
	Name              *string         `json:"name" validate:"omitempty,min=1"`
	Names             map[string]any  `json:"names"`
	Description       *string         `json:"description"`
	PricePerNight     *pricing.Amount `json:"pricePerNight" validate:"omitempty,gt=0"`
	LowSeasonDiscount *pricing.Amount `json:"lowSeasonDiscount" validate:"omitempty,gte=0"`
	HighSeasonMarkup  *pricing.Amount `json:"highSeasonMarkup" validate:"omitempty,gte=0"`
	Capacity          *int            `json:"capacity" validate:"omitempty,min=1"`
	Bedrooms          *int            `json:"bedrooms" validate:"omitempty,gte=0"`
	Bathrooms         *int            `json:"bathrooms" validate:"omitempty,gte=0"`
	Beds              *int            `json:"beds" validate:"omitempty,gte=0"`
	Amenities         []string        `json:"amenities"`
	Images            []string        `json:"images"`
	MainImage         *string         `json:"mainImage"`
}

// apply copies the set fields onto u and returns the matching columns.
func (r UpdateRequest) apply(u *Unit) map[string]any {
	cols := map[string]any{}
	if r.Name != nil {
		u.Name = *r.Name
		cols["name"] = u.Name
	}
	if r.Names != nil {
		u.Names = r.Names
		cols["names"] = u.Names
	}
	if r.Description != nil {
		u.Description = *r.Description
		cols["description"] = u.Description
	}
	if r.PricePerNight != nil {
		u.PricePerNight = *r.PricePerNight
		cols["price_per_night"] = u.PricePerNight
	}
	if r.LowSeasonDiscount != nil {
		u.LowSeasonDiscount = *r.LowSeasonDiscount
		cols["low_season_discount"] = u.LowSeasonDiscount
	}
	if r.HighSeasonMarkup != nil {
		u.HighSeasonMarkup = *r.HighSeasonMarkup
		cols["high_season_markup"] = u.HighSeasonMarkup
	}
	if r.Capacity != nil {
		u.Capacity = *r.Capacity
		cols["capacity"] = u.Capacity
	}
	if r.Bedrooms != nil {
		u.Bedrooms = *r.Bedrooms
		cols["bedrooms"] = u.Bedrooms
	}
	if r.Bathrooms != nil {
		u.Bathrooms = *r.Bathrooms
		cols["bathrooms"] = u.Bathrooms
	}
	if r.Beds != nil {
		u.Beds = *r.Beds
		cols["beds"] = u.Beds
	}
	if r.Amenities != nil {
		u.Amenities = r.Amenities
		cols["amenities"] = u.Amenities
	}
	if r.Images != nil {
		u.Images = r.Images
		cols["images"] = u.Images
	}
	if r.MainImage != nil {
		u.MainImage = *r.MainImage
		cols["main_image"] = u.MainImage
	}
	return cols
}

func (h *Handler) Create(c fiber.Ctx) error {
	newUnit := new(Unit)

	if err := c.Bind().JSON(newUnit); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.validate.Struct(newUnit); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := newUnit.Check(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.store.Create(c.Context(), newUnit); err != nil {
		log.Errorf("create studio: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create studio"})
	}

	return c.Status(http.StatusCreated).JSON(newUnit)
}

func (h *Handler) Update(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid studio id"})
	}

	req := new(UpdateRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	current, err := h.store.Get(c.Context(), uint(id))
	if err != nil {
		return h.storeError(c, err)
	}

	cols := req.apply(&current)
	if err := current.Check(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if len(cols) == 0 {
		return c.Status(http.StatusOK).JSON(current)
	}

	updated, err := h.store.Update(c.Context(), uint(id), cols)
	if err != nil {
		return h.storeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(updated)
}

// List returns the catalog ordered by name. ?capacity=N keeps only studios
// that sleep at least N people.
func (h *Handler) List(c fiber.Ctx) error {
	units, err := h.store.List(c.Context())
	if err != nil {
		return h.storeError(c, err)
	}

	if raw := c.Query("capacity"); raw != "" {
		minCapacity, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid capacity"})
		}
		filtered := units[:0]
		for _, u := range units {
			if u.Capacity >= minCapacity {
				filtered = append(filtered, u)
			}
		}
		units = filtered
	}

	sort.SliceStable(units, func(i, j int) bool { return units[i].Name < units[j].Name })

	return c.Status(http.StatusOK).JSON(units)
}

func (h *Handler) GetById(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid studio id"})
	}

	unit, err := h.store.Get(c.Context(), uint(id))
	if err != nil {
		return h.storeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(unit)
}

// Rates returns the nightly price per season band plus the season calendar.
func (h *Handler) Rates(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid studio id"})
	}

	unit, err := h.store.Get(c.Context(), uint(id))
	if err != nil {
		return h.storeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"studioId": unit.ID,
		"rates":    pricing.RateCard(unit.Rates()),
		"calendar": h.calendar,
	})
}

func (h *Handler) storeError(c fiber.Ctx, err error) error {
	if errors.Is(err, ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	log.Errorf("studio store: %v", err)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "studio store unavailable"})
}
