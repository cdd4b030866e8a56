package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/hidenkeys/studios/guest"
	"github.com/hidenkeys/studios/pricing"
	"github.com/hidenkeys/studios/studio"
)

// DateLayout is the wire format of stay dates.
const DateLayout = "2006-01-02"

// ParseDate reads an ISO date for field. An empty value yields the zero time.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return t, nil
}

func validateOrder(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() {
		return &ValidationError{Field: "checkIn", Reason: "is required"}
	}
	if checkOut.IsZero() {
		return &ValidationError{Field: "checkOut", Reason: "is required"}
	}
	if !pricing.Day(checkOut).After(pricing.Day(checkIn)) {
		return &ValidationError{Field: "checkOut", Reason: "must be after check-in"}
	}
	return nil
}

// validateStay is the one date rule of the booking site: ordered, not in
// the past, both days inside the bookable season.
func validateStay(cal pricing.Calendar, today, checkIn, checkOut time.Time) error {
	if err := validateOrder(checkIn, checkOut); err != nil {
		return err
	}
	if pricing.Day(checkIn).Before(pricing.Day(today)) {
		return &ValidationError{Field: "checkIn", Reason: "is in the past"}
	}
	season := fmt.Sprintf("must be within the season (%s to %s)", cal.Season.From, cal.Season.To)
	if !cal.InSeason(checkIn) {
		return &ValidationError{Field: "checkIn", Reason: season}
	}
	if !cal.InSeason(checkOut) {
		return &ValidationError{Field: "checkOut", Reason: season}
	}
	return nil
}

func validateOccupancy(u studio.Unit, adults, children int) error {
	if adults < 1 {
		return &ValidationError{Field: "adults", Reason: "at least one adult is required"}
	}
	if children < 0 {
		return &ValidationError{Field: "children", Reason: "cannot be negative"}
	}
	if adults+children > u.Capacity {
		return &ValidationError{Field: "guests", Reason: fmt.Sprintf("%s sleeps at most %d", u.Name, u.Capacity)}
	}
	return nil
}

func validateContact(c guest.Contact, requireMethod bool) error {
	if err := c.Validate(requireMethod); err != nil {
		if fe, ok := err.(*guest.FieldError); ok {
			return &ValidationError{Field: fe.Field, Reason: fe.Reason}
		}
		return &ValidationError{Field: "contact", Reason: err.Error()}
	}
	return nil
}
