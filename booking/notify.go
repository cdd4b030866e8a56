package booking

import (
	"context"
	"fmt"

	"github.com/hidenkeys/studios/pricing"
)

// Summary is what staff are told about a new booking request.
type Summary struct {
	ReservationID string         `json:"reservationId"`
	Studio        string         `json:"studioName"`
	CheckIn       string         `json:"startDate"`
	CheckOut      string         `json:"endDate"`
	TotalPrice    pricing.Amount `json:"totalPrice"`
	GuestName     string         `json:"customerName"`
	ContactMethod string         `json:"contactMethod"`
	ContactValue  string         `json:"contactValue"`
}

const summaryDateLayout = "02.01.2006"

func NewSummary(r Reservation, studioName string) Summary {
	c := r.Contact()
	return Summary{
		ReservationID: r.ID.String(),
		Studio:        studioName,
		CheckIn:       r.CheckIn.Format(summaryDateLayout),
		CheckOut:      r.CheckOut.Format(summaryDateLayout),
		TotalPrice:    r.TotalPrice,
		GuestName:     r.GuestName,
		ContactMethod: c.MethodList(),
		ContactValue:  c.ValueList(),
	}
}

func (s Summary) DateRange() string {
	return fmt.Sprintf("%s - %s", s.CheckIn, s.CheckOut)
}

// Notifier delivers a booking summary to staff. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, s Summary) error
}

type NotifierFunc func(ctx context.Context, s Summary) error

func (f NotifierFunc) Notify(ctx context.Context, s Summary) error { return f(ctx, s) }
