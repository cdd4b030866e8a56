package notify

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3/log"
	"github.com/hidenkeys/studios/booking"
	"github.com/hidenkeys/studios/config"
)

// Multi delivers to every channel and reports all failures together.
type Multi []booking.Notifier

func (m Multi) Notify(ctx context.Context, s booking.Summary) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes the request to the service log. It is the fallback when no
// channel is configured.
var Log = booking.NotifierFunc(func(ctx context.Context, s booking.Summary) error {
	log.Infof("new booking request %s: %s, %s, %d лв., %s (%s %s)",
		s.ReservationID, s.Studio, s.DateRange(), s.TotalPrice, s.GuestName, s.ContactMethod, s.ContactValue)
	return nil
})

// FromConfig builds the notifier for the configured channels.
func FromConfig(cfg config.Config) booking.Notifier {
	var m Multi
	if cfg.Twilio.Enabled() {
		m = append(m, NewTwilio(cfg.Twilio))
	}
	if cfg.SMTP.Enabled() {
		m = append(m, NewEmail(cfg.SMTP))
	}
	if len(m) == 0 {
		log.Warnf("no notification channel configured, booking requests are only logged")
		return Log
	}
	return m
}
