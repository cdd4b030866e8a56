package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/hidenkeys/studios/booking"
	"github.com/hidenkeys/studios/pricing"
	"gorm.io/gorm"
)

// Reservations is the gorm-backed booking.Repository. Writes are announced on
// the broker once committed.
type Reservations struct {
	db     *gorm.DB
	broker Broker
}

func NewReservations(db *gorm.DB, broker Broker) *Reservations {
	if broker == nil {
		broker = NewLocalBroker()
	}
	return &Reservations{db: db, broker: broker}
}

func (s *Reservations) List(ctx context.Context, f booking.Filter) ([]booking.Reservation, error) {
	q := s.db.WithContext(ctx).Model(&booking.Reservation{})
	if f.UnitID != 0 {
		q = q.Where("unit_id = ?", f.UnitID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		q = q.Where("status IN ?", statuses)
	}
	if !f.From.IsZero() {
		q = q.Where("check_out > ?", pricing.Day(f.From))
	}
	if !f.To.IsZero() {
		q = q.Where("check_in < ?", pricing.Day(f.To))
	}
	if f.Exclude != uuid.Nil {
		q = q.Where("id <> ?", f.Exclude)
	}
	if g := strings.TrimSpace(f.Guest); g != "" {
		like := "%" + strings.ToLower(g) + "%"
		q = q.Where("LOWER(guest_name) LIKE ? OR LOWER(guest_email) LIKE ? OR guest_phone LIKE ?", like, like, like)
	}
	switch f.Order {
	case booking.ByCheckIn:
		q = q.Order("check_in").Order("created_at")
	default:
		q = q.Order("created_at DESC")
	}

	var rs []booking.Reservation
	if err := q.Find(&rs).Error; err != nil {
		return nil, err
	}
	return rs, nil
}

func (s *Reservations) Get(ctx context.Context, id uuid.UUID) (booking.Reservation, error) {
	var r booking.Reservation
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Reservation{}, booking.ErrNotFound
		}
		return booking.Reservation{}, err
	}
	return r, nil
}

func (s *Reservations) Create(ctx context.Context, r *booking.Reservation) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return err
	}
	s.broker.Publish(booking.Event{Kind: booking.Inserted, ID: r.ID, UnitID: r.UnitID})
	return nil
}

func (s *Reservations) Update(ctx context.Context, id uuid.UUID, p booking.Patch) (booking.Reservation, error) {
	var r booking.Reservation
	var prev uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, "id = ?", id).Error; err != nil {
			return err
		}
		prev = r.UnitID
		if cols := p.Columns(); len(cols) > 0 {
			if err := tx.Model(&booking.Reservation{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return err
			}
		}
		return tx.First(&r, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return booking.Reservation{}, booking.ErrNotFound
	}
	if err != nil {
		return booking.Reservation{}, err
	}

	e := booking.Event{Kind: booking.Updated, ID: id, UnitID: r.UnitID}
	if prev != r.UnitID {
		e.PrevUnitID = prev
	}
	s.broker.Publish(e)
	return r, nil
}

func (s *Reservations) Delete(ctx context.Context, id uuid.UUID) error {
	var r booking.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, "id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&booking.Reservation{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return booking.ErrNotFound
	}
	if err != nil {
		return err
	}
	s.broker.Publish(booking.Event{Kind: booking.Deleted, ID: id, UnitID: r.UnitID})
	return nil
}

func (s *Reservations) Subscribe(scope booking.Scope, fn func(booking.Event)) func() {
	return s.broker.Subscribe(scope, fn)
}
