package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hidenkeys/studios/pricing"
)

// Overlaps reports whether [aIn, aOut) and [bIn, bOut) share a night. The
// check-out day of one stay is free for the check-in of the next.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return pricing.Day(aIn).Before(pricing.Day(bOut)) && pricing.Day(bIn).Before(pricing.Day(aOut))
}

type Checker struct {
	repo Repository
}

func NewChecker(repo Repository) *Checker {
	return &Checker{repo: repo}
}

// Conflicts returns the reservations of unitID that block [checkIn, checkOut)
// for the audience, skipping excluding.
func (c *Checker) Conflicts(ctx context.Context, unitID uint, checkIn, checkOut time.Time, excluding uuid.UUID, audience Audience) ([]Reservation, error) {
	f := Filter{
		UnitID:   unitID,
		Statuses: audience.Blocking(),
		From:     checkIn,
		To:       checkOut,
		Exclude:  excluding,
		Order:    ByCheckIn,
	}
	found, err := c.repo.List(ctx, f)
	if err != nil {
		return nil, storeErr("list reservations", err)
	}

	// Stores may only narrow by some of the filter; the rule is applied here.
	conflicts := found[:0]
	for _, r := range found {
		if f.Match(r) && Overlaps(r.CheckIn, r.CheckOut, checkIn, checkOut) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts, nil
}

func (c *Checker) IsRangeAvailable(ctx context.Context, unitID uint, checkIn, checkOut time.Time, excluding uuid.UUID, audience Audience) (bool, error) {
	conflicts, err := c.Conflicts(ctx, unitID, checkIn, checkOut, excluding, audience)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// ensureAvailable is IsRangeAvailable returning a ConflictError.
func (c *Checker) ensureAvailable(ctx context.Context, unitID uint, checkIn, checkOut time.Time, excluding uuid.UUID, audience Audience) error {
	conflicts, err := c.Conflicts(ctx, unitID, checkIn, checkOut, excluding, audience)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{UnitID: unitID, CheckIn: pricing.Day(checkIn), CheckOut: pricing.Day(checkOut), With: conflicts[0].ID}
	}
	return nil
}

// IsDateBooked reports whether the night starting on date is taken.
func (c *Checker) IsDateBooked(ctx context.Context, unitID uint, date time.Time, audience Audience) (bool, error) {
	day := pricing.Day(date)
	free, err := c.IsRangeAvailable(ctx, unitID, day, day.AddDate(0, 0, 1), uuid.Nil, audience)
	return !free, err
}

// BookedDates lists every taken night of unitID within [from, to), in order.
func (c *Checker) BookedDates(ctx context.Context, unitID uint, from, to time.Time, audience Audience) ([]time.Time, error) {
	from, to = pricing.Day(from), pricing.Day(to)
	conflicts, err := c.Conflicts(ctx, unitID, from, to, uuid.Nil, audience)
	if err != nil {
		return nil, err
	}

	taken := map[time.Time]bool{}
	for _, r := range conflicts {
		for d := pricing.Day(r.CheckIn); d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
			if !d.Before(from) && d.Before(to) {
				taken[d] = true
			}
		}
	}

	dates := []time.Time{}
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		if taken[d] {
			dates = append(dates, d)
		}
	}
	return dates, nil
}
