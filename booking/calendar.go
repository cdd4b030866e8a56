package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/hidenkeys/studios/pricing"
	"github.com/hidenkeys/studios/studio"
)

const (
	daysPerWeek  = 7
	weeksPerGrid = 6
	gridDays     = daysPerWeek * weeksPerGrid
)

// Day is one cell of the admin month grid.
type Day struct {
	Date     time.Time      `json:"date"`
	InMonth  bool           `json:"inMonth"`
	Past     bool           `json:"past"`
	InSeason bool           `json:"inSeason"`
	Band     pricing.Band   `json:"band"`
	Rate     pricing.Amount `json:"rate"`
	Booked   bool           `json:"booked"`
}

// Segment is the part of a block that falls on one week row. Columns are
// 0 (Sunday) to 6 (Saturday), both inclusive.
type Segment struct {
	Week    int  `json:"week"`
	FromCol int  `json:"fromCol"`
	ToCol   int  `json:"toCol"`
	IsStart bool `json:"isStart"`
	IsEnd   bool `json:"isEnd"`
	Nights  int  `json:"nights"`
	Label   bool `json:"label"`
}

// Block is one reservation drawn across the grid. Start and End are the
// reservation's check-in and check-out.
type Block struct {
	ReservationID uuid.UUID `json:"reservationId"`
	GuestName     string    `json:"guestName"`
	Status        Status    `json:"status"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Segments      []Segment `json:"segments"`
}

type Month struct {
	UnitID uint       `json:"studioId"`
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Days   []Day      `json:"days"`
	Blocks []Block    `json:"blocks"`
}

// GridStart is the Sunday on or before the first of the month.
func GridStart(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 0, -int(first.Weekday()))
}

// BuildMonth lays reservations of one studio over a six-week grid. Rejected
// reservations are left out.
func BuildMonth(cal pricing.Calendar, u studio.Unit, year int, month time.Month, reservations []Reservation, today time.Time) Month {
	start := GridStart(year, month)
	end := start.AddDate(0, 0, gridDays)
	today = pricing.Day(today)
	rates := u.Rates()

	m := Month{UnitID: u.ID, Year: year, Month: month, Days: make([]Day, gridDays), Blocks: []Block{}}
	for i := range m.Days {
		d := start.AddDate(0, 0, i)
		band := cal.Band(d)
		m.Days[i] = Day{
			Date:     d,
			InMonth:  d.Month() == month,
			Past:     d.Before(today),
			InSeason: cal.InSeason(d),
			Band:     band,
			Rate:     rates.For(band),
		}
	}

	for _, r := range reservations {
		if r.Status == Rejected || r.UnitID != u.ID || !Overlaps(r.CheckIn, r.CheckOut, start, end) {
			continue
		}
		if Staff.Blocks(r.Status) {
			for d := maxDay(r.CheckIn, start); d.Before(r.CheckOut) && d.Before(end); d = d.AddDate(0, 0, 1) {
				m.Days[dayIndex(start, d)].Booked = true
			}
		}
		m.Blocks = append(m.Blocks, Block{
			ReservationID: r.ID,
			GuestName:     r.GuestName,
			Status:        r.Status,
			Start:         r.CheckIn,
			End:           r.CheckOut,
			Segments:      segments(start, end, r.CheckIn, r.CheckOut),
		})
	}
	return m
}

// segments splits the nights [in, out) into week rows of the grid.
func segments(gridStart, gridEnd, in, out time.Time) []Segment {
	first := maxDay(pricing.Day(in), gridStart)
	last := pricing.Day(out).AddDate(0, 0, -1)
	if gridEnd.AddDate(0, 0, -1).Before(last) {
		last = gridEnd.AddDate(0, 0, -1)
	}

	var segs []Segment
	for d := first; !d.After(last); {
		idx := dayIndex(gridStart, d)
		week, col := idx/daysPerWeek, idx%daysPerWeek
		rowEnd := d.AddDate(0, 0, daysPerWeek-1-col)
		if last.Before(rowEnd) {
			rowEnd = last
		}
		n := dayIndex(d, rowEnd) + 1
		segs = append(segs, Segment{
			Week:    week,
			FromCol: col,
			ToCol:   col + n - 1,
			IsStart: d.Equal(pricing.Day(in)),
			IsEnd:   rowEnd.Equal(pricing.Day(out).AddDate(0, 0, -1)),
			Nights:  n,
			Label:   len(segs) == 0,
		})
		d = rowEnd.AddDate(0, 0, 1)
	}
	return segs
}

func dayIndex(from, d time.Time) int {
	return int(d.Sub(from).Hours() / 24)
}

func maxDay(a, b time.Time) time.Time {
	if a.Before(b) {
		return b
	}
	return a
}
