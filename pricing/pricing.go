package pricing

import "time"

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights counts the nights in [checkIn, checkOut).
func Nights(checkIn, checkOut time.Time) int {
	n := 0
	for d := Day(checkIn); d.Before(Day(checkOut)); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

func (c Calendar) Rate(r Rates, date time.Time) Amount {
	return r.For(c.Band(date))
}

// Total sums the nightly rates over [checkIn, checkOut). An empty or
// inverted range totals zero.
func (c Calendar) Total(r Rates, checkIn, checkOut time.Time) Amount {
	var total Amount
	for d := Day(checkIn); d.Before(Day(checkOut)); d = d.AddDate(0, 0, 1) {
		total += c.Rate(r, d)
	}
	return total
}

type Night struct {
	Date time.Time `json:"date"`
	Band Band      `json:"band"`
	Rate Amount    `json:"rate"`
}

func (c Calendar) Breakdown(r Rates, checkIn, checkOut time.Time) []Night {
	var nights []Night
	for d := Day(checkIn); d.Before(Day(checkOut)); d = d.AddDate(0, 0, 1) {
		b := c.Band(d)
		nights = append(nights, Night{Date: d, Band: b, Rate: r.For(b)})
	}
	return nights
}

// RateCard lists the nightly price of every band.
func RateCard(r Rates) map[Band]Amount {
	return map[Band]Amount{
		Low:      r.For(Low),
		Standard: r.For(Standard),
		High:     r.For(High),
	}
}
