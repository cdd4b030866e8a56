package pricing

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Amount is a whole-unit currency amount.
type Amount int64

type Band int

const (
	Standard Band = iota
	Low
	High
)

func (b Band) String() string {
	switch b {
	case Low:
		return "low"
	case High:
		return "high"
	default:
		return "standard"
	}
}

func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Rates are the per-unit inputs of the seasonal rate.
type Rates struct {
	Base     Amount `json:"base"`
	Discount Amount `json:"discount"`
	Markup   Amount `json:"markup"`
}

func (r Rates) For(b Band) Amount {
	switch b {
	case Low:
		return r.Base - r.Discount
	case High:
		return r.Base + r.Markup
	default:
		return r.Base
	}
}

// MonthDay is a year-independent calendar position, written "MM-DD".
type MonthDay struct {
	Month time.Month
	Day   int
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

func (md MonthDay) before(other MonthDay) bool {
	if md.Month != other.Month {
		return md.Month < other.Month
	}
	return md.Day < other.Day
}

func (md MonthDay) valid() bool {
	if md.Month < time.January || md.Month > time.December || md.Day < 1 {
		return false
	}
	// 2024 is a leap year so 02-29 is accepted.
	last := time.Date(2024, md.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return md.Day <= last
}

func ParseMonthDay(s string) (MonthDay, error) {
	var m, d int
	if _, err := fmt.Sscanf(s, "%d-%d", &m, &d); err != nil {
		return MonthDay{}, fmt.Errorf("invalid month-day %q: want MM-DD", s)
	}
	md := MonthDay{Month: time.Month(m), Day: d}
	if !md.valid() {
		return MonthDay{}, fmt.Errorf("invalid month-day %q", s)
	}
	return md, nil
}

func (md *MonthDay) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseMonthDay(value.Value)
	if err != nil {
		return err
	}
	*md = parsed
	return nil
}

func (md MonthDay) MarshalYAML() (interface{}, error) {
	return md.String(), nil
}

func monthDayOf(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

// Period is an inclusive month-day span. When From is after To the
// period wraps over the new year.
type Period struct {
	From MonthDay `yaml:"from" json:"from"`
	To   MonthDay `yaml:"to" json:"to"`
}

func (p Period) Contains(t time.Time) bool {
	md := monthDayOf(t)
	if p.To.before(p.From) {
		return !md.before(p.From) || !p.To.before(md)
	}
	return !md.before(p.From) && !p.To.before(md)
}

// Calendar is the season configuration of a deployment. High periods win
// over low ones when they overlap.
type Calendar struct {
	Low    []Period `yaml:"low" json:"low"`
	High   []Period `yaml:"high" json:"high"`
	Season Period   `yaml:"season" json:"season"`
}

// DefaultCalendar: low May–June and September, high July–August,
// bookable May 1 to September 30.
var DefaultCalendar = Calendar{
	Low: []Period{
		{From: MonthDay{time.May, 1}, To: MonthDay{time.June, 30}},
		{From: MonthDay{time.September, 1}, To: MonthDay{time.September, 30}},
	},
	High: []Period{
		{From: MonthDay{time.July, 1}, To: MonthDay{time.August, 31}},
	},
	Season: Period{From: MonthDay{time.May, 1}, To: MonthDay{time.September, 30}},
}

// LoadCalendar reads a YAML season file. An empty path yields DefaultCalendar.
func LoadCalendar(path string) (Calendar, error) {
	if path == "" {
		return DefaultCalendar, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Calendar{}, fmt.Errorf("read season file: %w", err)
	}
	return ParseCalendar(raw)
}

func ParseCalendar(raw []byte) (Calendar, error) {
	var cal Calendar
	if err := yaml.Unmarshal(raw, &cal); err != nil {
		return Calendar{}, fmt.Errorf("parse season file: %w", err)
	}
	if err := cal.Validate(); err != nil {
		return Calendar{}, err
	}
	return cal, nil
}

func (c Calendar) Validate() error {
	check := func(name string, p Period) error {
		if !p.From.valid() || !p.To.valid() {
			return fmt.Errorf("season calendar: %s period %s..%s is not a valid date span", name, p.From, p.To)
		}
		return nil
	}
	for _, p := range c.Low {
		if err := check("low", p); err != nil {
			return err
		}
	}
	for _, p := range c.High {
		if err := check("high", p); err != nil {
			return err
		}
	}
	return check("season", c.Season)
}

func (c Calendar) Band(t time.Time) Band {
	for _, p := range c.High {
		if p.Contains(t) {
			return High
		}
	}
	for _, p := range c.Low {
		if p.Contains(t) {
			return Low
		}
	}
	return Standard
}

// InSeason reports whether t falls inside the bookable window.
func (c Calendar) InSeason(t time.Time) bool {
	return c.Season.Contains(t)
}

// SeasonYear is the year whose season the admin views show on now: once the
// season end has been reached they move on to the next year.
func (c Calendar) SeasonYear(now time.Time) int {
	if !monthDayOf(now).before(c.Season.To) {
		return now.Year() + 1
	}
	return now.Year()
}

// SeasonBounds returns the first day and the day after the last day of the
// season in the given year.
func (c Calendar) SeasonBounds(year int) (time.Time, time.Time) {
	from := time.Date(year, c.Season.From.Month, c.Season.From.Day, 0, 0, 0, 0, time.UTC)
	toYear := year
	if c.Season.To.before(c.Season.From) {
		toYear++
	}
	to := time.Date(toYear, c.Season.To.Month, c.Season.To.Day, 0, 0, 0, 0, time.UTC)
	return from, to.AddDate(0, 0, 1)
}
