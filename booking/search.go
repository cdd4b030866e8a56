package booking

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SearchParams is the customer site's search state, carried in deep links as
// ?checkIn=YYYY-MM-DD&checkOut=YYYY-MM-DD&adults=N&children=N.
type SearchParams struct {
	CheckIn  time.Time
	CheckOut time.Time
	Adults   int
	Children int
}

func (p SearchParams) Guests() int {
	return p.Adults + p.Children
}

func (p SearchParams) HasDates() bool {
	return !p.CheckIn.IsZero() && !p.CheckOut.IsZero()
}

// ParseSearch reads deep-link parameters. Missing values stay zero; adults
// defaults to 1 when dates are given.
func ParseSearch(q url.Values) (SearchParams, error) {
	var p SearchParams
	var err error
	if p.CheckIn, err = ParseDate("checkIn", q.Get("checkIn")); err != nil {
		return SearchParams{}, err
	}
	if p.CheckOut, err = ParseDate("checkOut", q.Get("checkOut")); err != nil {
		return SearchParams{}, err
	}
	if p.Adults, err = parseCount("adults", q.Get("adults")); err != nil {
		return SearchParams{}, err
	}
	if p.Children, err = parseCount("children", q.Get("children")); err != nil {
		return SearchParams{}, err
	}
	if p.Adults == 0 && p.HasDates() {
		p.Adults = 1
	}
	return p, nil
}

func parseCount(field, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a non-negative number", s)}
	}
	return n, nil
}

// Encode renders the parameters as a query string, omitting unset values.
func (p SearchParams) Encode() string {
	q := url.Values{}
	if !p.CheckIn.IsZero() {
		q.Set("checkIn", p.CheckIn.Format(DateLayout))
	}
	if !p.CheckOut.IsZero() {
		q.Set("checkOut", p.CheckOut.Format(DateLayout))
	}
	if p.Adults > 0 {
		q.Set("adults", strconv.Itoa(p.Adults))
	}
	if p.Children > 0 {
		q.Set("children", strconv.Itoa(p.Children))
	}
	return q.Encode()
}
