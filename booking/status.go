package booking

import (
	"fmt"
	"strings"
)

type Status string

const (
	Pending             Status = "pending"
	InCorrespondence    Status = "in_correspondence"
	AlternativeProposed Status = "alternative_proposed"
	Confirmed           Status = "confirmed"
	Rejected            Status = "rejected"
)

// Older rows and clients still send the previous name of AlternativeProposed.
const legacyProposedDates = "proposed_dates"

// transitions is the guest-facing lifecycle. Administrators can still force
// any status through Service.SetStatus.
var transitions = map[Status][]Status{
	Pending:             {InCorrespondence},
	InCorrespondence:    {AlternativeProposed, Confirmed, Rejected},
	AlternativeProposed: {Confirmed, Rejected, InCorrespondence},
	Confirmed:           {},
	Rejected:            {},
}

func ParseStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == legacyProposedDates {
		return AlternativeProposed, nil
	}
	st := Status(v)
	if !st.Valid() {
		return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s)}
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the lifecycle allows s -> to without an
// administrative override.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal states end the guest-facing flow.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Occupies reports whether a reservation in this state holds its dates for
// staff planning.
func (s Status) Occupies() bool {
	return Staff.Blocks(s)
}

// Admin list partitions.
var (
	CurrentStatuses = []Status{Pending, InCorrespondence, AlternativeProposed}
	PastStatuses    = []Status{Confirmed, Rejected}
)

// PartitionStatuses maps a list tab ("current" or "past") to its statuses.
// An empty tab means every status.
func PartitionStatuses(tab string) ([]Status, error) {
	switch strings.ToLower(tab) {
	case "":
		return nil, nil
	case "current":
		return CurrentStatuses, nil
	case "past":
		return PastStatuses, nil
	}
	return nil, &ValidationError{Field: "tab", Reason: fmt.Sprintf("unknown tab %q", tab)}
}

// Audience selects which reservations block a date range.
type Audience int

const (
	// Public is the customer site: only confirmed stays block dates.
	Public Audience = iota
	// Staff is the admin console: anything not rejected blocks dates.
	Staff
)

func (a Audience) String() string {
	if a == Staff {
		return "staff"
	}
	return "public"
}

func (a Audience) Blocking() []Status {
	if a == Staff {
		return []Status{Pending, InCorrespondence, Confirmed, AlternativeProposed}
	}
	return []Status{Confirmed}
}

func (a Audience) Blocks(s Status) bool {
	for _, b := range a.Blocking() {
		if b == s {
			return true
		}
	}
	return false
}
