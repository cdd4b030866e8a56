package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
	"github.com/hidenkeys/studios/guest"
	"github.com/hidenkeys/studios/pricing"
	"github.com/hidenkeys/studios/studio"
)

const notifyTimeout = 30 * time.Second

// Service runs the customer booking flow and the admin console operations
// against a reservation store and the studio catalog.
type Service struct {
	repo     Repository
	units    Catalog
	calendar pricing.Calendar
	checker  *Checker
	views    *Views
	notifier Notifier
	now      func() time.Time

	inflight sync.WaitGroup
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func NewService(repo Repository, units Catalog, cal pricing.Calendar, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		units:    units,
		calendar: cal,
		checker:  NewChecker(repo),
		views:    NewViews(repo),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Checker() *Checker { return s.checker }

func (s *Service) Calendar() pricing.Calendar { return s.calendar }

func (s *Service) today() time.Time { return pricing.Day(s.now()) }

// Close drops the view subscriptions and waits for pending notifications.
func (s *Service) Close() {
	s.views.Close()
	s.inflight.Wait()
}

func (s *Service) unit(ctx context.Context, id uint) (studio.Unit, error) {
	if id == 0 {
		return studio.Unit{}, &ValidationError{Field: "studioId", Reason: "is required"}
	}
	u, err := s.units.Get(ctx, id)
	if err != nil {
		if errors.Is(err, studio.ErrNotFound) {
			return studio.Unit{}, err
		}
		return studio.Unit{}, storeErr("get studio", err)
	}
	return u, nil
}

// StayRequest is a booking made on the customer site.
type StayRequest struct {
	UnitID   uint
	CheckIn  time.Time
	CheckOut time.Time
	Adults   int
	Children int
	Contact  guest.Contact
}

// RequestStay validates, prices and stores a pending reservation, then
// tells staff about it in the background.
func (s *Service) RequestStay(ctx context.Context, req StayRequest) (Reservation, error) {
	if err := validateStay(s.calendar, s.today(), req.CheckIn, req.CheckOut); err != nil {
		return Reservation{}, err
	}
	u, err := s.unit(ctx, req.UnitID)
	if err != nil {
		return Reservation{}, err
	}
	if err := validateOccupancy(u, req.Adults, req.Children); err != nil {
		return Reservation{}, err
	}
	if err := s.checker.ensureAvailable(ctx, u.ID, req.CheckIn, req.CheckOut, uuid.Nil, Public); err != nil {
		return Reservation{}, err
	}

	total := s.calendar.Total(u.Rates(), req.CheckIn, req.CheckOut)

	contact := req.Contact.Normalize()
	if err := validateContact(contact, true); err != nil {
		return Reservation{}, err
	}

	r := Reservation{
		UnitID:     u.ID,
		CheckIn:    pricing.Day(req.CheckIn),
		CheckOut:   pricing.Day(req.CheckOut),
		Adults:     req.Adults,
		Children:   req.Children,
		TotalPrice: total,
		Status:     Pending,
	}
	r.setContact(contact)
	if err := s.repo.Create(ctx, &r); err != nil {
		return Reservation{}, storeErr("create reservation", err)
	}
	log.Infof("reservation %s requested for studio %d, %s to %s", r.ID, r.UnitID, r.CheckIn.Format(DateLayout), r.CheckOut.Format(DateLayout))

	s.notify(r, u.Name)
	return r, nil
}

func (s *Service) notify(r Reservation, studioName string) {
	if s.notifier == nil {
		return
	}
	summary := NewSummary(r, studioName)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, summary); err != nil {
			log.Errorf("%v", &NotificationError{ID: r.ID, Err: err})
		}
	}()
}

// Quote prices a stay without storing anything.
type Quote struct {
	UnitID    uint            `json:"studioId"`
	CheckIn   time.Time       `json:"checkIn"`
	CheckOut  time.Time       `json:"checkOut"`
	Nights    int             `json:"nights"`
	Total     pricing.Amount  `json:"totalPrice"`
	Breakdown []pricing.Night `json:"breakdown"`
	Available bool            `json:"available"`
}

func (s *Service) Quote(ctx context.Context, unitID uint, checkIn, checkOut time.Time, adults, children int) (Quote, error) {
	if err := validateStay(s.calendar, s.today(), checkIn, checkOut); err != nil {
		return Quote{}, err
	}
	u, err := s.unit(ctx, unitID)
	if err != nil {
		return Quote{}, err
	}
	if err := validateOccupancy(u, adults, children); err != nil {
		return Quote{}, err
	}
	free, err := s.checker.IsRangeAvailable(ctx, u.ID, checkIn, checkOut, uuid.Nil, Public)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		UnitID:    u.ID,
		CheckIn:   pricing.Day(checkIn),
		CheckOut:  pricing.Day(checkOut),
		Nights:    pricing.Nights(checkIn, checkOut),
		Total:     s.calendar.Total(u.Rates(), checkIn, checkOut),
		Breakdown: s.calendar.Breakdown(u.Rates(), checkIn, checkOut),
		Available: free,
	}, nil
}

// SearchResult is one studio on the studios page.
type SearchResult struct {
	Studio    studio.Unit    `json:"studio"`
	Available bool           `json:"available"`
	Nights    int            `json:"nights"`
	Total     pricing.Amount `json:"totalPrice"`
}

// Search lists the studios that fit the party. With dates it also reports
// public availability and the price of the stay.
func (s *Service) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	if !p.CheckIn.IsZero() || !p.CheckOut.IsZero() {
		if err := validateStay(s.calendar, s.today(), p.CheckIn, p.CheckOut); err != nil {
			return nil, err
		}
	}
	units, err := s.units.List(ctx)
	if err != nil {
		return nil, storeErr("list studios", err)
	}
	sort.SliceStable(units, func(i, j int) bool { return units[i].Name < units[j].Name })

	results := []SearchResult{}
	for _, u := range units {
		if p.Guests() > u.Capacity {
			continue
		}
		res := SearchResult{Studio: u, Available: true}
		if p.HasDates() {
			free, err := s.checker.IsRangeAvailable(ctx, u.ID, p.CheckIn, p.CheckOut, uuid.Nil, Public)
			if err != nil {
				return nil, err
			}
			res.Available = free
			res.Nights = pricing.Nights(p.CheckIn, p.CheckOut)
			res.Total = s.calendar.Total(u.Rates(), p.CheckIn, p.CheckOut)
		}
		results = append(results, res)
	}
	return results, nil
}

// ListQuery narrows the admin reservation list.
type ListQuery struct {
	Tab    string
	UnitID uint
	Guest  string
	From   time.Time
	To     time.Time
}

// List returns reservations newest first, served from the all-reservations
// view.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Reservation, error) {
	statuses, err := PartitionStatuses(q.Tab)
	if err != nil {
		return nil, err
	}
	all, err := s.views.For(AllReservations).Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	f := Filter{UnitID: q.UnitID, Statuses: statuses, From: q.From, To: q.To, Guest: q.Guest, Order: ByCreatedDesc}
	out := []Reservation{}
	for _, r := range all {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	SortReservations(out, f.Order)
	return out, nil
}

func SortReservations(rs []Reservation, o Order) {
	switch o {
	case ByCheckIn:
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].CheckIn.Before(rs[j].CheckIn) })
	default:
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].CreatedAt.After(rs[j].CreatedAt) })
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Reservation, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return Reservation{}, storeErr("get reservation", err)
	}
	return r, nil
}

// SetStatus moves a reservation to status. Administrators may force any
// move; moves outside the guest lifecycle are logged. Confirming a
// reservation with an open proposal accepts the proposal.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status Status) (Reservation, error) {
	if !status.Valid() {
		return Reservation{}, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return Reservation{}, err
	}
	if current.Status == status {
		return current, nil
	}
	if !current.Status.CanTransition(status) {
		log.Warnf("reservation %s forced from %s to %s", id, current.Status, status)
	}

	patch := Patch{Status: &status}
	switch {
	case status == AlternativeProposed:
		if !current.HasProposal() {
			return Reservation{}, &ValidationError{Field: "status", Reason: "propose alternative dates first"}
		}
	case accepts(current, status):
		acceptProposal(current, &patch)
		next := current
		patch.ApplyTo(&next)
		if err := s.checkAccepted(ctx, next); err != nil {
			return Reservation{}, err
		}
	default:
		if status == Confirmed {
			if err := s.checker.ensureAvailable(ctx, current.UnitID, current.CheckIn, current.CheckOut, id, Public); err != nil {
				return Reservation{}, err
			}
		}
		patch.ClearProposal = current.HasProposal()
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return Reservation{}, storeErr("update reservation", err)
	}
	return updated, nil
}

// accepts reports whether moving r to status accepts its proposal.
func accepts(r Reservation, status Status) bool {
	return status == Confirmed && r.Status == AlternativeProposed && r.HasProposal()
}

// acceptProposal points the patch at r's proposed studio and dates and drops
// the proposal.
func acceptProposal(r Reservation, p *Patch) {
	prop, _ := r.Proposal()
	p.UnitID, p.CheckIn, p.CheckOut = &prop.UnitID, &prop.CheckIn, &prop.CheckOut
	p.ClearProposal = true
}

// checkAccepted validates the stay an accepted proposal produces: ordered
// dates, a studio that fits the party and no confirmed stay in the way.
func (s *Service) checkAccepted(ctx context.Context, next Reservation) error {
	if err := validateOrder(next.CheckIn, next.CheckOut); err != nil {
		return err
	}
	u, err := s.unit(ctx, next.UnitID)
	if err != nil {
		return err
	}
	if err := validateOccupancy(u, next.Adults, next.Children); err != nil {
		return err
	}
	return s.checker.ensureAvailable(ctx, next.UnitID, next.CheckIn, next.CheckOut, next.ID, Public)
}

// DirectRequest is a reservation entered by staff, e.g. for a walk-in.
type DirectRequest struct {
	UnitID   uint
	CheckIn  time.Time
	CheckOut time.Time
	Adults   int
	Children int
	Contact  guest.Contact
	// Status defaults to Confirmed.
	Status Status
}

// CreateDirect stores a staff-entered reservation at price zero.
func (s *Service) CreateDirect(ctx context.Context, req DirectRequest) (Reservation, error) {
	status := req.Status
	if status == "" {
		status = Confirmed
	}
	if !status.Valid() {
		return Reservation{}, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}
	if status == AlternativeProposed {
		return Reservation{}, &ValidationError{Field: "status", Reason: "create the reservation first, then propose alternative dates"}
	}
	if err := validateOrder(req.CheckIn, req.CheckOut); err != nil {
		return Reservation{}, err
	}
	adults := req.Adults
	if adults == 0 {
		adults = 1
	}
	u, err := s.unit(ctx, req.UnitID)
	if err != nil {
		return Reservation{}, err
	}
	if err := validateOccupancy(u, adults, req.Children); err != nil {
		return Reservation{}, err
	}
	contact := req.Contact.Normalize()
	if err := validateContact(contact, false); err != nil {
		return Reservation{}, err
	}
	if status.Occupies() {
		if err := s.checker.ensureAvailable(ctx, u.ID, req.CheckIn, req.CheckOut, uuid.Nil, Staff); err != nil {
			return Reservation{}, err
		}
	}

	r := Reservation{
		UnitID:   u.ID,
		CheckIn:  pricing.Day(req.CheckIn),
		CheckOut: pricing.Day(req.CheckOut),
		Adults:   adults,
		Children: req.Children,
		Status:   status,
	}
	r.setContact(contact)
	if err := s.repo.Create(ctx, &r); err != nil {
		return Reservation{}, storeErr("create reservation", err)
	}
	log.Infof("reservation %s entered by staff as %s", r.ID, r.Status)
	return r, nil
}

// Edit overwrites reservation fields, re-validating the result. Proposals
// go through Propose.
func (s *Service) Edit(ctx context.Context, id uuid.UUID, p Patch) (Reservation, error) {
	if p.Proposal != nil {
		return Reservation{}, &ValidationError{Field: "proposal", Reason: "use the proposal endpoint"}
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return Reservation{}, err
	}
	if p.Contact != nil {
		c := p.Contact.Normalize()
		p.Contact = &c
	}

	next := current
	p.ApplyTo(&next)
	if accepts(current, next.Status) && p.UnitID == nil && p.CheckIn == nil && p.CheckOut == nil {
		acceptProposal(current, &p)
		next = current
		p.ApplyTo(&next)
	}

	if !next.Status.Valid() {
		return Reservation{}, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", next.Status)}
	}
	if err := validateOrder(next.CheckIn, next.CheckOut); err != nil {
		return Reservation{}, err
	}
	u, err := s.unit(ctx, next.UnitID)
	if err != nil {
		return Reservation{}, err
	}
	if err := validateOccupancy(u, next.Adults, next.Children); err != nil {
		return Reservation{}, err
	}
	if err := validateContact(next.Contact(), false); err != nil {
		return Reservation{}, err
	}

	if next.Status == AlternativeProposed && !next.HasProposal() {
		return Reservation{}, &ValidationError{Field: "status", Reason: "propose alternative dates first"}
	}
	if next.Status != AlternativeProposed && next.HasProposal() {
		p.ClearProposal = true
	}

	moved := next.UnitID != current.UnitID || !next.CheckIn.Equal(current.CheckIn) || !next.CheckOut.Equal(current.CheckOut)
	if moved && next.Status.Occupies() {
		if err := s.checker.ensureAvailable(ctx, next.UnitID, next.CheckIn, next.CheckOut, id, Staff); err != nil {
			return Reservation{}, err
		}
	}
	if next.Status == Confirmed && (moved || current.Status != Confirmed) {
		if err := s.checker.ensureAvailable(ctx, next.UnitID, next.CheckIn, next.CheckOut, id, Public); err != nil {
			return Reservation{}, err
		}
	}
	if current.Status != next.Status && !current.Status.CanTransition(next.Status) {
		log.Warnf("reservation %s forced from %s to %s", id, current.Status, next.Status)
	}

	if p.Empty() {
		return current, nil
	}
	updated, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return Reservation{}, storeErr("update reservation", err)
	}
	return updated, nil
}

// Delete removes a reservation for good.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr("delete reservation", err)
	}
	log.Infof("reservation %s deleted", id)
	return nil
}

// ProposalResult is the stored proposal plus the message staff send to the
// guest and the links that open each contact channel.
type ProposalResult struct {
	Reservation Reservation  `json:"reservation"`
	Subject     string       `json:"subject"`
	Message     string       `json:"message"`
	Links       []guest.Link `json:"links"`
}

// Propose attaches alternative dates, and possibly another studio, to a
// reservation and moves it to AlternativeProposed.
func (s *Service) Propose(ctx context.Context, id uuid.UUID, p Proposal) (ProposalResult, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return ProposalResult{}, err
	}
	contact := current.Contact()
	if !contact.Reachable() {
		return ProposalResult{}, &ValidationError{Field: "contact", Reason: "the guest has no contact details to send a proposal to"}
	}
	if p.UnitID == 0 {
		p.UnitID = current.UnitID
	}
	p.CheckIn, p.CheckOut = pricing.Day(p.CheckIn), pricing.Day(p.CheckOut)
	if err := validateStay(s.calendar, s.today(), p.CheckIn, p.CheckOut); err != nil {
		return ProposalResult{}, err
	}
	u, err := s.unit(ctx, p.UnitID)
	if err != nil {
		return ProposalResult{}, err
	}
	if current.Guests() > u.Capacity {
		return ProposalResult{}, &ValidationError{Field: "studioId", Reason: fmt.Sprintf("%s sleeps at most %d", u.Name, u.Capacity)}
	}
	if err := s.checker.ensureAvailable(ctx, p.UnitID, p.CheckIn, p.CheckOut, id, Staff); err != nil {
		return ProposalResult{}, err
	}

	status := AlternativeProposed
	if !current.Status.CanTransition(status) && current.Status != status {
		log.Warnf("reservation %s forced from %s to %s", id, current.Status, status)
	}
	updated, err := s.repo.Update(ctx, id, Patch{Status: &status, Proposal: &p})
	if err != nil {
		return ProposalResult{}, storeErr("update reservation", err)
	}

	subject, message, err := guest.ProposalMessage(contact.Country, guest.Proposal{
		GuestName: contact.Name,
		Studio:    u.Name,
		CheckIn:   p.CheckIn,
		CheckOut:  p.CheckOut,
	})
	if err != nil {
		return ProposalResult{}, fmt.Errorf("render proposal: %w", err)
	}
	return ProposalResult{
		Reservation: updated,
		Subject:     subject,
		Message:     message,
		Links:       contact.Links(subject, message),
	}, nil
}

// Month builds the admin calendar of one studio, served from that studio's
// view.
func (s *Service) Month(ctx context.Context, unitID uint, year int, month time.Month) (Month, error) {
	if month < time.January || month > time.December {
		return Month{}, &ValidationError{Field: "month", Reason: fmt.Sprintf("%d is not a month", month)}
	}
	u, err := s.unit(ctx, unitID)
	if err != nil {
		return Month{}, err
	}
	rs, err := s.views.For(UnitScope(unitID)).Snapshot(ctx)
	if err != nil {
		return Month{}, err
	}
	return BuildMonth(s.calendar, u, year, month, rs, s.today()), nil
}

// BookedDates lists the nights of a studio taken for the audience inside
// the season of year.
func (s *Service) BookedDates(ctx context.Context, unitID uint, year int, audience Audience) ([]time.Time, error) {
	if _, err := s.unit(ctx, unitID); err != nil {
		return nil, err
	}
	from, to := s.calendar.SeasonBounds(year)
	return s.checker.BookedDates(ctx, unitID, from, to, audience)
}
