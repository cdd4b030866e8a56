package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hidenkeys/studios/guest"
	"github.com/hidenkeys/studios/pricing"
	"github.com/hidenkeys/studios/studio"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reservation is a stay on one studio over [CheckIn, CheckOut).
type Reservation struct {
	ID             uuid.UUID                         `json:"id" gorm:"type:uuid;primaryKey"`
	UnitID         uint                              `json:"studioId" gorm:"not null;index"`
	CheckIn        time.Time                         `json:"checkIn" gorm:"type:date;not null;index"`
	CheckOut       time.Time                         `json:"checkOut" gorm:"type:date;not null"`
	Adults         int                               `json:"adults" gorm:"not null"`
	Children       int                               `json:"children"`
	TotalPrice     pricing.Amount                    `json:"totalPrice"`
	GuestName      string                            `json:"guestName" gorm:"not null"`
	GuestCountry   string                            `json:"guestCountry"`
	PhoneCode      string                            `json:"phoneCountryCode"`
	GuestPhone     string                            `json:"guestPhone"`
	GuestEmail     string                            `json:"guestEmail"`
	ContactMethods datatypes.JSONSlice[guest.Method] `json:"contactMethods"`
	Status         Status                            `json:"status" gorm:"not null;index"`

	ProposedCheckIn  *time.Time `json:"proposedCheckIn" gorm:"type:date"`
	ProposedCheckOut *time.Time `json:"proposedCheckOut" gorm:"type:date"`
	ProposedUnitID   *uint      `json:"proposedStudioId"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// AfterFind pins the date columns to UTC midnight whatever the driver returns.
func (r *Reservation) AfterFind(tx *gorm.DB) error {
	r.normalize()
	return nil
}

func (r *Reservation) normalize() {
	r.CheckIn, r.CheckOut = pricing.Day(r.CheckIn), pricing.Day(r.CheckOut)
	if r.ProposedCheckIn != nil {
		d := pricing.Day(*r.ProposedCheckIn)
		r.ProposedCheckIn = &d
	}
	if r.ProposedCheckOut != nil {
		d := pricing.Day(*r.ProposedCheckOut)
		r.ProposedCheckOut = &d
	}
}

func (r Reservation) Nights() int {
	return pricing.Nights(r.CheckIn, r.CheckOut)
}

func (r Reservation) Guests() int {
	return r.Adults + r.Children
}

func (r Reservation) Contact() guest.Contact {
	return guest.Contact{
		Name:      r.GuestName,
		Country:   r.GuestCountry,
		PhoneCode: r.PhoneCode,
		Phone:     r.GuestPhone,
		Email:     r.GuestEmail,
		Methods:   r.ContactMethods,
	}
}

func (r *Reservation) setContact(c guest.Contact) {
	r.GuestName = c.Name
	r.GuestCountry = c.Country
	r.PhoneCode = c.PhoneCode
	r.GuestPhone = c.Phone
	r.GuestEmail = c.Email
	r.ContactMethods = c.Methods
}

// HasProposal reports whether all alternative fields are populated.
func (r Reservation) HasProposal() bool {
	return r.ProposedCheckIn != nil && r.ProposedCheckOut != nil && r.ProposedUnitID != nil
}

func (r Reservation) Proposal() (Proposal, bool) {
	if !r.HasProposal() {
		return Proposal{}, false
	}
	return Proposal{UnitID: *r.ProposedUnitID, CheckIn: *r.ProposedCheckIn, CheckOut: *r.ProposedCheckOut}, true
}

// Proposal is a staff-suggested alternative stay.
type Proposal struct {
	UnitID   uint      `json:"studioId"`
	CheckIn  time.Time `json:"checkIn"`
	CheckOut time.Time `json:"checkOut"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	UnitID        *uint
	CheckIn       *time.Time
	CheckOut      *time.Time
	Adults        *int
	Children      *int
	TotalPrice    *pricing.Amount
	Contact       *guest.Contact
	Status        *Status
	Proposal      *Proposal
	ClearProposal bool
}

func (p Patch) Empty() bool {
	return len(p.Columns()) == 0
}

// Columns returns the patch as column updates for the store.
func (p Patch) Columns() map[string]any {
	cols := map[string]any{}
	if p.UnitID != nil {
		cols["unit_id"] = *p.UnitID
	}
	if p.CheckIn != nil {
		cols["check_in"] = pricing.Day(*p.CheckIn)
	}
	if p.CheckOut != nil {
		cols["check_out"] = pricing.Day(*p.CheckOut)
	}
	if p.Adults != nil {
		cols["adults"] = *p.Adults
	}
	if p.Children != nil {
		cols["children"] = *p.Children
	}
	if p.TotalPrice != nil {
		cols["total_price"] = *p.TotalPrice
	}
	if p.Contact != nil {
		cols["guest_name"] = p.Contact.Name
		cols["guest_country"] = p.Contact.Country
		cols["phone_code"] = p.Contact.PhoneCode
		cols["guest_phone"] = p.Contact.Phone
		cols["guest_email"] = p.Contact.Email
		cols["contact_methods"] = datatypes.JSONSlice[guest.Method](p.Contact.Methods)
	}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	switch {
	case p.Proposal != nil:
		cols["proposed_unit_id"] = p.Proposal.UnitID
		cols["proposed_check_in"] = pricing.Day(p.Proposal.CheckIn)
		cols["proposed_check_out"] = pricing.Day(p.Proposal.CheckOut)
	case p.ClearProposal:
		cols["proposed_unit_id"] = nil
		cols["proposed_check_in"] = nil
		cols["proposed_check_out"] = nil
	}
	return cols
}

// ApplyTo writes the patch onto r.
func (p Patch) ApplyTo(r *Reservation) {
	if p.UnitID != nil {
		r.UnitID = *p.UnitID
	}
	if p.CheckIn != nil {
		r.CheckIn = pricing.Day(*p.CheckIn)
	}
	if p.CheckOut != nil {
		r.CheckOut = pricing.Day(*p.CheckOut)
	}
	if p.Adults != nil {
		r.Adults = *p.Adults
	}
	if p.Children != nil {
		r.Children = *p.Children
	}
	if p.TotalPrice != nil {
		r.TotalPrice = *p.TotalPrice
	}
	if p.Contact != nil {
		r.setContact(*p.Contact)
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	switch {
	case p.Proposal != nil:
		unit, in, out := p.Proposal.UnitID, pricing.Day(p.Proposal.CheckIn), pricing.Day(p.Proposal.CheckOut)
		r.ProposedUnitID, r.ProposedCheckIn, r.ProposedCheckOut = &unit, &in, &out
	case p.ClearProposal:
		r.ProposedUnitID, r.ProposedCheckIn, r.ProposedCheckOut = nil, nil, nil
	}
}

type Order int

const (
	ByCreatedDesc Order = iota
	ByCheckIn
)

// Filter selects reservations. Zero values match everything.
type Filter struct {
	UnitID   uint
	Statuses []Status
	// From/To keep reservations overlapping [From, To).
	From    time.Time
	To      time.Time
	Exclude uuid.UUID
	// Guest matches name, e-mail or phone, case-insensitively.
	Guest string
	Order Order
}

func (f Filter) Match(r Reservation) bool {
	if f.UnitID != 0 && r.UnitID != f.UnitID {
		return false
	}
	if f.Exclude != uuid.Nil && r.ID == f.Exclude {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if r.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.From.IsZero() && !r.CheckOut.After(pricing.Day(f.From)) {
		return false
	}
	if !f.To.IsZero() && !r.CheckIn.Before(pricing.Day(f.To)) {
		return false
	}
	if f.Guest != "" {
		q := strings.ToLower(f.Guest)
		if !strings.Contains(strings.ToLower(r.GuestName), q) &&
			!strings.Contains(strings.ToLower(r.GuestEmail), q) &&
			!strings.Contains(r.GuestPhone, q) {
			return false
		}
	}
	return true
}

type EventKind string

const (
	Inserted EventKind = "insert"
	Updated  EventKind = "update"
	Deleted  EventKind = "delete"
)

// Event tells subscribers a reservation changed. It deliberately carries no
// row data; listeners refetch.
type Event struct {
	Kind   EventKind `json:"kind"`
	ID     uuid.UUID `json:"id"`
	UnitID uint      `json:"studioId"`
	// PrevUnitID is set when an update moved the reservation to another studio.
	PrevUnitID uint `json:"prevStudioId,omitempty"`
}

// Scope is a subscription target: every reservation, or those of one studio.
type Scope struct {
	UnitID uint
}

var AllReservations = Scope{}

func UnitScope(id uint) Scope { return Scope{UnitID: id} }

func (s Scope) Matches(e Event) bool {
	return s.UnitID == 0 || e.UnitID == s.UnitID || (e.PrevUnitID != 0 && e.PrevUnitID == s.UnitID)
}

func (s Scope) Filter() Filter {
	return Filter{UnitID: s.UnitID}
}

// Repository is the reservation store the engine runs against.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Reservation, error)
	Get(ctx context.Context, id uuid.UUID) (Reservation, error)
	Create(ctx context.Context, r *Reservation) error
	Update(ctx context.Context, id uuid.UUID, p Patch) (Reservation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Subscribe(scope Scope, fn func(Event)) (cancel func())
}

// Catalog is the read side of the studio store.
type Catalog interface {
	List(ctx context.Context) ([]studio.Unit, error)
	Get(ctx context.Context, id uint) (studio.Unit, error)
}
