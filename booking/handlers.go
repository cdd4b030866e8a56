package booking

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
	"github.com/hidenkeys/studios/guest"
	"github.com/hidenkeys/studios/pricing"
	"github.com/hidenkeys/studios/studio"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc      *Service
	units    Catalog
	validate *validator.Validate
}

func NewHandler(svc *Service, units Catalog) *Handler {
	return &Handler{svc: svc, units: units, validate: validator.New()}
}

type stayBody struct {
	StudioID uint          `json:"studioId" validate:"required"`
	CheckIn  string        `json:"checkIn" validate:"required"`
	CheckOut string        `json:"checkOut" validate:"required"`
	Adults   int           `json:"adults" validate:"gte=0"`
	Children int           `json:"children" validate:"gte=0"`
	Guest    guest.Contact `json:"guest"`
	Status   string        `json:"status"`
}

func (b stayBody) dates() (time.Time, time.Time, error) {
	in, err := ParseDate("checkIn", b.CheckIn)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	out, err := ParseDate("checkOut", b.CheckOut)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return in, out, nil
}

type editBody struct {
	StudioID   *uint           `json:"studioId" validate:"omitempty,gt=0"`
	CheckIn    *string         `json:"checkIn"`
	CheckOut   *string         `json:"checkOut"`
	Adults     *int            `json:"adults" validate:"omitempty,gte=0"`
	Children   *int            `json:"children" validate:"omitempty,gte=0"`
	TotalPrice *pricing.Amount `json:"totalPrice" validate:"omitempty,gte=0"`
	Guest      *guest.Contact  `json:"guest"`
	Status     *string         `json:"status"`
}

func (b editBody) patch() (Patch, error) {
	p := Patch{UnitID: b.StudioID, Adults: b.Adults, Children: b.Children, TotalPrice: b.TotalPrice, Contact: b.Guest}
	if b.CheckIn != nil {
		d, err := ParseDate("checkIn", *b.CheckIn)
		if err != nil {
			return Patch{}, err
		}
		p.CheckIn = &d
	}
	if b.CheckOut != nil {
		d, err := ParseDate("checkOut", *b.CheckOut)
		if err != nil {
			return Patch{}, err
		}
		p.CheckOut = &d
	}
	if b.Status != nil {
		st, err := ParseStatus(*b.Status)
		if err != nil {
			return Patch{}, err
		}
		p.Status = &st
	}
	return p, nil
}

type statusBody struct {
	Status string `json:"status" validate:"required"`
}

type proposalBody struct {
	StudioID uint   `json:"studioId"`
	CheckIn  string `json:"checkIn" validate:"required"`
	CheckOut string `json:"checkOut" validate:"required"`
}

func (h *Handler) bind(c fiber.Ctx, out any) error {
	if err := c.Bind().JSON(out); err != nil {
		return &ValidationError{Field: "body", Reason: err.Error()}
	}
	if err := h.validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{Field: verrs[0].Field(), Reason: fmt.Sprintf("failed %q", verrs[0].Tag())}
		}
		return &ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

func query(c fiber.Ctx) url.Values {
	q, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return url.Values{}
	}
	return q
}

func reservationID(c fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, &ValidationError{Field: "id", Reason: "is not a reservation id"}
	}
	return id, nil
}

func studioID(c fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &ValidationError{Field: "id", Reason: "is not a studio id"}
	}
	return uint(id), nil
}

func intParam(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Field: key, Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	return n, nil
}

// respondError maps engine errors onto HTTP statuses.
func respondError(c fiber.Ctx, err error) error {
	var verr *ValidationError
	var cerr *ConflictError
	switch {
	case errors.As(err, &verr):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": verr.Error(), "field": verr.Field})
	case errors.As(err, &cerr):
		return c.Status(http.StatusConflict).JSON(fiber.Map{
			"error":    cerr.Error(),
			"checkIn":  cerr.CheckIn.Format(DateLayout),
			"checkOut": cerr.CheckOut.Format(DateLayout),
		})
	case errors.Is(err, ErrNotFound), errors.Is(err, studio.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	log.Errorf("booking: %v", err)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "reservation store unavailable"})
}

// Search serves the studios page: /studios/search?checkIn&checkOut&adults&children.
func (h *Handler) Search(c fiber.Ctx) error {
	params, err := ParseSearch(query(c))
	if err != nil {
		return respondError(c, err)
	}
	results, err := h.svc.Search(c.Context(), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"query": params.Encode(), "studios": results})
}

func (h *Handler) Quote(c fiber.Ctx) error {
	body := new(stayBody)
	if err := h.bind(c, body); err != nil {
		return respondError(c, err)
	}
	in, out, err := body.dates()
	if err != nil {
		return respondError(c, err)
	}
	q, err := h.svc.Quote(c.Context(), body.StudioID, in, out, body.Adults, body.Children)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(q)
}

// BookedDates lists the nights a studio is taken on the public calendar.
func (h *Handler) BookedDates(c fiber.Ctx) error {
	id, err := studioID(c)
	if err != nil {
		return respondError(c, err)
	}
	year, err := intParam(query(c), "year", h.svc.Calendar().SeasonYear(h.svc.now()))
	if err != nil {
		return respondError(c, err)
	}
	dates, err := h.svc.BookedDates(c.Context(), id, year, Public)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(DateLayout)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"studioId": id, "year": year, "dates": out})
}

// Book is the customer booking form.
func (h *Handler) Book(c fiber.Ctx) error {
	body := new(stayBody)
	if err := h.bind(c, body); err != nil {
		return respondError(c, err)
	}
	in, out, err := body.dates()
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.svc.RequestStay(c.Context(), StayRequest{
		UnitID:   body.StudioID,
		CheckIn:  in,
		CheckOut: out,
		Adults:   body.Adults,
		Children: body.Children,
		Contact:  body.Guest,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(r)
}

// List is the admin reservation list: ?tab=current|past&studioId&guest&from&to.
func (h *Handler) List(c fiber.Ctx) error {
	q, err := listQuery(query(c))
	if err != nil {
		return respondError(c, err)
	}
	rs, err := h.svc.List(c.Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(rs)
}

func listQuery(v url.Values) (ListQuery, error) {
	q := ListQuery{Tab: v.Get("tab"), Guest: strings.TrimSpace(v.Get("guest"))}
	unit, err := intParam(v, "studioId", 0)
	if err != nil {
		return ListQuery{}, err
	}
	if unit < 0 {
		return ListQuery{}, &ValidationError{Field: "studioId", Reason: "cannot be negative"}
	}
	q.UnitID = uint(unit)
	if q.From, err = ParseDate("from", v.Get("from")); err != nil {
		return ListQuery{}, err
	}
	if q.To, err = ParseDate("to", v.Get("to")); err != nil {
		return ListQuery{}, err
	}
	return q, nil
}

func (h *Handler) GetById(c fiber.Ctx) error {
	id, err := reservationID(c)
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(r)
}

func (h *Handler) Create(c fiber.Ctx) error {
	body := new(stayBody)
	if err := h.bind(c, body); err != nil {
		return respondError(c, err)
	}
	in, out, err := body.dates()
	if err != nil {
		return respondError(c, err)
	}
	var status Status
	if body.Status != "" {
		if status, err = ParseStatus(body.Status); err != nil {
			return respondError(c, err)
		}
	}
	r, err := h.svc.CreateDirect(c.Context(), DirectRequest{
		UnitID:   body.StudioID,
		CheckIn:  in,
		CheckOut: out,
		Adults:   body.Adults,
		Children: body.Children,
		Contact:  body.Guest,
		Status:   status,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(r)
}

func (h *Handler) Update(c fiber.Ctx) error {
	id, err := reservationID(c)
	if err != nil {
		return respondError(c, err)
	}
	body := new(editBody)
	if err := h.bind(c, body); err != nil {
		return respondError(c, err)
	}
	p, err := body.patch()
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.svc.Edit(c.Context(), id, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(r)
}

func (h *Handler) SetStatus(c fiber.Ctx) error {
	id, err := reservationID(c)
	if err != nil {
		return respondError(c, err)
	}
	body := new(statusBody)
	if err := h.bind(c, body); err != nil {
		return respondError(c, err)
	}
	status, err := ParseStatus(body.Status)
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.svc.SetStatus(c.Context(), id, status)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(r)
}

func (h *Handler) Propose(c fiber.Ctx) error {
	id, err := reservationID(c)
	if err != nil {
		return respondError(c, err)
	}
	body := new(proposalBody)
	if err := h.bind(c, body); err != nil {
		return respondError(c, err)
	}
	in, err := ParseDate("checkIn", body.CheckIn)
	if err != nil {
		return respondError(c, err)
	}
	out, err := ParseDate("checkOut", body.CheckOut)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.svc.Propose(c.Context(), id, Proposal{UnitID: body.StudioID, CheckIn: in, CheckOut: out})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(res)
}

func (h *Handler) Delete(c fiber.Ctx) error {
	id, err := reservationID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.Delete(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Export downloads the filtered admin list as an xlsx workbook.
func (h *Handler) Export(c fiber.Ctx) error {
	q, err := listQuery(query(c))
	if err != nil {
		return respondError(c, err)
	}
	rs, err := h.svc.List(c.Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	SortReservations(rs, ByCheckIn)

	names, err := h.studioNames(c)
	if err != nil {
		return respondError(c, err)
	}
	f, err := Workbook(rs, names)
	if err != nil {
		return respondError(c, err)
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="reservations.xlsx"`)
	return c.Status(http.StatusOK).Send(buf.Bytes())
}

func (h *Handler) studioNames(c fiber.Ctx) (map[uint]string, error) {
	units, err := h.units.List(c.Context())
	if err != nil {
		return nil, storeErr("list studios", err)
	}
	names := make(map[uint]string, len(units))
	for _, u := range units {
		names[u.ID] = u.Name
	}
	return names, nil
}

// Calendar is the admin month grid: ?year&month, defaulting to a month of
// the season year.
func (h *Handler) Calendar(c fiber.Ctx) error {
	id, err := studioID(c)
	if err != nil {
		return respondError(c, err)
	}
	now := h.svc.now()
	q := query(c)
	year, err := intParam(q, "year", h.svc.Calendar().SeasonYear(now))
	if err != nil {
		return respondError(c, err)
	}
	month, err := intParam(q, "month", int(defaultMonth(h.svc.Calendar(), now)))
	if err != nil {
		return respondError(c, err)
	}
	m, err := h.svc.Month(c.Context(), id, year, time.Month(month))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(m)
}

// defaultMonth is the month the admin calendar opens on: the current month
// while the season runs, otherwise the first month of the season ahead.
func defaultMonth(cal pricing.Calendar, now time.Time) time.Month {
	if cal.SeasonYear(now) != now.Year() || !cal.InSeason(now) {
		return cal.Season.From.Month
	}
	return now.Month()
}

// Availability is the staff check used while editing or proposing:
// ?checkIn&checkOut&exclude=<reservation id>.
func (h *Handler) Availability(c fiber.Ctx) error {
	id, err := studioID(c)
	if err != nil {
		return respondError(c, err)
	}
	q := query(c)
	in, err := ParseDate("checkIn", q.Get("checkIn"))
	if err != nil {
		return respondError(c, err)
	}
	out, err := ParseDate("checkOut", q.Get("checkOut"))
	if err != nil {
		return respondError(c, err)
	}
	if err := validateOrder(in, out); err != nil {
		return respondError(c, err)
	}
	exclude := uuid.Nil
	if raw := q.Get("exclude"); raw != "" {
		if exclude, err = uuid.Parse(raw); err != nil {
			return respondError(c, &ValidationError{Field: "exclude", Reason: "is not a reservation id"})
		}
	}
	conflicts, err := h.svc.Checker().Conflicts(c.Context(), id, in, out, exclude, Staff)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"available": len(conflicts) == 0, "conflicts": conflicts})
}

// Guests finds past guests by name, e-mail or phone so staff can reuse their
// contact details.
func (h *Handler) Guests(c fiber.Ctx) error {
	name := strings.TrimSpace(query(c).Get("name"))
	if name == "" {
		return respondError(c, &ValidationError{Field: "name", Reason: "is required"})
	}
	rs, err := h.svc.List(c.Context(), ListQuery{Guest: name})
	if err != nil {
		return respondError(c, err)
	}

	seen := map[string]bool{}
	contacts := []guest.Contact{}
	for _, r := range rs {
		key := strings.ToLower(r.GuestName + "|" + r.GuestEmail + "|" + r.GuestPhone)
		if seen[key] {
			continue
		}
		seen[key] = true
		contacts = append(contacts, r.Contact())
	}
	sort.SliceStable(contacts, func(i, j int) bool { return contacts[i].Name < contacts[j].Name })
	return c.Status(http.StatusOK).JSON(contacts)
}
