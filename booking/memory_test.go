package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hidenkeys/studios/studio"
)

type memoryRepo struct {
	mu     sync.Mutex
	rows   map[uuid.UUID]Reservation
	subs   map[int]subscription
	nextID int
	clock  time.Time
	failOn string
}

type subscription struct {
	scope Scope
	fn    func(Event)
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		rows:  map[uuid.UUID]Reservation{},
		subs:  map[int]subscription{},
		clock: time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memoryRepo) fail(op string) error {
	if m.failOn == op {
		return errors.New("store is down")
	}
	return nil
}

func (m *memoryRepo) List(ctx context.Context, f Filter) ([]Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("list"); err != nil {
		return nil, err
	}
	out := []Reservation{}
	for _, r := range m.rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	SortReservations(out, f.Order)
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id uuid.UUID) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return Reservation{}, ErrNotFound
	}
	return r, nil
}

func (m *memoryRepo) Create(ctx context.Context, r *Reservation) error {
	m.mu.Lock()
	if err := m.fail("create"); err != nil {
		m.mu.Unlock()
		return err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.clock = m.clock.Add(time.Minute)
	r.CreatedAt, r.UpdatedAt = m.clock, m.clock
	m.rows[r.ID] = *r
	m.mu.Unlock()

	m.publish(Event{Kind: Inserted, ID: r.ID, UnitID: r.UnitID})
	return nil
}

func (m *memoryRepo) Update(ctx context.Context, id uuid.UUID, p Patch) (Reservation, error) {
	m.mu.Lock()
	if err := m.fail("update"); err != nil {
		m.mu.Unlock()
		return Reservation{}, err
	}
	r, ok := m.rows[id]
	if !ok {
		m.mu.Unlock()
		return Reservation{}, ErrNotFound
	}
	prev := r.UnitID
	p.ApplyTo(&r)
	m.clock = m.clock.Add(time.Minute)
	r.UpdatedAt = m.clock
	m.rows[id] = r
	m.mu.Unlock()

	e := Event{Kind: Updated, ID: id, UnitID: r.UnitID}
	if prev != r.UnitID {
		e.PrevUnitID = prev
	}
	m.publish(e)
	return r, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	r, ok := m.rows[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.rows, id)
	m.mu.Unlock()

	m.publish(Event{Kind: Deleted, ID: id, UnitID: r.UnitID})
	return nil
}

func (m *memoryRepo) Subscribe(scope Scope, fn func(Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	key := m.nextID
	m.subs[key] = subscription{scope: scope, fn: fn}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, key)
	}
}

func (m *memoryRepo) subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *memoryRepo) publish(e Event) {
	m.mu.Lock()
	var fns []func(Event)
	for _, s := range m.subs {
		if s.scope.Matches(e) {
			fns = append(fns, s.fn)
		}
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

// put stores r as is, bypassing events.
func (m *memoryRepo) put(r Reservation) Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.clock = m.clock.Add(time.Minute)
	r.CreatedAt = m.clock
	m.rows[r.ID] = r
	return r
}

type memoryCatalog struct {
	units map[uint]studio.Unit
}

func newMemoryCatalog(units ...studio.Unit) *memoryCatalog {
	c := &memoryCatalog{units: map[uint]studio.Unit{}}
	for _, u := range units {
		c.units[u.ID] = u
	}
	return c
}

func (c *memoryCatalog) List(ctx context.Context) ([]studio.Unit, error) {
	out := make([]studio.Unit, 0, len(c.units))
	for _, u := range c.units {
		out = append(out, u)
	}
	return out, nil
}

func (c *memoryCatalog) Get(ctx context.Context, id uint) (studio.Unit, error) {
	u, ok := c.units[id]
	if !ok {
		return studio.Unit{}, studio.ErrNotFound
	}
	return u, nil
}
