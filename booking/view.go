package booking

import (
	"context"
	"sort"
	"sync"
)

// View is a locally materialized copy of one subscription scope. Change
// events only mark it stale; the next Snapshot refetches the whole scope.
type View struct {
	repo  Repository
	scope Scope

	mu     sync.Mutex
	items  []Reservation
	loaded uint64
	gen    uint64
	cancel func()
}

func NewView(repo Repository, scope Scope) *View {
	v := &View{repo: repo, scope: scope, gen: 1}
	v.cancel = repo.Subscribe(scope, v.invalidate)
	return v
}

func (v *View) invalidate(e Event) {
	if !v.scope.Matches(e) {
		return
	}
	v.mu.Lock()
	v.gen++
	v.mu.Unlock()
}

// Generation increases with every change seen in the scope.
func (v *View) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gen
}

// Snapshot returns the scope's reservations ordered by check-in, refetching
// if an event arrived since the last load. Callers must not modify the slice.
func (v *View) Snapshot(ctx context.Context) ([]Reservation, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.loaded == v.gen {
		return v.items, nil
	}

	// An event arriving while List runs bumps gen again and forces the next
	// Snapshot to reload.
	want := v.gen
	v.mu.Unlock()
	items, err := v.repo.List(ctx, Filter{UnitID: v.scope.UnitID, Order: ByCheckIn})
	v.mu.Lock()
	if err != nil {
		return nil, storeErr("refresh view", err)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CheckIn.Before(items[j].CheckIn) })
	v.items = items
	v.loaded = want
	return v.items, nil
}

func (v *View) Close() {
	if v.cancel != nil {
		v.cancel()
	}
}

// Views keeps one View per scope.
type Views struct {
	repo Repository

	mu    sync.Mutex
	views map[Scope]*View
}

func NewViews(repo Repository) *Views {
	return &Views{repo: repo, views: map[Scope]*View{}}
}

func (vs *Views) For(scope Scope) *View {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	v, ok := vs.views[scope]
	if !ok {
		v = NewView(vs.repo, scope)
		vs.views[scope] = v
	}
	return v
}

func (vs *Views) Close() {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	for scope, v := range vs.views {
		v.Close()
		delete(vs.views, scope)
	}
}
