package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_InvalidatesOnlyOnItsScope(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()
	unitView := NewView(repo, UnitScope(1))
	allView := NewView(repo, AllReservations)
	defer unitView.Close()
	defer allView.Close()

	items, err := unitView.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	gen := unitView.Generation()

	r := &Reservation{UnitID: 2, CheckIn: date(2025, time.June, 1), CheckOut: date(2025, time.June, 2), Status: Pending}
	require.NoError(t, repo.Create(ctx, r))
	assert.Equal(t, gen, unitView.Generation())

	all, err := allView.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// Moving the stay onto studio 1 reaches the studio 1 view.
	one := uint(1)
	_, err = repo.Update(ctx, r.ID, Patch{UnitID: &one})
	require.NoError(t, err)
	assert.Greater(t, unitView.Generation(), gen)

	items, err = unitView.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, r.ID, items[0].ID)
}

func TestView_ServesCacheUntilInvalidated(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()
	v := NewView(repo, AllReservations)
	defer v.Close()

	repo.put(Reservation{UnitID: 1, CheckIn: date(2025, time.June, 1), CheckOut: date(2025, time.June, 2)})
	items, err := v.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// put skips events, so the view keeps its copy.
	repo.put(Reservation{UnitID: 1, CheckIn: date(2025, time.June, 5), CheckOut: date(2025, time.June, 6)})
	items, err = v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, repo.Create(ctx, &Reservation{UnitID: 1, CheckIn: date(2025, time.June, 8), CheckOut: date(2025, time.June, 9)}))
	items, err = v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.True(t, items[0].CheckIn.Before(items[2].CheckIn))
}

func TestView_RefreshFailureKeepsViewStale(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()
	v := NewView(repo, AllReservations)
	defer v.Close()

	repo.failOn = "list"
	_, err := v.Snapshot(ctx)
	var rerr *RepositoryError
	require.ErrorAs(t, err, &rerr)

	repo.failOn = ""
	items, err := v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestViews_CloseUnsubscribes(t *testing.T) {
	repo := newMemoryRepo()
	vs := NewViews(repo)
	assert.Same(t, vs.For(UnitScope(1)), vs.For(UnitScope(1)))
	vs.For(AllReservations)
	assert.Equal(t, 2, repo.subscribers())

	vs.Close()
	assert.Equal(t, 0, repo.subscribers())
}
