package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/facilitymap/internal/cache"
	"github.com/xelth-com/facilitymap/internal/store"
)

func TestBulkUpdateCreatesWithServerIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fp, err := f.svc.BulkUpdate(ctx, f.plan.ID, BulkUpdateInput{
		CanvasWidth: ptr(1600),
		GridSize:    ptr(25),
		Elements: []ElementInput{
			{ID: ptr("temp-1"), ElementType: "wall", Properties: json.RawMessage(`{"x1":0,"y1":0,"x2":400,"y2":0}`)},
			{ElementType: "door"},
		},
		Racks: []RackInput{{ID: ptr("temp-rack"), Name: "R2", Rotation: ptr(90)}},
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, 1600, fp.CanvasWidth)
	assert.Equal(t, 25, fp.GridSize)
	assert.Equal(t, 800, fp.CanvasHeight)
	require.NotNil(t, fp.UpdatedBy)
	assert.Equal(t, actor, *fp.UpdatedBy)

	require.Len(t, fp.Elements, 2)
	for _, e := range fp.Elements {
		_, err := uuid.Parse(e.ID)
		assert.NoError(t, err, "element id %q should be server-assigned", e.ID)
		assert.True(t, e.IsVisible)
	}
	// default z-index appends in submission order
	assert.Equal(t, "wall", fp.Elements[0].ElementType)
	assert.Equal(t, 0, fp.Elements[0].ZIndex)
	assert.Equal(t, 1, fp.Elements[1].ZIndex)
	assert.Equal(t, 400.0, fp.Elements[0].Properties["x2"])
	assert.NotNil(t, fp.Elements[1].Properties)

	require.Len(t, fp.Racks, 2)
	r2 := fp.Racks[1]
	assert.Equal(t, "R2", r2.Name)
	assert.NotEqual(t, "temp-rack", r2.ID)
	assert.Equal(t, 42, r2.TotalU)
	assert.Equal(t, 90, r2.Rotation)
	assert.Equal(t, 1, r2.SortOrder)
	assert.NotNil(t, r2.Equipment)
}

func TestBulkUpdateIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mount(t, "relay", 1, 4)
	before := f.snapshot(t)
	events := f.events.count()

	t.Run("invalid rotation", func(t *testing.T) {
		_, err := f.svc.BulkUpdate(ctx, f.plan.ID, BulkUpdateInput{
			CanvasWidth: ptr(2000),
			Elements:    []ElementInput{{ElementType: "wall"}},
			Racks: []RackInput{
				{Name: "ok"},
				{Name: "bad", Rotation: ptr(45)},
			},
		}, actor)
		le := requireCode(t, err, CodeValidation)
		assert.Equal(t, "racks[1].rotation", le.Field)
	})

	t.Run("wrong vocabulary after earlier writes", func(t *testing.T) {
		_, err := f.svc.BulkUpdate(ctx, f.plan.ID, BulkUpdateInput{
			CanvasHeight:   ptr(900),
			Elements:       []ElementInput{{ElementType: "wall"}, {ElementType: "rect"}},
			DeletedRackIDs: []string{f.rack.ID},
		}, actor)
		le := requireCode(t, err, CodeValidation)
		assert.Equal(t, "elements[1].elementType", le.Field)
	})

	t.Run("capacity conflict", func(t *testing.T) {
		_, err := f.svc.BulkUpdate(ctx, f.plan.ID, BulkUpdateInput{
			Name:  ptr("renamed"),
			Racks: []RackInput{{ID: ptr(f.rack.ID), TotalU: ptr(3)}},
		}, actor)
		le := requireCode(t, err, CodeConflict)
		assert.Equal(t, "racks[0].totalU", le.Field)
		assert.Equal(t, f.rack.ID, le.ItemID)
	})

	assert.Equal(t, before, f.snapshot(t))
	assert.Equal(t, events, f.events.count())
}

func TestBulkUpdateShrinkAboveOccupants(t *testing.T) {
	f := newFixture(t)
	f.mount(t, "top", 31, 12)

	_, err := f.svc.BulkUpdate(context.Background(), f.plan.ID, BulkUpdateInput{
		Racks: []RackInput{{ID: ptr(f.rack.ID), TotalU: ptr(41)}},
	}, actor)
	requireCode(t, err, CodeConflict)

	fp, err := f.svc.BulkUpdate(context.Background(), f.plan.ID, BulkUpdateInput{
		Racks: []RackInput{{ID: ptr(f.rack.ID), TotalU: ptr(100)}},
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 100, fp.Racks[0].TotalU)

	fp, err = f.svc.BulkUpdate(context.Background(), f.plan.ID, BulkUpdateInput{
		Racks: []RackInput{{ID: ptr(f.rack.ID), TotalU: ptr(42)}},
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 42, fp.Racks[0].TotalU)
}

func TestBulkUpdateDeletesAreExplicitAndIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.mount(t, "relay", 1, 2)

	// omitting a rack from the payload does not delete it
	fp, err := f.svc.BulkUpdate(ctx, f.plan.ID, BulkUpdateInput{Elements: []ElementInput{{ElementType: "column"}}}, actor)
	require.NoError(t, err)
	require.Len(t, fp.Racks, 1)

	fp, err = f.svc.BulkUpdate(ctx, f.plan.ID, BulkUpdateInput{
		DeletedRackIDs:    []string{f.rack.ID},
		DeletedElementIDs: []string{fp.Elements[0].ID},
	}, actor)
	require.NoError(t, err)
	assert.Empty(t, fp.Racks)
	assert.Empty(t, fp.Elements)

	// the rack's equipment went with it
	_, err = f.svc.GetEquipment(ctx, e.ID)
	requireCode(t, err, CodeNotFound)

	before := f.snapshot(t)
	events := f.events.count()
	_, err = f.svc.BulkUpdate(ctx, f.plan.ID, BulkUpdateInput{
		DeletedRackIDs:    []string{f.rack.ID, uuid.NewString()},
		DeletedElementIDs: []string{"not-even-a-uuid"},
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, before, f.snapshot(t))
	assert.Equal(t, events, f.events.count())
}

func TestBulkUpdateIgnoresOtherPlansRacks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	floor2, err := f.svc.CreateFloor(ctx, f.floor.SubstationID, FloorInput{Name: ptr("First")}, actor)
	require.NoError(t, err)
	plan2, err := f.svc.CreateFloorPlan(ctx, floor2.ID, CreateFloorPlanInput{Name: "First plan"}, actor)
	require.NoError(t, err)

	// deleting a rack through another plan is a no-op
	_, err = f.svc.BulkUpdate(ctx, plan2.ID, BulkUpdateInput{DeletedRackIDs: []string{f.rack.ID}}, actor)
	require.NoError(t, err)
	require.Len(t, f.snapshot(t).Racks, 1)

	// and updating it through another plan creates a new rack there instead
	fp, err := f.svc.BulkUpdate(ctx, plan2.ID, BulkUpdateInput{Racks: []RackInput{{ID: ptr(f.rack.ID), Name: "copy"}}}, actor)
	require.NoError(t, err)
	require.Len(t, fp.Racks, 1)
	assert.NotEqual(t, f.rack.ID, fp.Racks[0].ID)
	assert.Equal(t, "R1", f.snapshot(t).Racks[0].Name)
}

func TestBulkUpdateRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mount(t, "relay", 1, 4)
	fp, err := f.svc.BulkUpdate(ctx, f.plan.ID, BulkUpdateInput{
		Elements: []ElementInput{
			{ElementType: "wall", Properties: json.RawMessage(`{"points":[0,0,100,0],"style":{"stroke":"#000"}}`)},
			{ElementType: "window", IsVisible: ptr(false), ZIndex: ptr(7)},
		},
		Racks: []RackInput{{Name: "R2", Width: ptr(60.0), Code: ptr("R-02")}},
	}, actor)
	require.NoError(t, err)
	events := f.events.count()

	again, err := f.svc.BulkUpdate(ctx, f.plan.ID, echo(t, fp), actor)
	require.NoError(t, err)
	assert.Equal(t, fp, again)
	assert.Equal(t, events, f.events.count(), "a no-op sync must not announce a change")
}

func TestBulkUpdateUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fp, err := f.svc.BulkUpdate(ctx, f.plan.ID, BulkUpdateInput{
		Elements: []ElementInput{{ElementType: "wall", Properties: json.RawMessage(`{"x":1}`)}},
	}, actor)
	require.NoError(t, err)
	wall := fp.Elements[0]

	fp, err = f.svc.BulkUpdate(ctx, f.plan.ID, BulkUpdateInput{
		Elements: []ElementInput{{ID: ptr(wall.ID), Properties: json.RawMessage(`{"x":2}`), IsVisible: ptr(false)}},
		Racks:    []RackInput{{ID: ptr(f.rack.ID), PositionX: ptr(120.0), Rotation: ptr(180)}},
	}, actor)
	require.NoError(t, err)

	require.Len(t, fp.Elements, 1)
	assert.Equal(t, wall.ID, fp.Elements[0].ID)
	assert.Equal(t, "wall", fp.Elements[0].ElementType)
	assert.Equal(t, 2.0, fp.Elements[0].Properties["x"])
	assert.False(t, fp.Elements[0].IsVisible)

	require.Len(t, fp.Racks, 1)
	assert.Equal(t, "R1", fp.Racks[0].Name)
	assert.Equal(t, 120.0, fp.Racks[0].PositionX)
	assert.Equal(t, 180, fp.Racks[0].Rotation)
}

func TestBulkUpdateUnknownPlan(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.BulkUpdate(context.Background(), uuid.NewString(), BulkUpdateInput{}, actor)
	requireCode(t, err, CodeNotFound)

	_, err = f.svc.BulkUpdate(context.Background(), "plan-1", BulkUpdateInput{}, actor)
	requireCode(t, err, CodeNotFound)
}

func TestBulkUpdateSerializesPerPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.BulkUpdate(ctx, f.plan.ID, BulkUpdateInput{
				Racks: []RackInput{{Name: fmt.Sprintf("W%d", i)}},
			}, actor)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	fp := f.snapshot(t)
	require.Len(t, fp.Racks, writers+1)
	orders := make([]int, 0, len(fp.Racks))
	for _, rk := range fp.Racks {
		orders = append(orders, rk.SortOrder)
	}
	sort.Ints(orders)
	for i, o := range orders {
		assert.Equal(t, i, o, "each writer appended after the previous one")
	}
}

func TestBulkUpdateTimeoutRollsBack(t *testing.T) {
	f := newFixture(t, WithTimeout(20*time.Millisecond))
	ctx := context.Background()

	// hold the plan lock from a second transaction until the first gives up
	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = f.st.Tx(ctx, func(tx store.Tx) error {
			_, err := tx.LockFloorPlan(f.plan.ID)
			close(held)
			<-done
			return err
		})
	}()
	<-held

	_, err := f.svc.BulkUpdate(ctx, f.plan.ID, BulkUpdateInput{CanvasWidth: ptr(3000)}, actor)
	close(done)
	require.Error(t, err)
	_, isLayout := AsError(err)
	assert.False(t, isLayout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1200, f.snapshot(t).CanvasWidth)
}

func TestFloorPlanCachedAndInvalidated(t *testing.T) {
	snaps := cache.NewSnapshots(cache.NewMemoryKV(), time.Minute, nil)
	f := newFixture(t, WithCache(snaps))
	ctx := context.Background()

	fp, err := f.svc.GetFloorPlan(ctx, f.floor.ID)
	require.NoError(t, err)
	_, cached := snaps.Get(ctx, f.floor.ID)
	require.True(t, cached)

	_, err = f.svc.BulkUpdate(ctx, fp.ID, BulkUpdateInput{Name: ptr("Renamed")}, actor)
	require.NoError(t, err)
	_, cached = snaps.Get(ctx, f.floor.ID)
	assert.False(t, cached)

	fp, err = f.svc.GetFloorPlan(ctx, f.floor.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fp.Name)
}

// racingStore runs after once, right after the next transaction ends
type racingStore struct {
	store.Store
	after func()
}

func (r *racingStore) Tx(ctx context.Context, fn func(tx store.Tx) error) error {
	err := r.Store.Tx(ctx, fn)
	if after := r.after; after != nil {
		r.after = nil
		after()
	}
	return err
}

func TestCacheFillRacingACommit(t *testing.T) {
	ctx := context.Background()
	snaps := cache.NewSnapshots(cache.NewMemoryKV(), time.Minute, nil)
	st := &racingStore{Store: store.NewMemoryStore()}
	svc := NewService(st, nil, WithCache(snaps))

	sub, err := svc.CreateSubstation(ctx, SubstationInput{Name: ptr("North"), Code: ptr("SUB-N")}, actor)
	require.NoError(t, err)
	floor, err := svc.CreateFloor(ctx, sub.ID, FloorInput{Name: ptr("Ground")}, actor)
	require.NoError(t, err)
	plan, err := svc.CreateFloorPlan(ctx, floor.ID, CreateFloorPlanInput{Name: "Ground plan"}, actor)
	require.NoError(t, err)

	// the write commits after the read transaction but before the cache fill
	st.after = func() {
		_, err := svc.BulkUpdate(ctx, plan.ID, BulkUpdateInput{CanvasWidth: ptr(3000)}, actor)
		require.NoError(t, err)
	}
	fp, err := svc.GetFloorPlan(ctx, floor.ID)
	require.NoError(t, err)
	assert.Equal(t, 1200, fp.CanvasWidth)

	fp, err = svc.GetFloorPlan(ctx, floor.ID)
	require.NoError(t, err)
	assert.Equal(t, 3000, fp.CanvasWidth)

	// and the fresh read is cached
	cached, ok := snaps.Get(ctx, floor.ID)
	require.True(t, ok)
	assert.Equal(t, 3000, cached.CanvasWidth)
}
