package layout

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xelth-com/facilitymap/internal/models"
	"github.com/xelth-com/facilitymap/internal/store"
)

const actor = "6b0d3c1e-0000-4000-8000-000000000001"

func ptr[T any](v T) *T { return &v }

// recorder captures change events
type recorder struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (r *recorder) FloorPlanChanged(ev ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// fixture is a substation with one floor, its plan and one 42U rack
type fixture struct {
	svc    *Service
	st     *store.MemoryStore
	events *recorder
	floor  *models.Floor
	plan   *models.FloorPlan
	rack   models.Rack
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	rec := &recorder{}
	svc := NewService(st, nil, append([]Option{WithNotifier(rec)}, opts...)...)

	sub, err := svc.CreateSubstation(ctx, SubstationInput{Name: ptr("North"), Code: ptr("SUB-N")}, actor)
	require.NoError(t, err)
	floor, err := svc.CreateFloor(ctx, sub.ID, FloorInput{Name: ptr("Ground")}, actor)
	require.NoError(t, err)
	plan, err := svc.CreateFloorPlan(ctx, floor.ID, CreateFloorPlanInput{Name: "Ground plan"}, actor)
	require.NoError(t, err)
	plan, err = svc.BulkUpdate(ctx, plan.ID, BulkUpdateInput{
		Racks: []RackInput{{Name: "R1", TotalU: ptr(42)}},
	}, actor)
	require.NoError(t, err)
	require.Len(t, plan.Racks, 1)

	return &fixture{svc: svc, st: st, events: rec, floor: floor, plan: plan, rack: plan.Racks[0]}
}

func (f *fixture) mount(t *testing.T, name string, startU, heightU int) *models.Equipment {
	t.Helper()
	e, err := f.svc.CreateEquipment(context.Background(), f.rack.ID, EquipmentInput{
		Name:    ptr(name),
		StartU:  ptr(startU),
		HeightU: ptr(heightU),
	}, actor)
	require.NoError(t, err)
	return e
}

func (f *fixture) snapshot(t *testing.T) *models.FloorPlan {
	t.Helper()
	fp, err := f.svc.GetFloorPlanByID(context.Background(), f.plan.ID)
	require.NoError(t, err)
	return fp
}

// requireCode asserts err is a layout error with the given code
func requireCode(t *testing.T, err error, code Code) *Error {
	t.Helper()
	require.Error(t, err)
	le, ok := AsError(err)
	require.True(t, ok, "expected layout error, got %v", err)
	require.Equal(t, code, le.Code, le.Error())
	return le
}

// echo turns a snapshot back into the bulk payload a client would send
func echo(t *testing.T, fp *models.FloorPlan) BulkUpdateInput {
	t.Helper()
	in := BulkUpdateInput{
		Name:            ptr(fp.Name),
		CanvasWidth:     ptr(fp.CanvasWidth),
		CanvasHeight:    ptr(fp.CanvasHeight),
		GridSize:        ptr(fp.GridSize),
		BackgroundColor: ptr(fp.BackgroundColor),
	}
	for _, e := range fp.Elements {
		raw, err := json.Marshal(e.Properties)
		require.NoError(t, err)
		in.Elements = append(in.Elements, ElementInput{
			ID:          ptr(e.ID),
			ElementType: e.ElementType,
			Properties:  raw,
			ZIndex:      ptr(e.ZIndex),
			IsVisible:   ptr(e.IsVisible),
		})
	}
	for _, rk := range fp.Racks {
		in.Racks = append(in.Racks, RackInput{
			ID:          ptr(rk.ID),
			Name:        rk.Name,
			Code:        rk.Code,
			Description: rk.Description,
			PhotoURL:    rk.PhotoURL,
			PositionX:   ptr(rk.PositionX),
			PositionY:   ptr(rk.PositionY),
			Width:       rk.Width,
			Height:      rk.Height,
			Rotation:    ptr(rk.Rotation),
			TotalU:      ptr(rk.TotalU),
			SortOrder:   ptr(rk.SortOrder),
		})
	}
	return in
}
