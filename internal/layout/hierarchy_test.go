package layout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSubstation(ctx, SubstationInput{Name: ptr("Dup"), Code: ptr("SUB-N")}, actor)
	le := requireCode(t, err, CodeConflict)
	assert.Equal(t, "SUB-N", le.Details["code"])

	_, err = f.svc.CreateSubstation(ctx, SubstationInput{Name: ptr("Lower")}, actor)
	assert.Equal(t, "code", requireCode(t, err, CodeValidation).Field)

	south, err := f.svc.CreateSubstation(ctx, SubstationInput{Name: ptr("South"), Code: ptr("SUB-S"), IsActive: ptr(false)}, actor)
	require.NoError(t, err)
	assert.False(t, south.IsActive)
	assert.Equal(t, 1, south.SortOrder)

	// renaming onto a taken code is caught at commit
	_, err = f.svc.UpdateSubstation(ctx, south.ID, SubstationInput{Code: ptr("SUB-N")}, actor)
	requireCode(t, err, CodeConflict)

	south, err = f.svc.UpdateSubstation(ctx, south.ID, SubstationInput{SortOrder: ptr(0), Address: ptr("Quay 4")}, actor)
	require.NoError(t, err)
	assert.Equal(t, "SUB-S", south.Code)

	all, err := f.svc.ListSubstations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	sub, err := f.svc.GetSubstation(ctx, f.floor.SubstationID)
	require.NoError(t, err)
	require.Len(t, sub.Floors, 1)
	assert.Equal(t, f.floor.ID, sub.Floors[0].ID)
}

func TestDeleteSubstationCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.mount(t, "relay", 1, 1)

	// a second floor without a plan publishes nothing
	_, err := f.svc.CreateFloor(ctx, f.floor.SubstationID, FloorInput{Name: ptr("Roof")}, actor)
	require.NoError(t, err)

	n := f.events.count()
	require.NoError(t, f.svc.DeleteSubstation(ctx, f.floor.SubstationID, actor))
	require.Equal(t, n+1, f.events.count())
	ev := f.events.events[n]
	assert.Equal(t, ChangeDeleted, ev.Kind)
	assert.Equal(t, f.plan.ID, ev.FloorPlanID)
	assert.Equal(t, f.floor.ID, ev.FloorID)
	assert.Equal(t, actor, ev.ActorID)

	_, err = f.svc.GetFloor(ctx, f.floor.ID)
	requireCode(t, err, CodeNotFound)
	_, err = f.svc.GetFloorPlanByID(ctx, f.plan.ID)
	requireCode(t, err, CodeNotFound)
	_, err = f.svc.GetRack(ctx, f.rack.ID)
	requireCode(t, err, CodeNotFound)
	_, err = f.svc.GetEquipment(ctx, e.ID)
	requireCode(t, err, CodeNotFound)

	requireCode(t, f.svc.DeleteSubstation(ctx, f.floor.SubstationID, actor), CodeNotFound)
}

func TestFloors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateFloor(ctx, uuid.NewString(), FloorInput{Name: ptr("orphan")}, actor)
	requireCode(t, err, CodeNotFound)
	_, err = f.svc.CreateFloor(ctx, f.floor.SubstationID, FloorInput{}, actor)
	requireCode(t, err, CodeValidation)

	basement, err := f.svc.CreateFloor(ctx, f.floor.SubstationID, FloorInput{Name: ptr("Basement"), FloorNumber: ptr(-1), SortOrder: ptr(0)}, actor)
	require.NoError(t, err)
	assert.True(t, basement.IsActive)

	floors, err := f.svc.ListFloors(ctx, f.floor.SubstationID)
	require.NoError(t, err)
	require.Len(t, floors, 2)

	basement, err = f.svc.UpdateFloor(ctx, basement.ID, FloorInput{Name: ptr("  Cellar ")}, actor)
	require.NoError(t, err)
	assert.Equal(t, "Cellar", basement.Name)
	assert.Equal(t, -1, *basement.FloorNumber)

	// deleting a floor without a plan publishes nothing
	n := f.events.count()
	require.NoError(t, f.svc.DeleteFloor(ctx, basement.ID, actor))
	assert.Equal(t, n, f.events.count())
	requireCode(t, f.svc.DeleteFloor(ctx, basement.ID, actor), CodeNotFound)

	require.NoError(t, f.svc.DeleteFloor(ctx, f.floor.ID, actor))
	require.Equal(t, n+1, f.events.count())
	assert.Equal(t, ChangeDeleted, f.events.events[n].Kind)
	assert.Equal(t, f.plan.ID, f.events.events[n].FloorPlanID)
	_, err = f.svc.GetFloorPlan(ctx, f.floor.ID)
	requireCode(t, err, CodeNotFound)
	_, err = f.svc.GetFloorPlanByID(ctx, f.plan.ID)
	requireCode(t, err, CodeNotFound)
}

func TestFloorPlanOnePerFloor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.snapshot(t)

	_, err := f.svc.CreateFloorPlan(ctx, f.floor.ID, CreateFloorPlanInput{Name: "second"}, actor)
	le := requireCode(t, err, CodeConflict)
	assert.Equal(t, f.plan.ID, le.Details["floorPlanId"])

	fp, err := f.svc.GetFloorPlan(ctx, f.floor.ID)
	require.NoError(t, err)
	assert.Equal(t, before, fp)
}

func TestFloorPlanLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	floor, err := f.svc.CreateFloor(ctx, f.floor.SubstationID, FloorInput{Name: ptr("Roof")}, actor)
	require.NoError(t, err)

	_, err = f.svc.GetFloorPlan(ctx, floor.ID)
	le := requireCode(t, err, CodeNotFound)
	assert.Equal(t, "floor has no floor plan", le.Message)

	_, err = f.svc.CreateFloorPlan(ctx, floor.ID, CreateFloorPlanInput{Name: "Roof", GridSize: ptr(1)}, actor)
	assert.Equal(t, "gridSize", requireCode(t, err, CodeValidation).Field)

	fp, err := f.svc.CreateFloorPlan(ctx, floor.ID, CreateFloorPlanInput{Name: "Roof", BackgroundColor: ptr("#000")}, actor)
	require.NoError(t, err)
	assert.Equal(t, 1200, fp.CanvasWidth)
	assert.Equal(t, 800, fp.CanvasHeight)
	assert.Equal(t, 20, fp.GridSize)
	assert.Equal(t, "#000", fp.BackgroundColor)
	assert.NotNil(t, fp.Elements)
	assert.NotNil(t, fp.Racks)

	n := f.events.count()
	require.NoError(t, f.svc.DeleteFloorPlan(ctx, fp.ID, actor))
	require.Equal(t, n+1, f.events.count())
	assert.Equal(t, ChangeDeleted, f.events.events[n].Kind)
	assert.Equal(t, floor.ID, f.events.events[n].FloorID)

	requireCode(t, f.svc.DeleteFloorPlan(ctx, fp.ID, actor), CodeNotFound)

	// the floor can take a new plan afterwards
	_, err = f.svc.CreateFloorPlan(ctx, floor.ID, CreateFloorPlanInput{Name: "Roof v2"}, actor)
	require.NoError(t, err)
}
