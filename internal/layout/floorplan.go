package layout

import (
	"context"
	"errors"
	"strings"

	"github.com/xelth-com/facilitymap/internal/models"
	"github.com/xelth-com/facilitymap/internal/store"
	"go.uber.org/zap"
)

// loadSnapshot reloads plan's children into canonical order: elements by
// z-index, racks/equipment/ports by sort order, ties by creation then id.
// Child slices are never nil so an empty plan serialises as [].
func loadSnapshot(tx store.Tx, plan *models.FloorPlan) (*models.FloorPlan, error) {
	snap := *plan

	elements, err := tx.ListElements(plan.ID)
	if err != nil {
		return nil, err
	}
	SortElements(elements)
	snap.Elements = append(make([]models.Element, 0, len(elements)), elements...)

	racks, err := tx.ListRacks(plan.ID)
	if err != nil {
		return nil, err
	}
	SortRacks(racks)
	snap.Racks = make([]models.Rack, 0, len(racks))
	for _, r := range racks {
		full, err := loadRack(tx, r)
		if err != nil {
			return nil, err
		}
		snap.Racks = append(snap.Racks, *full)
	}
	return &snap, nil
}

func loadRack(tx store.Tx, r models.Rack) (*models.Rack, error) {
	items, err := tx.ListEquipment(r.ID)
	if err != nil {
		return nil, err
	}
	SortEquipment(items)
	r.Equipment = make([]models.Equipment, 0, len(items))
	for _, e := range items {
		full, err := loadEquipment(tx, e)
		if err != nil {
			return nil, err
		}
		r.Equipment = append(r.Equipment, *full)
	}
	return &r, nil
}

func loadEquipment(tx store.Tx, e models.Equipment) (*models.Equipment, error) {
	ports, err := tx.ListPorts(e.ID)
	if err != nil {
		return nil, err
	}
	SortPorts(ports)
	e.Ports = append(make([]models.Port, 0, len(ports)), ports...)
	return &e, nil
}

// GetFloorPlan returns the snapshot of the plan owned by floorID
func (s *Service) GetFloorPlan(ctx context.Context, floorID string) (*models.FloorPlan, error) {
	if err := checkID("floor", floorID); err != nil {
		return nil, err
	}
	if fp, ok := s.cache.Get(ctx, floorID); ok {
		return fp, nil
	}
	gen, cacheable := s.cache.Generation(ctx, floorID)

	var snap *models.FloorPlan
	err := s.tx(ctx, "get_floor_plan", func(tx store.Tx) error {
		if _, err := tx.GetFloor(floorID); err != nil {
			return notFound(err, "floor", floorID)
		}
		plan, err := tx.GetFloorPlanByFloor(floorID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return &Error{Code: CodeNotFound, Message: "floor has no floor plan", ItemID: floorID}
			}
			return err
		}
		snap, err = loadSnapshot(tx, plan)
		return err
	})
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.cache.Set(ctx, floorID, gen, snap)
	}
	return snap, nil
}

// GetFloorPlanByID returns the snapshot of a plan by its own id
func (s *Service) GetFloorPlanByID(ctx context.Context, id string) (*models.FloorPlan, error) {
	if err := checkID("floor plan", id); err != nil {
		return nil, err
	}
	var snap *models.FloorPlan
	err := s.tx(ctx, "get_floor_plan", func(tx store.Tx) error {
		plan, err := tx.GetFloorPlan(id)
		if err != nil {
			return notFound(err, "floor plan", id)
		}
		snap, err = loadSnapshot(tx, plan)
		return err
	})
	return snap, err
}

// CreateFloorPlan gives floorID its canvas. A floor owns at most one plan.
func (s *Service) CreateFloorPlan(ctx context.Context, floorID string, in CreateFloorPlanInput, actor string) (*models.FloorPlan, error) {
	if err := checkID("floor", floorID); err != nil {
		return nil, err
	}
	if err := ValidateName("name", in.Name); err != nil {
		return nil, err
	}
	if err := ValidateCanvas(in.CanvasWidth, in.CanvasHeight, in.GridSize, in.BackgroundColor); err != nil {
		return nil, err
	}

	var snap *models.FloorPlan
	err := s.tx(ctx, "create_floor_plan", func(tx store.Tx) error {
		if _, err := tx.GetFloor(floorID); err != nil {
			return notFound(err, "floor", floorID)
		}
		if existing, err := tx.GetFloorPlanByFloor(floorID); err == nil {
			return Conflict("floor already has a floor plan", map[string]any{
				"floorId":     floorID,
				"floorPlanId": existing.ID,
			})
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		plan := &models.FloorPlan{
			ID:              s.ids.Mint(),
			FloorID:         floorID,
			Name:            strings.TrimSpace(in.Name),
			CanvasWidth:     deref(in.CanvasWidth, models.DefaultCanvasWidth),
			CanvasHeight:    deref(in.CanvasHeight, models.DefaultCanvasHeight),
			GridSize:        deref(in.GridSize, models.DefaultGridSize),
			BackgroundColor: deref(in.BackgroundColor, models.DefaultBackgroundColor),
		}
		if actor != "" {
			plan.UpdatedBy = &actor
		}
		if err := tx.CreateFloorPlan(plan); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return Conflict("floor already has a floor plan", map[string]any{"floorId": floorID})
			}
			return err
		}
		var err error
		snap, err = loadSnapshot(tx, plan)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, ChangeUpdated, snap.ID, floorID, actor)
	s.log.Info("floor plan created",
		zap.String("floor_plan_id", snap.ID),
		zap.String("floor_id", floorID),
		zap.String("actor", actor))
	return snap, nil
}

// DeleteFloorPlan removes the plan with its elements, racks, equipment and ports
func (s *Service) DeleteFloorPlan(ctx context.Context, id, actor string) error {
	if err := checkID("floor plan", id); err != nil {
		return err
	}
	var floorID string
	err := s.tx(ctx, "delete_floor_plan", func(tx store.Tx) error {
		plan, err := tx.LockFloorPlan(id)
		if err != nil {
			return notFound(err, "floor plan", id)
		}
		floorID = plan.FloorID
		return notFound(tx.DeleteFloorPlan(id), "floor plan", id)
	})
	if err != nil {
		return err
	}

	s.committed(ctx, ChangeDeleted, id, floorID, actor)
	s.log.Info("floor plan deleted", zap.String("floor_plan_id", id), zap.String("actor", actor))
	return nil
}
