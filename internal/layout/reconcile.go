package layout

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/xelth-com/facilitymap/internal/models"
	"github.com/xelth-com/facilitymap/internal/store"
	"go.uber.org/zap"
)

// ReconcileStats counts what one bulk update wrote
type ReconcileStats struct {
	ElementsCreated int
	ElementsUpdated int
	ElementsDeleted int
	RacksCreated    int
	RacksUpdated    int
	RacksDeleted    int
	CanvasChanged   bool
}

func (st ReconcileStats) changed() bool {
	return st.CanvasChanged ||
		st.ElementsCreated+st.ElementsUpdated+st.ElementsDeleted+
			st.RacksCreated+st.RacksUpdated+st.RacksDeleted > 0
}

// reconciler applies one bulk-update payload to a locked floor plan
type reconciler struct {
	tx    store.Tx
	ids   Resolver
	plan  *models.FloorPlan
	stats ReconcileStats
}

// BulkUpdate reconciles the client's snapshot of a floor plan against the
// stored one: canvas fields are patched, submitted elements and racks are
// upserted by id, listed ids are deleted. Either every change commits or none
// does. Ids in the delete lists that the plan does not own are ignored.
func (s *Service) BulkUpdate(ctx context.Context, floorPlanID string, in BulkUpdateInput, actor string) (*models.FloorPlan, error) {
	if err := checkID("floor plan", floorPlanID); err != nil {
		return nil, err
	}
	if err := validateBulk(in); err != nil {
		s.log.Warn("bulk update rejected", zap.String("floor_plan_id", floorPlanID), zap.Error(err))
		return nil, err
	}

	var (
		snap  *models.FloorPlan
		stats ReconcileStats
	)
	err := s.tx(ctx, "bulk_update", func(tx store.Tx) error {
		plan, err := tx.LockFloorPlan(floorPlanID)
		if err != nil {
			return notFound(err, "floor plan", floorPlanID)
		}

		r := &reconciler{tx: tx, ids: s.ids, plan: plan}
		if err := r.run(in); err != nil {
			return err
		}
		if r.stats.changed() {
			if err := touch(tx, plan, actor); err != nil {
				return err
			}
		}
		stats = r.stats
		snap, err = loadSnapshot(tx, plan)
		return err
	})
	if err != nil {
		return nil, err
	}

	if stats.changed() {
		s.committed(ctx, ChangeUpdated, snap.ID, snap.FloorID, actor)
	}
	s.log.Info("floor plan reconciled",
		zap.String("floor_plan_id", floorPlanID),
		zap.String("actor", actor),
		zap.Bool("canvas_changed", stats.CanvasChanged),
		zap.Int("elements_created", stats.ElementsCreated),
		zap.Int("elements_updated", stats.ElementsUpdated),
		zap.Int("elements_deleted", stats.ElementsDeleted),
		zap.Int("racks_created", stats.RacksCreated),
		zap.Int("racks_updated", stats.RacksUpdated),
		zap.Int("racks_deleted", stats.RacksDeleted))
	return snap, nil
}

// validateBulk runs the stateless checks before the lock is taken.
// Element types are checked later: only creates and type changes need them.
func validateBulk(in BulkUpdateInput) error {
	if in.Name != nil {
		if err := ValidateName("name", *in.Name); err != nil {
			return err
		}
	}
	if err := ValidateCanvas(in.CanvasWidth, in.CanvasHeight, in.GridSize, in.BackgroundColor); err != nil {
		return err
	}
	for i, e := range in.Elements {
		field := fmt.Sprintf("elements[%d]", i)
		if err := ValidateOrder(field+".zIndex", e.ZIndex); err != nil {
			return withItem(err, field, deref(e.ID, ""))
		}
		if e.Properties != nil {
			if _, err := ParseProperties(field+".properties", e.Properties); err != nil {
				return withItem(err, field, deref(e.ID, ""))
			}
		}
	}
	for i, rk := range in.Racks {
		field := fmt.Sprintf("racks[%d]", i)
		if err := ValidateRack(field, rk, false); err != nil {
			return withItem(err, field, deref(rk.ID, ""))
		}
	}
	return nil
}

func (r *reconciler) run(in BulkUpdateInput) error {
	r.applyCanvas(in)

	elements, err := r.tx.ListElements(r.plan.ID)
	if err != nil {
		return err
	}
	racks, err := r.tx.ListRacks(r.plan.ID)
	if err != nil {
		return err
	}
	elementMembers := Members(elements, func(e models.Element) string { return e.ID })
	rackMembers := Members(racks, func(rk models.Rack) string { return rk.ID })

	if err := r.upsertElements(in.Elements, elements, elementMembers); err != nil {
		return err
	}
	if err := r.upsertRacks(in.Racks, racks, rackMembers); err != nil {
		return err
	}

	for _, id := range elementMembers.Deletable(in.DeletedElementIDs) {
		if err := r.tx.DeleteElement(id); err != nil {
			return err
		}
		r.stats.ElementsDeleted++
	}
	for _, id := range rackMembers.Deletable(in.DeletedRackIDs) {
		if err := r.tx.DeleteRack(id); err != nil {
			return err
		}
		r.stats.RacksDeleted++
	}
	return nil
}

func (r *reconciler) applyCanvas(in BulkUpdateInput) {
	p := r.plan
	set := func(dst *int, v *int) {
		if v != nil && *dst != *v {
			*dst = *v
			r.stats.CanvasChanged = true
		}
	}
	set(&p.CanvasWidth, in.CanvasWidth)
	set(&p.CanvasHeight, in.CanvasHeight)
	set(&p.GridSize, in.GridSize)
	if in.BackgroundColor != nil && p.BackgroundColor != *in.BackgroundColor {
		p.BackgroundColor = *in.BackgroundColor
		r.stats.CanvasChanged = true
	}
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != p.Name {
			p.Name = name
			r.stats.CanvasChanged = true
		}
	}
}

func (r *reconciler) upsertElements(items []ElementInput, current []models.Element, members MemberSet) error {
	byID := make(map[string]models.Element, len(current))
	for _, e := range current {
		byID[e.ID] = e
	}
	z := newOrderSeq(elementZ(current))

	for i, in := range items {
		field := fmt.Sprintf("elements[%d]", i)
		res := r.ids.Resolve(members, in.ID)

		if res.Action == ActionCreate {
			if err := ValidateElementType(field+".elementType", VocabularyStructural, in.ElementType); err != nil {
				return err
			}
			props, err := ParseProperties(field+".properties", in.Properties)
			if err != nil {
				return err
			}
			e := &models.Element{
				ID:          res.ID,
				FloorPlanID: r.plan.ID,
				ElementType: in.ElementType,
				Properties:  props,
				ZIndex:      z.take(in.ZIndex),
				IsVisible:   deref(in.IsVisible, true),
			}
			if err := r.tx.CreateElement(e); err != nil {
				return err
			}
			r.stats.ElementsCreated++
			continue
		}

		cur := byID[res.ID]
		next := cur
		if in.ElementType != "" && in.ElementType != cur.ElementType {
			if err := ValidateElementType(field+".elementType", VocabularyStructural, in.ElementType); err != nil {
				return withItem(err, field, res.ID)
			}
			next.ElementType = in.ElementType
		}
		if in.Properties != nil {
			props, err := ParseProperties(field+".properties", in.Properties)
			if err != nil {
				return withItem(err, field, res.ID)
			}
			next.Properties = props
		}
		if in.ZIndex != nil {
			next.ZIndex = *in.ZIndex
			z.seen(next.ZIndex)
		}
		if in.IsVisible != nil {
			next.IsVisible = *in.IsVisible
		}
		if reflect.DeepEqual(cur, next) {
			continue
		}
		if err := r.tx.UpdateElement(&next); err != nil {
			return err
		}
		byID[res.ID] = next
		r.stats.ElementsUpdated++
	}
	return nil
}

func (r *reconciler) upsertRacks(items []RackInput, current []models.Rack, members MemberSet) error {
	byID := make(map[string]models.Rack, len(current))
	for _, rk := range current {
		byID[rk.ID] = rk
	}
	seq := newOrderSeq(rackOrders(current))

	for i, in := range items {
		field := fmt.Sprintf("racks[%d]", i)
		res := r.ids.Resolve(members, in.ID)

		if res.Action == ActionCreate {
			if err := ValidateRack(field, in, true); err != nil {
				return err
			}
			rk := &models.Rack{
				ID:          res.ID,
				FloorPlanID: r.plan.ID,
				Name:        strings.TrimSpace(in.Name),
				Code:        in.Code,
				Description: in.Description,
				PhotoURL:    in.PhotoURL,
				PositionX:   deref(in.PositionX, 0),
				PositionY:   deref(in.PositionY, 0),
				Width:       in.Width,
				Height:      in.Height,
				Rotation:    deref(in.Rotation, 0),
				TotalU:      deref(in.TotalU, models.DefaultRackUnits),
				SortOrder:   seq.take(in.SortOrder),
			}
			// A new rack has no occupants yet, so any valid capacity fits.
			if err := r.tx.CreateRack(rk); err != nil {
				return err
			}
			r.stats.RacksCreated++
			continue
		}

		cur := byID[res.ID]
		next := applyRack(cur, in)
		if in.SortOrder != nil {
			seq.seen(next.SortOrder)
		}
		if next.TotalU < cur.TotalU {
			occupants, err := r.tx.ListEquipment(cur.ID)
			if err != nil {
				return err
			}
			if err := CheckCapacity(next.TotalU, OccupantsOf(occupants)); err != nil {
				return withItem(err, field+".totalU", cur.ID)
			}
		}
		if reflect.DeepEqual(cur, next) {
			continue
		}
		if err := r.tx.UpdateRack(&next); err != nil {
			return err
		}
		byID[res.ID] = next
		r.stats.RacksUpdated++
	}
	return nil
}

// applyRack patches the fields present in in onto a copy of cur
func applyRack(cur models.Rack, in RackInput) models.Rack {
	next := cur
	if name := strings.TrimSpace(in.Name); name != "" {
		next.Name = name
	}
	if in.Code != nil {
		next.Code = in.Code
	}
	if in.Description != nil {
		next.Description = in.Description
	}
	if in.PhotoURL != nil {
		next.PhotoURL = in.PhotoURL
	}
	if in.PositionX != nil {
		next.PositionX = *in.PositionX
	}
	if in.PositionY != nil {
		next.PositionY = *in.PositionY
	}
	if in.Width != nil {
		next.Width = in.Width
	}
	if in.Height != nil {
		next.Height = in.Height
	}
	if in.Rotation != nil {
		next.Rotation = *in.Rotation
	}
	if in.TotalU != nil {
		next.TotalU = *in.TotalU
	}
	if in.SortOrder != nil {
		next.SortOrder = *in.SortOrder
	}
	return next
}
