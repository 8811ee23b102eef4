package layout

import (
	"context"
	"reflect"

	"github.com/xelth-com/facilitymap/internal/models"
	"github.com/xelth-com/facilitymap/internal/store"
	"go.uber.org/zap"
)

// Standalone element mutation validates against the shape vocabulary
// (line, rect, circle, door, window, text), not the structural one used by
// bulk updates.

// CreateElement adds one element to a floor plan
func (s *Service) CreateElement(ctx context.Context, floorPlanID string, in ElementInput, actor string) (*models.Element, error) {
	if err := checkID("floor plan", floorPlanID); err != nil {
		return nil, err
	}
	if err := ValidateElementType("elementType", VocabularyShape, in.ElementType); err != nil {
		return nil, err
	}
	if err := ValidateOrder("zIndex", in.ZIndex); err != nil {
		return nil, err
	}
	props, err := ParseProperties("properties", in.Properties)
	if err != nil {
		return nil, err
	}

	var (
		out     *models.Element
		floorID string
	)
	err = s.tx(ctx, "create_element", func(tx store.Tx) error {
		plan, err := tx.LockFloorPlan(floorPlanID)
		if err != nil {
			return notFound(err, "floor plan", floorPlanID)
		}
		floorID = plan.FloorID
		siblings, err := tx.ListElements(floorPlanID)
		if err != nil {
			return err
		}
		e := &models.Element{
			ID:          s.ids.Mint(),
			FloorPlanID: floorPlanID,
			ElementType: in.ElementType,
			Properties:  props,
			ZIndex:      newOrderSeq(elementZ(siblings)).take(in.ZIndex),
			IsVisible:   deref(in.IsVisible, true),
		}
		if err := tx.CreateElement(e); err != nil {
			return err
		}
		out = e
		return touch(tx, plan, actor)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, ChangeUpdated, floorPlanID, floorID, actor)
	s.log.Info("element created",
		zap.String("element_id", out.ID),
		zap.String("floor_plan_id", floorPlanID),
		zap.String("actor", actor))
	return out, nil
}

// lockElement resolves the element's plan, locks it and re-reads the element
func lockElement(tx store.Tx, id string) (*models.Element, *models.FloorPlan, error) {
	e, err := tx.GetElement(id)
	if err != nil {
		return nil, nil, notFound(err, "element", id)
	}
	plan, err := tx.LockFloorPlan(e.FloorPlanID)
	if err != nil {
		return nil, nil, notFound(err, "element", id)
	}
	e, err = tx.GetElement(id)
	if err != nil {
		return nil, nil, notFound(err, "element", id)
	}
	return e, plan, nil
}

// UpdateElement patches one element
func (s *Service) UpdateElement(ctx context.Context, id string, in ElementInput, actor string) (*models.Element, error) {
	if err := checkID("element", id); err != nil {
		return nil, err
	}
	if in.ElementType != "" {
		if err := ValidateElementType("elementType", VocabularyShape, in.ElementType); err != nil {
			return nil, err
		}
	}
	if err := ValidateOrder("zIndex", in.ZIndex); err != nil {
		return nil, err
	}

	var (
		out     *models.Element
		plan    *models.FloorPlan
		changed bool
	)
	err := s.tx(ctx, "update_element", func(tx store.Tx) error {
		cur, p, err := lockElement(tx, id)
		if err != nil {
			return err
		}
		plan = p
		next := *cur
		if in.ElementType != "" {
			next.ElementType = in.ElementType
		}
		if in.Properties != nil {
			props, err := ParseProperties("properties", in.Properties)
			if err != nil {
				return withItem(err, "properties", id)
			}
			next.Properties = props
		}
		if in.ZIndex != nil {
			next.ZIndex = *in.ZIndex
		}
		if in.IsVisible != nil {
			next.IsVisible = *in.IsVisible
		}
		out = &next
		if reflect.DeepEqual(*cur, next) {
			return nil
		}
		changed = true
		if err := tx.UpdateElement(out); err != nil {
			return err
		}
		return touch(tx, plan, actor)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.committed(ctx, ChangeUpdated, plan.ID, plan.FloorID, actor)
		s.log.Info("element updated", zap.String("element_id", id), zap.String("actor", actor))
	}
	return out, nil
}

// DeleteElement removes one element
func (s *Service) DeleteElement(ctx context.Context, id, actor string) error {
	if err := checkID("element", id); err != nil {
		return err
	}
	var plan *models.FloorPlan
	err := s.tx(ctx, "delete_element", func(tx store.Tx) error {
		_, p, err := lockElement(tx, id)
		if err != nil {
			return err
		}
		plan = p
		if err := tx.DeleteElement(id); err != nil {
			return notFound(err, "element", id)
		}
		return touch(tx, plan, actor)
	})
	if err != nil {
		return err
	}

	s.committed(ctx, ChangeUpdated, plan.ID, plan.FloorID, actor)
	s.log.Info("element deleted", zap.String("element_id", id), zap.String("actor", actor))
	return nil
}
