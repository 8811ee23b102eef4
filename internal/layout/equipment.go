package layout

import (
	"context"
	"reflect"
	"strings"

	"github.com/xelth-com/facilitymap/internal/models"
	"github.com/xelth-com/facilitymap/internal/store"
	"go.uber.org/zap"
)

// lockRack locks the floor plan owning rackID and returns both, re-reading
// the rack once the lock is held
func lockRack(tx store.Tx, rackID string) (*models.Rack, *models.FloorPlan, error) {
	rk, err := tx.GetRack(rackID)
	if err != nil {
		return nil, nil, notFound(err, "rack", rackID)
	}
	plan, err := tx.LockFloorPlan(rk.FloorPlanID)
	if err != nil {
		return nil, nil, notFound(err, "rack", rackID)
	}
	rk, err = tx.GetRack(rackID)
	if err != nil {
		return nil, nil, notFound(err, "rack", rackID)
	}
	return rk, plan, nil
}

// lockEquipment locks the floor plan the equipment is mounted on
func lockEquipment(tx store.Tx, id string) (*models.Equipment, *models.Rack, *models.FloorPlan, error) {
	e, err := tx.GetEquipment(id)
	if err != nil {
		return nil, nil, nil, notFound(err, "equipment", id)
	}
	rk, plan, err := lockRack(tx, e.RackID)
	if err != nil {
		return nil, nil, nil, notFound(err, "equipment", id)
	}
	e, err = tx.GetEquipment(id)
	if err != nil {
		return nil, nil, nil, notFound(err, "equipment", id)
	}
	return e, rk, plan, nil
}

func validateEquipment(in EquipmentInput, creating bool) error {
	if creating || in.Name != nil {
		if err := ValidateName("name", deref(in.Name, "")); err != nil {
			return err
		}
	}
	if creating {
		if in.StartU == nil {
			return Validation("startU", "is required")
		}
		if in.HeightU == nil {
			return Validation("heightU", "is required")
		}
	}
	if in.StartU != nil && *in.StartU < 1 {
		return Validation("startU", "must be at least 1")
	}
	if in.HeightU != nil && (*in.HeightU < MinEquipmentHeight || *in.HeightU > MaxEquipmentHeight) {
		return Validation("heightU", "must be between %d and %d", MinEquipmentHeight, MaxEquipmentHeight)
	}
	if in.Category != nil {
		if err := ValidateCategory("category", *in.Category); err != nil {
			return err
		}
	}
	if in.Properties != nil {
		if _, err := ParseProperties("properties", in.Properties); err != nil {
			return err
		}
	}
	return ValidateOrder("sortOrder", in.SortOrder)
}

// CreateEquipment mounts new equipment in a rack. The slot must lie within
// the rack's capacity and must not overlap any mounted item.
func (s *Service) CreateEquipment(ctx context.Context, rackID string, in EquipmentInput, actor string) (*models.Equipment, error) {
	if err := checkID("rack", rackID); err != nil {
		return nil, err
	}
	if err := validateEquipment(in, true); err != nil {
		return nil, err
	}
	props, _ := ParseProperties("properties", in.Properties)

	var (
		out  *models.Equipment
		plan *models.FloorPlan
	)
	err := s.tx(ctx, "create_equipment", func(tx store.Tx) error {
		rk, p, err := lockRack(tx, rackID)
		if err != nil {
			return err
		}
		plan = p
		mounted, err := tx.ListEquipment(rackID)
		if err != nil {
			return err
		}
		slot := Slot{StartU: *in.StartU, HeightU: *in.HeightU}
		if err := TryPlace(rk.TotalU, slot, OccupantsOf(mounted), ""); err != nil {
			return withItem(err, "startU", "")
		}

		e := &models.Equipment{
			ID:           s.ids.Mint(),
			RackID:       rackID,
			Name:         strings.TrimSpace(*in.Name),
			Model:        in.Model,
			Manufacturer: in.Manufacturer,
			SerialNumber: in.SerialNumber,
			StartU:       slot.StartU,
			HeightU:      slot.HeightU,
			Category:     deref(in.Category, string(models.CategoryOther)),
			InstallDate:  in.InstallDate,
			Manager:      in.Manager,
			Description:  in.Description,
			Properties:   props,
			SortOrder:    newOrderSeq(equipmentOrders(mounted)).take(in.SortOrder),
		}
		if err := tx.CreateEquipment(e); err != nil {
			return err
		}
		if err := touch(tx, plan, actor); err != nil {
			return err
		}
		out, err = loadEquipment(tx, *e)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, ChangeUpdated, plan.ID, plan.FloorID, actor)
	s.log.Info("equipment mounted",
		zap.String("equipment_id", out.ID),
		zap.String("rack_id", rackID),
		zap.Int("start_u", out.StartU),
		zap.Int("height_u", out.HeightU),
		zap.String("actor", actor))
	return out, nil
}

// MoveEquipment relocates equipment to a new start unit; height is kept.
// The item's own current range never conflicts with itself.
func (s *Service) MoveEquipment(ctx context.Context, id string, in MoveInput, actor string) (*models.Equipment, error) {
	if err := checkID("equipment", id); err != nil {
		return nil, err
	}
	if in.StartU < 1 {
		return nil, Validation("startU", "must be at least 1")
	}

	var (
		out   *models.Equipment
		plan  *models.FloorPlan
		moved bool
	)
	err := s.tx(ctx, "move_equipment", func(tx store.Tx) error {
		e, rk, p, err := lockEquipment(tx, id)
		if err != nil {
			return err
		}
		plan = p
		mounted, err := tx.ListEquipment(rk.ID)
		if err != nil {
			return err
		}
		slot := Slot{StartU: in.StartU, HeightU: e.HeightU}
		if err := TryPlace(rk.TotalU, slot, OccupantsOf(mounted), e.ID); err != nil {
			return withItem(err, "startU", e.ID)
		}

		if e.StartU != in.StartU {
			moved = true
			e.StartU = in.StartU
			if err := tx.UpdateEquipment(e); err != nil {
				return err
			}
			if err := touch(tx, plan, actor); err != nil {
				return err
			}
		}
		out, err = loadEquipment(tx, *e)
		return err
	})
	if err != nil {
		return nil, err
	}

	if moved {
		s.committed(ctx, ChangeUpdated, plan.ID, plan.FloorID, actor)
		s.log.Info("equipment moved",
			zap.String("equipment_id", id),
			zap.Int("start_u", out.StartU),
			zap.String("actor", actor))
	}
	return out, nil
}

// UpdateEquipment patches equipment; a changed slot is re-checked against
// the rack like a move
func (s *Service) UpdateEquipment(ctx context.Context, id string, in EquipmentInput, actor string) (*models.Equipment, error) {
	if err := checkID("equipment", id); err != nil {
		return nil, err
	}
	if err := validateEquipment(in, false); err != nil {
		return nil, err
	}

	var (
		out     *models.Equipment
		plan    *models.FloorPlan
		changed bool
	)
	err := s.tx(ctx, "update_equipment", func(tx store.Tx) error {
		cur, rk, p, err := lockEquipment(tx, id)
		if err != nil {
			return err
		}
		plan = p
		next := applyEquipment(*cur, in)

		if next.StartU != cur.StartU || next.HeightU != cur.HeightU {
			mounted, err := tx.ListEquipment(rk.ID)
			if err != nil {
				return err
			}
			slot := Slot{StartU: next.StartU, HeightU: next.HeightU}
			if err := TryPlace(rk.TotalU, slot, OccupantsOf(mounted), cur.ID); err != nil {
				return withItem(err, "startU", cur.ID)
			}
		}

		if !reflect.DeepEqual(*cur, next) {
			changed = true
			if err := tx.UpdateEquipment(&next); err != nil {
				return err
			}
			if err := touch(tx, plan, actor); err != nil {
				return err
			}
		}
		out, err = loadEquipment(tx, next)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.committed(ctx, ChangeUpdated, plan.ID, plan.FloorID, actor)
		s.log.Info("equipment updated", zap.String("equipment_id", id), zap.String("actor", actor))
	}
	return out, nil
}

func applyEquipment(cur models.Equipment, in EquipmentInput) models.Equipment {
	next := cur
	if in.Name != nil {
		next.Name = strings.TrimSpace(*in.Name)
	}
	if in.Model != nil {
		next.Model = in.Model
	}
	if in.Manufacturer != nil {
		next.Manufacturer = in.Manufacturer
	}
	if in.SerialNumber != nil {
		next.SerialNumber = in.SerialNumber
	}
	if in.StartU != nil {
		next.StartU = *in.StartU
	}
	if in.HeightU != nil {
		next.HeightU = *in.HeightU
	}
	if in.Category != nil {
		next.Category = *in.Category
	}
	if in.InstallDate != nil {
		next.InstallDate = in.InstallDate
	}
	if in.Manager != nil {
		next.Manager = in.Manager
	}
	if in.Description != nil {
		next.Description = in.Description
	}
	if in.Properties != nil {
		next.Properties, _ = ParseProperties("properties", in.Properties)
	}
	if in.SortOrder != nil {
		next.SortOrder = *in.SortOrder
	}
	return next
}

// DeleteEquipment unmounts equipment and drops its ports
func (s *Service) DeleteEquipment(ctx context.Context, id, actor string) error {
	if err := checkID("equipment", id); err != nil {
		return err
	}
	var plan *models.FloorPlan
	err := s.tx(ctx, "delete_equipment", func(tx store.Tx) error {
		_, _, p, err := lockEquipment(tx, id)
		if err != nil {
			return err
		}
		plan = p
		if err := tx.DeleteEquipment(id); err != nil {
			return notFound(err, "equipment", id)
		}
		return touch(tx, plan, actor)
	})
	if err != nil {
		return err
	}

	s.committed(ctx, ChangeUpdated, plan.ID, plan.FloorID, actor)
	s.log.Info("equipment deleted", zap.String("equipment_id", id), zap.String("actor", actor))
	return nil
}

// GetEquipment returns equipment with its ports
func (s *Service) GetEquipment(ctx context.Context, id string) (*models.Equipment, error) {
	if err := checkID("equipment", id); err != nil {
		return nil, err
	}
	var out *models.Equipment
	err := s.tx(ctx, "get_equipment", func(tx store.Tx) error {
		e, err := tx.GetEquipment(id)
		if err != nil {
			return notFound(err, "equipment", id)
		}
		out, err = loadEquipment(tx, *e)
		return err
	})
	return out, err
}

// ListEquipment returns a rack's equipment in sort order
func (s *Service) ListEquipment(ctx context.Context, rackID string) ([]models.Equipment, error) {
	rk, err := s.GetRack(ctx, rackID)
	if err != nil {
		return nil, err
	}
	return rk.Equipment, nil
}

// GetRack returns a rack with its equipment and ports
func (s *Service) GetRack(ctx context.Context, id string) (*models.Rack, error) {
	if err := checkID("rack", id); err != nil {
		return nil, err
	}
	var out *models.Rack
	err := s.tx(ctx, "get_rack", func(tx store.Tx) error {
		rk, err := tx.GetRack(id)
		if err != nil {
			return notFound(err, "rack", id)
		}
		out, err = loadRack(tx, *rk)
		return err
	})
	return out, err
}
