package layout

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/xelth-com/facilitymap/internal/models"
	"github.com/xelth-com/facilitymap/internal/store"
	"go.uber.org/zap"
)

func validateSubstation(in SubstationInput, creating bool) error {
	if creating || in.Name != nil {
		if err := ValidateName("name", deref(in.Name, "")); err != nil {
			return err
		}
	}
	if creating && in.Code == nil {
		return Validation("code", "is required")
	}
	if in.Code != nil {
		if err := ValidateSubstationCode("code", *in.Code); err != nil {
			return err
		}
	}
	return ValidateOrder("sortOrder", in.SortOrder)
}

func duplicateCode(err error, code string) error {
	if errors.Is(err, store.ErrDuplicate) {
		return Conflict("substation code already in use", map[string]any{"code": code})
	}
	return err
}

// ListSubstations returns every substation in sort order
func (s *Service) ListSubstations(ctx context.Context) ([]models.Substation, error) {
	var out []models.Substation
	err := s.tx(ctx, "list_substations", func(tx store.Tx) error {
		rows, err := tx.ListSubstations()
		if err != nil {
			return err
		}
		SortSubstations(rows)
		out = append(make([]models.Substation, 0, len(rows)), rows...)
		return nil
	})
	return out, err
}

// GetSubstation returns a substation with its floors
func (s *Service) GetSubstation(ctx context.Context, id string) (*models.Substation, error) {
	if err := checkID("substation", id); err != nil {
		return nil, err
	}
	var out *models.Substation
	err := s.tx(ctx, "get_substation", func(tx store.Tx) error {
		sub, err := tx.GetSubstation(id)
		if err != nil {
			return notFound(err, "substation", id)
		}
		floors, err := tx.ListFloors(id)
		if err != nil {
			return err
		}
		SortFloors(floors)
		sub.Floors = append(make([]models.Floor, 0, len(floors)), floors...)
		out = sub
		return nil
	})
	return out, err
}

// CreateSubstation adds a substation; codes are unique
func (s *Service) CreateSubstation(ctx context.Context, in SubstationInput, actor string) (*models.Substation, error) {
	if err := validateSubstation(in, true); err != nil {
		return nil, err
	}
	var out *models.Substation
	err := s.tx(ctx, "create_substation", func(tx store.Tx) error {
		siblings, err := tx.ListSubstations()
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.Code == *in.Code {
				return duplicateCode(store.ErrDuplicate, *in.Code)
			}
		}
		sub := &models.Substation{
			ID:        s.ids.Mint(),
			Name:      strings.TrimSpace(*in.Name),
			Code:      *in.Code,
			Address:   in.Address,
			IsActive:  deref(in.IsActive, true),
			SortOrder: newOrderSeq(substationOrders(siblings)).take(in.SortOrder),
		}
		if err := tx.CreateSubstation(sub); err != nil {
			return duplicateCode(err, *in.Code)
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("substation created", zap.String("substation_id", out.ID), zap.String("code", out.Code), zap.String("actor", actor))
	return out, nil
}

// UpdateSubstation patches a substation
func (s *Service) UpdateSubstation(ctx context.Context, id string, in SubstationInput, actor string) (*models.Substation, error) {
	if err := checkID("substation", id); err != nil {
		return nil, err
	}
	if err := validateSubstation(in, false); err != nil {
		return nil, err
	}
	var out *models.Substation
	err := s.tx(ctx, "update_substation", func(tx store.Tx) error {
		sub, err := tx.GetSubstation(id)
		if err != nil {
			return notFound(err, "substation", id)
		}
		if in.Name != nil {
			sub.Name = strings.TrimSpace(*in.Name)
		}
		if in.Code != nil && *in.Code != sub.Code {
			sub.Code = *in.Code
		}
		if in.Address != nil {
			sub.Address = in.Address
		}
		if in.IsActive != nil {
			sub.IsActive = *in.IsActive
		}
		if in.SortOrder != nil {
			sub.SortOrder = *in.SortOrder
		}
		if err := tx.UpdateSubstation(sub); err != nil {
			return duplicateCode(err, sub.Code)
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("substation updated", zap.String("substation_id", id), zap.String("actor", actor))
	return out, nil
}

// DeleteSubstation removes a substation and everything beneath it
func (s *Service) DeleteSubstation(ctx context.Context, id, actor string) error {
	if err := checkID("substation", id); err != nil {
		return err
	}
	var floors []models.Floor
	var plans []models.FloorPlan
	err := s.tx(ctx, "delete_substation", func(tx store.Tx) error {
		if _, err := tx.GetSubstation(id); err != nil {
			return notFound(err, "substation", id)
		}
		var err error
		if floors, err = tx.ListFloors(id); err != nil {
			return err
		}
		ids := make([]string, 0, len(floors))
		for _, f := range floors {
			ids = append(ids, f.ID)
		}
		if plans, err = lockPlansOf(tx, ids); err != nil {
			return err
		}
		return notFound(tx.DeleteSubstation(id), "substation", id)
	})
	if err != nil {
		return err
	}
	for _, f := range floors {
		s.cache.Invalidate(ctx, f.ID)
	}
	for _, p := range plans {
		s.committed(ctx, ChangeDeleted, p.ID, p.FloorID, actor)
	}
	s.log.Info("substation deleted", zap.String("substation_id", id), zap.Int("floors", len(floors)), zap.String("actor", actor))
	return nil
}

// lockPlansOf takes the lock of every floor plan owned by floorIDs, in id
// order so concurrent cascades cannot deadlock
func lockPlansOf(tx store.Tx, floorIDs []string) ([]models.FloorPlan, error) {
	var plans []models.FloorPlan
	for _, fid := range floorIDs {
		p, err := tx.GetFloorPlanByFloor(fid)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	for _, p := range plans {
		if _, err := tx.LockFloorPlan(p.ID); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

func validateFloor(in FloorInput, creating bool) error {
	if creating || in.Name != nil {
		if err := ValidateName("name", deref(in.Name, "")); err != nil {
			return err
		}
	}
	return ValidateOrder("sortOrder", in.SortOrder)
}

// ListFloors returns the floors of a substation in sort order
func (s *Service) ListFloors(ctx context.Context, substationID string) ([]models.Floor, error) {
	sub, err := s.GetSubstation(ctx, substationID)
	if err != nil {
		return nil, err
	}
	return sub.Floors, nil
}

// GetFloor returns one floor
func (s *Service) GetFloor(ctx context.Context, id string) (*models.Floor, error) {
	if err := checkID("floor", id); err != nil {
		return nil, err
	}
	var out *models.Floor
	err := s.tx(ctx, "get_floor", func(tx store.Tx) error {
		f, err := tx.GetFloor(id)
		if err != nil {
			return notFound(err, "floor", id)
		}
		out = f
		return nil
	})
	return out, err
}

// CreateFloor adds a floor to a substation
func (s *Service) CreateFloor(ctx context.Context, substationID string, in FloorInput, actor string) (*models.Floor, error) {
	if err := checkID("substation", substationID); err != nil {
		return nil, err
	}
	if err := validateFloor(in, true); err != nil {
		return nil, err
	}
	var out *models.Floor
	err := s.tx(ctx, "create_floor", func(tx store.Tx) error {
		if _, err := tx.GetSubstation(substationID); err != nil {
			return notFound(err, "substation", substationID)
		}
		siblings, err := tx.ListFloors(substationID)
		if err != nil {
			return err
		}
		f := &models.Floor{
			ID:           s.ids.Mint(),
			SubstationID: substationID,
			Name:         strings.TrimSpace(*in.Name),
			FloorNumber:  in.FloorNumber,
			IsActive:     deref(in.IsActive, true),
			SortOrder:    newOrderSeq(floorOrders(siblings)).take(in.SortOrder),
		}
		if err := tx.CreateFloor(f); err != nil {
			return notFound(err, "substation", substationID)
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("floor created", zap.String("floor_id", out.ID), zap.String("substation_id", substationID), zap.String("actor", actor))
	return out, nil
}

// UpdateFloor patches a floor
func (s *Service) UpdateFloor(ctx context.Context, id string, in FloorInput, actor string) (*models.Floor, error) {
	if err := checkID("floor", id); err != nil {
		return nil, err
	}
	if err := validateFloor(in, false); err != nil {
		return nil, err
	}
	var out *models.Floor
	err := s.tx(ctx, "update_floor", func(tx store.Tx) error {
		f, err := tx.GetFloor(id)
		if err != nil {
			return notFound(err, "floor", id)
		}
		if in.Name != nil {
			f.Name = strings.TrimSpace(*in.Name)
		}
		if in.FloorNumber != nil {
			f.FloorNumber = in.FloorNumber
		}
		if in.IsActive != nil {
			f.IsActive = *in.IsActive
		}
		if in.SortOrder != nil {
			f.SortOrder = *in.SortOrder
		}
		if err := tx.UpdateFloor(f); err != nil {
			return notFound(err, "floor", id)
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("floor updated", zap.String("floor_id", id), zap.String("actor", actor))
	return out, nil
}

// DeleteFloor removes a floor and its floor plan
func (s *Service) DeleteFloor(ctx context.Context, id, actor string) error {
	if err := checkID("floor", id); err != nil {
		return err
	}
	var plans []models.FloorPlan
	err := s.tx(ctx, "delete_floor", func(tx store.Tx) error {
		if _, err := tx.GetFloor(id); err != nil {
			return notFound(err, "floor", id)
		}
		var err error
		if plans, err = lockPlansOf(tx, []string{id}); err != nil {
			return err
		}
		return notFound(tx.DeleteFloor(id), "floor", id)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	for _, p := range plans {
		s.committed(ctx, ChangeDeleted, p.ID, p.FloorID, actor)
	}
	s.log.Info("floor deleted", zap.String("floor_id", id), zap.String("actor", actor))
	return nil
}
