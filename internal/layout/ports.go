package layout

import (
	"context"
	"reflect"
	"strings"

	"github.com/xelth-com/facilitymap/internal/models"
	"github.com/xelth-com/facilitymap/internal/store"
	"go.uber.org/zap"
)

func validatePortInput(in PortInput, creating bool) error {
	if creating || in.Name != nil {
		if err := ValidateName("name", deref(in.Name, "")); err != nil {
			return err
		}
	}
	if creating && in.PortType == nil {
		return Validation("portType", "is required")
	}
	if err := ValidatePort("port", in.PortType, in.PortNumber); err != nil {
		return err
	}
	return ValidateOrder("sortOrder", in.SortOrder)
}

// ListPorts returns the ports of a piece of equipment
func (s *Service) ListPorts(ctx context.Context, equipmentID string) ([]models.Port, error) {
	e, err := s.GetEquipment(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	return e.Ports, nil
}

// CreatePort adds a port to equipment
func (s *Service) CreatePort(ctx context.Context, equipmentID string, in PortInput, actor string) (*models.Port, error) {
	if err := checkID("equipment", equipmentID); err != nil {
		return nil, err
	}
	if err := validatePortInput(in, true); err != nil {
		return nil, err
	}

	var (
		out  *models.Port
		plan *models.FloorPlan
	)
	err := s.tx(ctx, "create_port", func(tx store.Tx) error {
		_, _, p, err := lockEquipment(tx, equipmentID)
		if err != nil {
			return err
		}
		plan = p
		siblings, err := tx.ListPorts(equipmentID)
		if err != nil {
			return err
		}
		port := &models.Port{
			ID:            s.ids.Mint(),
			EquipmentID:   equipmentID,
			Name:          strings.TrimSpace(*in.Name),
			PortType:      *in.PortType,
			PortNumber:    in.PortNumber,
			Label:         in.Label,
			Speed:         in.Speed,
			ConnectorType: in.ConnectorType,
			Description:   in.Description,
			SortOrder:     newOrderSeq(portOrders(siblings)).take(in.SortOrder),
		}
		if err := tx.CreatePort(port); err != nil {
			return err
		}
		out = port
		return touch(tx, plan, actor)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, ChangeUpdated, plan.ID, plan.FloorID, actor)
	s.log.Info("port created", zap.String("port_id", out.ID), zap.String("equipment_id", equipmentID))
	return out, nil
}

func lockPort(tx store.Tx, id string) (*models.Port, *models.FloorPlan, error) {
	port, err := tx.GetPort(id)
	if err != nil {
		return nil, nil, notFound(err, "port", id)
	}
	_, _, plan, err := lockEquipment(tx, port.EquipmentID)
	if err != nil {
		return nil, nil, notFound(err, "port", id)
	}
	port, err = tx.GetPort(id)
	if err != nil {
		return nil, nil, notFound(err, "port", id)
	}
	return port, plan, nil
}

// UpdatePort patches a port
func (s *Service) UpdatePort(ctx context.Context, id string, in PortInput, actor string) (*models.Port, error) {
	if err := checkID("port", id); err != nil {
		return nil, err
	}
	if err := validatePortInput(in, false); err != nil {
		return nil, err
	}

	var (
		out     *models.Port
		plan    *models.FloorPlan
		changed bool
	)
	err := s.tx(ctx, "update_port", func(tx store.Tx) error {
		cur, p, err := lockPort(tx, id)
		if err != nil {
			return err
		}
		plan = p
		next := *cur
		if in.Name != nil {
			next.Name = strings.TrimSpace(*in.Name)
		}
		if in.PortType != nil {
			next.PortType = *in.PortType
		}
		if in.PortNumber != nil {
			next.PortNumber = in.PortNumber
		}
		if in.Label != nil {
			next.Label = in.Label
		}
		if in.Speed != nil {
			next.Speed = in.Speed
		}
		if in.ConnectorType != nil {
			next.ConnectorType = in.ConnectorType
		}
		if in.Description != nil {
			next.Description = in.Description
		}
		if in.SortOrder != nil {
			next.SortOrder = *in.SortOrder
		}
		out = &next
		if reflect.DeepEqual(*cur, next) {
			return nil
		}
		changed = true
		if err := tx.UpdatePort(out); err != nil {
			return err
		}
		return touch(tx, plan, actor)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.committed(ctx, ChangeUpdated, plan.ID, plan.FloorID, actor)
	}
	return out, nil
}

// DeletePort removes a port
func (s *Service) DeletePort(ctx context.Context, id, actor string) error {
	if err := checkID("port", id); err != nil {
		return err
	}
	var plan *models.FloorPlan
	err := s.tx(ctx, "delete_port", func(tx store.Tx) error {
		_, p, err := lockPort(tx, id)
		if err != nil {
			return err
		}
		plan = p
		if err := tx.DeletePort(id); err != nil {
			return notFound(err, "port", id)
		}
		return touch(tx, plan, actor)
	})
	if err != nil {
		return err
	}

	s.committed(ctx, ChangeUpdated, plan.ID, plan.FloorID, actor)
	return nil
}
