// Package store persists the facility hierarchy. Every access goes through a
// transaction; a transaction that returns an error leaves no trace.
package store

import (
	"context"
	"errors"

	"github.com/xelth-com/facilitymap/internal/models"
)

var (
	// ErrNotFound is returned when an id does not resolve
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken
	ErrDuplicate = errors.New("duplicate key")
)

// Store opens transactions against the backing database
type Store interface {
	// Tx runs fn in a single transaction. A non-nil error from fn (or a failed
	// commit) rolls back every write fn made and is returned unchanged.
	Tx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx is the set of operations available inside one transaction.
// Getters return detached copies without relations populated.
type Tx interface {
	// LockFloorPlan acquires the per-floor-plan write lock and returns the
	// row as seen after the lock was granted. The lock is held until the
	// transaction commits or rolls back.
	LockFloorPlan(id string) (*models.FloorPlan, error)

	GetUser(id string) (*models.UserAuth, error)
	GetUserByEmail(email string) (*models.UserAuth, error)
	CreateUser(u *models.UserAuth) error
	UpdateUser(u *models.UserAuth) error

	ListSubstations() ([]models.Substation, error)
	GetSubstation(id string) (*models.Substation, error)
	CreateSubstation(s *models.Substation) error
	UpdateSubstation(s *models.Substation) error
	DeleteSubstation(id string) error

	ListFloors(substationID string) ([]models.Floor, error)
	GetFloor(id string) (*models.Floor, error)
	CreateFloor(f *models.Floor) error
	UpdateFloor(f *models.Floor) error
	DeleteFloor(id string) error

	GetFloorPlan(id string) (*models.FloorPlan, error)
	GetFloorPlanByFloor(floorID string) (*models.FloorPlan, error)
	CreateFloorPlan(fp *models.FloorPlan) error
	UpdateFloorPlan(fp *models.FloorPlan) error
	DeleteFloorPlan(id string) error

	GetElement(id string) (*models.Element, error)
	ListElements(floorPlanID string) ([]models.Element, error)
	CreateElement(e *models.Element) error
	UpdateElement(e *models.Element) error
	DeleteElement(id string) error

	GetRack(id string) (*models.Rack, error)
	ListRacks(floorPlanID string) ([]models.Rack, error)
	CreateRack(r *models.Rack) error
	UpdateRack(r *models.Rack) error
	DeleteRack(id string) error

	GetEquipment(id string) (*models.Equipment, error)
	ListEquipment(rackID string) ([]models.Equipment, error)
	CreateEquipment(e *models.Equipment) error
	UpdateEquipment(e *models.Equipment) error
	DeleteEquipment(id string) error

	GetPort(id string) (*models.Port, error)
	ListPorts(equipmentID string) ([]models.Port, error)
	CreatePort(p *models.Port) error
	UpdatePort(p *models.Port) error
	DeletePort(id string) error
}
