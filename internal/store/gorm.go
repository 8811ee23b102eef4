package store

import (
	"context"
	"errors"

	"github.com/xelth-com/facilitymap/internal/database"
	"github.com/xelth-com/facilitymap/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists the hierarchy in PostgreSQL. Cascading deletes are
// enforced by the foreign keys declared on the models.
type GormStore struct {
	db *database.DB
}

// NewGormStore wraps an open database connection
func NewGormStore(db *database.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Close() error { return s.db.Close() }

func (s *GormStore) Tx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&gormTx{db: db})
	})
}

type gormTx struct {
	db *gorm.DB
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		// the parent row is gone
		return ErrNotFound
	default:
		return err
	}
}

func first[T any](db *gorm.DB, query string, args ...interface{}) (*T, error) {
	var row T
	if err := db.Where(query, args...).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func list[T any](db *gorm.DB, query string, args ...interface{}) ([]T, error) {
	var rows []T
	q := db
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Order("sort_order, created_at, id").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func insert[T any](db *gorm.DB, row *T) error {
	return translate(db.Omit(clause.Associations).Create(row).Error)
}

// update writes every column of row, zero values included
func update[T any](db *gorm.DB, row *T) error {
	res := db.Model(row).Select("*").Omit(clause.Associations, "id", "created_at").Updates(row)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func remove[T any](db *gorm.DB, id string) error {
	res := db.Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LockFloorPlan takes a row lock on the floor plan (SELECT ... FOR UPDATE)
func (t *gormTx) LockFloorPlan(id string) (*models.FloorPlan, error) {
	var fp models.FloorPlan
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&fp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &fp, nil
}

func (t *gormTx) GetUser(id string) (*models.UserAuth, error) {
	return first[models.UserAuth](t.db, "id = ?", id)
}
func (t *gormTx) GetUserByEmail(email string) (*models.UserAuth, error) {
	return first[models.UserAuth](t.db, "email = ?", email)
}
func (t *gormTx) CreateUser(u *models.UserAuth) error { return insert(t.db, u) }
func (t *gormTx) UpdateUser(u *models.UserAuth) error { return update(t.db, u) }

func (t *gormTx) ListSubstations() ([]models.Substation, error) {
	return list[models.Substation](t.db, "")
}
func (t *gormTx) GetSubstation(id string) (*models.Substation, error) {
	return first[models.Substation](t.db, "id = ?", id)
}
func (t *gormTx) CreateSubstation(s *models.Substation) error { return insert(t.db, s) }
func (t *gormTx) UpdateSubstation(s *models.Substation) error { return update(t.db, s) }
func (t *gormTx) DeleteSubstation(id string) error            { return remove[models.Substation](t.db, id) }

func (t *gormTx) ListFloors(substationID string) ([]models.Floor, error) {
	return list[models.Floor](t.db, "substation_id = ?", substationID)
}
func (t *gormTx) GetFloor(id string) (*models.Floor, error) {
	return first[models.Floor](t.db, "id = ?", id)
}
func (t *gormTx) CreateFloor(f *models.Floor) error { return insert(t.db, f) }
func (t *gormTx) UpdateFloor(f *models.Floor) error { return update(t.db, f) }
func (t *gormTx) DeleteFloor(id string) error       { return remove[models.Floor](t.db, id) }

func (t *gormTx) GetFloorPlan(id string) (*models.FloorPlan, error) {
	return first[models.FloorPlan](t.db, "id = ?", id)
}
func (t *gormTx) GetFloorPlanByFloor(floorID string) (*models.FloorPlan, error) {
	return first[models.FloorPlan](t.db, "floor_id = ?", floorID)
}
func (t *gormTx) CreateFloorPlan(fp *models.FloorPlan) error { return insert(t.db, fp) }
func (t *gormTx) UpdateFloorPlan(fp *models.FloorPlan) error { return update(t.db, fp) }
func (t *gormTx) DeleteFloorPlan(id string) error            { return remove[models.FloorPlan](t.db, id) }

func (t *gormTx) GetElement(id string) (*models.Element, error) {
	return first[models.Element](t.db, "id = ?", id)
}
func (t *gormTx) ListElements(floorPlanID string) ([]models.Element, error) {
	var rows []models.Element
	err := t.db.Where("floor_plan_id = ?", floorPlanID).Order("z_index, created_at, id").Find(&rows).Error
	return rows, translate(err)
}
func (t *gormTx) CreateElement(e *models.Element) error { return insert(t.db, e) }
func (t *gormTx) UpdateElement(e *models.Element) error { return update(t.db, e) }
func (t *gormTx) DeleteElement(id string) error         { return remove[models.Element](t.db, id) }

func (t *gormTx) GetRack(id string) (*models.Rack, error) {
	return first[models.Rack](t.db, "id = ?", id)
}
func (t *gormTx) ListRacks(floorPlanID string) ([]models.Rack, error) {
	return list[models.Rack](t.db, "floor_plan_id = ?", floorPlanID)
}
func (t *gormTx) CreateRack(r *models.Rack) error { return insert(t.db, r) }
func (t *gormTx) UpdateRack(r *models.Rack) error { return update(t.db, r) }
func (t *gormTx) DeleteRack(id string) error      { return remove[models.Rack](t.db, id) }

func (t *gormTx) GetEquipment(id string) (*models.Equipment, error) {
	return first[models.Equipment](t.db, "id = ?", id)
}
func (t *gormTx) ListEquipment(rackID string) ([]models.Equipment, error) {
	return list[models.Equipment](t.db, "rack_id = ?", rackID)
}
func (t *gormTx) CreateEquipment(e *models.Equipment) error { return insert(t.db, e) }
func (t *gormTx) UpdateEquipment(e *models.Equipment) error { return update(t.db, e) }
func (t *gormTx) DeleteEquipment(id string) error           { return remove[models.Equipment](t.db, id) }

func (t *gormTx) GetPort(id string) (*models.Port, error) {
	return first[models.Port](t.db, "id = ?", id)
}
func (t *gormTx) ListPorts(equipmentID string) ([]models.Port, error) {
	return list[models.Port](t.db, "equipment_id = ?", equipmentID)
}
func (t *gormTx) CreatePort(p *models.Port) error { return insert(t.db, p) }
func (t *gormTx) UpdatePort(p *models.Port) error { return update(t.db, p) }
func (t *gormTx) DeletePort(id string) error      { return remove[models.Port](t.db, id) }
