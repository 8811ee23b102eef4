package store

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/xelth-com/facilitymap/internal/models"
)

// MemoryStore keeps the whole hierarchy in an in-process arena keyed by id.
// Used by tests and by STORE=memory for running without a database.
//
// Transactions buffer their writes in per-table overlays and publish them
// atomically on commit; a rolled-back transaction simply drops its overlays.
type MemoryStore struct {
	mu    sync.RWMutex
	locks *keyedLock
	now   func() time.Time

	users       table[models.UserAuth]
	substations table[models.Substation]
	floors      table[models.Floor]
	plans       table[models.FloorPlan]
	elements    table[models.Element]
	racks       table[models.Rack]
	equipment   table[models.Equipment]
	ports       table[models.Port]
}

// NewMemoryStore returns an empty arena
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks:       newKeyedLock(),
		now:         func() time.Time { return time.Now().UTC() },
		users:       table[models.UserAuth]{},
		substations: table[models.Substation]{},
		floors:      table[models.Floor]{},
		plans:       table[models.FloorPlan]{},
		elements:    table[models.Element]{},
		racks:       table[models.Rack]{},
		equipment:   table[models.Equipment]{},
		ports:       table[models.Port]{},
	}
}

// SetClock overrides the timestamp source
func (s *MemoryStore) SetClock(now func() time.Time) { s.now = now }

func (s *MemoryStore) Close() error { return nil }

// Tx runs fn against a fresh overlay and publishes it if fn succeeds
func (s *MemoryStore) Tx(ctx context.Context, fn func(tx Tx) error) error {
	t := &memTx{
		ctx:         ctx,
		s:           s,
		held:        map[string]func(){},
		users:       newView(s.users),
		substations: newView(s.substations),
		floors:      newView(s.floors),
		plans:       newView(s.plans),
		elements:    newView(s.elements),
		racks:       newView(s.racks),
		equipment:   newView(s.equipment),
		ports:       newView(s.ports),
	}
	defer t.release()

	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.commit()
}

// ---- generic overlay ----

type table[T any] map[string]T

type view[T any] struct {
	base table[T]
	puts map[string]T
	dels map[string]struct{}
}

func newView[T any](base table[T]) *view[T] {
	return &view[T]{base: base, puts: map[string]T{}, dels: map[string]struct{}{}}
}

func (v *view[T]) get(id string) (T, bool) {
	var zero T
	if _, gone := v.dels[id]; gone {
		return zero, false
	}
	if row, ok := v.puts[id]; ok {
		return row, true
	}
	row, ok := v.base[id]
	return row, ok
}

func (v *view[T]) has(id string) bool {
	_, ok := v.get(id)
	return ok
}

func (v *view[T]) put(id string, row T) {
	delete(v.dels, id)
	v.puts[id] = row
}

func (v *view[T]) del(id string) {
	delete(v.puts, id)
	v.dels[id] = struct{}{}
}

// where returns the merged rows matching fn, ordered by id
func (v *view[T]) where(fn func(T) bool) []T {
	ids := make([]string, 0, len(v.base)+len(v.puts))
	for id := range v.base {
		if _, gone := v.dels[id]; gone {
			continue
		}
		if _, shadowed := v.puts[id]; shadowed {
			continue
		}
		ids = append(ids, id)
	}
	for id := range v.puts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		row, _ := v.get(id)
		if fn == nil || fn(row) {
			out = append(out, row)
		}
	}
	return out
}

func (v *view[T]) apply() {
	for id := range v.dels {
		delete(v.base, id)
	}
	for id, row := range v.puts {
		v.base[id] = row
	}
}

// ---- transaction ----

type memTx struct {
	ctx  context.Context
	s    *MemoryStore
	held map[string]func()

	users       *view[models.UserAuth]
	substations *view[models.Substation]
	floors      *view[models.Floor]
	plans       *view[models.FloorPlan]
	elements    *view[models.Element]
	racks       *view[models.Rack]
	equipment   *view[models.Equipment]
	ports       *view[models.Port]
}

func (t *memTx) release() {
	for key, unlock := range t.held {
		unlock()
		delete(t.held, key)
	}
}

func (t *memTx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if dupKey(t.substations.where(nil), func(s models.Substation) string { return s.Code }) ||
		dupKey(t.plans.where(nil), func(p models.FloorPlan) string { return p.FloorID }) ||
		dupKey(t.users.where(nil), func(u models.UserAuth) string { return u.Email }) ||
		dupKey(t.users.where(nil), func(u models.UserAuth) string { return u.Username }) {
		return ErrDuplicate
	}

	t.users.apply()
	t.substations.apply()
	t.floors.apply()
	t.plans.apply()
	t.elements.apply()
	t.racks.apply()
	t.equipment.apply()
	t.ports.apply()
	t.s.sweepOrphans()
	return nil
}

func dupKey[T any](rows []T, key func(T) string) bool {
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		k := key(row)
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}
	}
	return false
}

// sweepOrphans drops rows whose parent vanished in a concurrent commit.
// Caller holds s.mu.
func (s *MemoryStore) sweepOrphans() {
	for id, f := range s.floors {
		if _, ok := s.substations[f.SubstationID]; !ok {
			delete(s.floors, id)
		}
	}
	for id, p := range s.plans {
		if _, ok := s.floors[p.FloorID]; !ok {
			delete(s.plans, id)
		}
	}
	for id, e := range s.elements {
		if _, ok := s.plans[e.FloorPlanID]; !ok {
			delete(s.elements, id)
		}
	}
	for id, r := range s.racks {
		if _, ok := s.plans[r.FloorPlanID]; !ok {
			delete(s.racks, id)
		}
	}
	for id, e := range s.equipment {
		if _, ok := s.racks[e.RackID]; !ok {
			delete(s.equipment, id)
		}
	}
	for id, p := range s.ports {
		if _, ok := s.equipment[p.EquipmentID]; !ok {
			delete(s.ports, id)
		}
	}
}

func (t *memTx) read() func() {
	t.s.mu.RLock()
	return t.s.mu.RUnlock
}

func (t *memTx) stamp(created, updated *time.Time) {
	now := t.s.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	*updated = now
}

func (t *memTx) LockFloorPlan(id string) (*models.FloorPlan, error) {
	if _, ok := t.held[id]; !ok {
		unlock, err := t.s.locks.acquire(t.ctx, id)
		if err != nil {
			return nil, err
		}
		t.held[id] = unlock
	}
	return t.GetFloorPlan(id)
}

// ---- cascade ----

type nodeKind int

const (
	nodeSubstation nodeKind = iota
	nodeFloor
	nodePlan
	nodeElement
	nodeRack
	nodeEquipment
	nodePort
)

type node struct {
	kind nodeKind
	id   string
}

// sweep deletes root and everything it owns, breadth first over parent ids
func (t *memTx) sweep(root node) {
	queue := []node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		switch n.kind {
		case nodeSubstation:
			t.substations.del(n.id)
			for _, f := range t.floors.where(func(f models.Floor) bool { return f.SubstationID == n.id }) {
				queue = append(queue, node{nodeFloor, f.ID})
			}
		case nodeFloor:
			t.floors.del(n.id)
			for _, p := range t.plans.where(func(p models.FloorPlan) bool { return p.FloorID == n.id }) {
				queue = append(queue, node{nodePlan, p.ID})
			}
		case nodePlan:
			t.plans.del(n.id)
			for _, e := range t.elements.where(func(e models.Element) bool { return e.FloorPlanID == n.id }) {
				queue = append(queue, node{nodeElement, e.ID})
			}
			for _, r := range t.racks.where(func(r models.Rack) bool { return r.FloorPlanID == n.id }) {
				queue = append(queue, node{nodeRack, r.ID})
			}
		case nodeElement:
			t.elements.del(n.id)
		case nodeRack:
			t.racks.del(n.id)
			for _, e := range t.equipment.where(func(e models.Equipment) bool { return e.RackID == n.id }) {
				queue = append(queue, node{nodeEquipment, e.ID})
			}
		case nodeEquipment:
			t.equipment.del(n.id)
			for _, p := range t.ports.where(func(p models.Port) bool { return p.EquipmentID == n.id }) {
				queue = append(queue, node{nodePort, p.ID})
			}
		case nodePort:
			t.ports.del(n.id)
		}
	}
}

// ---- users ----

func (t *memTx) GetUser(id string) (*models.UserAuth, error) {
	defer t.read()()
	row, ok := t.users.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (t *memTx) GetUserByEmail(email string) (*models.UserAuth, error) {
	defer t.read()()
	rows := t.users.where(func(u models.UserAuth) bool { return u.Email == email })
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (t *memTx) CreateUser(u *models.UserAuth) error {
	defer t.read()()
	if t.users.has(u.ID) {
		return ErrDuplicate
	}
	t.stamp(&u.CreatedAt, &u.UpdatedAt)
	t.users.put(u.ID, *u)
	return nil
}

func (t *memTx) UpdateUser(u *models.UserAuth) error {
	defer t.read()()
	if !t.users.has(u.ID) {
		return ErrNotFound
	}
	t.stamp(nil, &u.UpdatedAt)
	t.users.put(u.ID, *u)
	return nil
}

// ---- substations ----

func (t *memTx) ListSubstations() ([]models.Substation, error) {
	defer t.read()()
	return t.substations.where(nil), nil
}

func (t *memTx) GetSubstation(id string) (*models.Substation, error) {
	defer t.read()()
	row, ok := t.substations.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (t *memTx) CreateSubstation(s *models.Substation) error {
	defer t.read()()
	if t.substations.has(s.ID) {
		return ErrDuplicate
	}
	t.stamp(&s.CreatedAt, &s.UpdatedAt)
	row := *s
	row.Floors = nil
	t.substations.put(s.ID, row)
	return nil
}

func (t *memTx) UpdateSubstation(s *models.Substation) error {
	defer t.read()()
	if !t.substations.has(s.ID) {
		return ErrNotFound
	}
	t.stamp(nil, &s.UpdatedAt)
	row := *s
	row.Floors = nil
	t.substations.put(s.ID, row)
	return nil
}

func (t *memTx) DeleteSubstation(id string) error {
	defer t.read()()
	if !t.substations.has(id) {
		return ErrNotFound
	}
	t.sweep(node{nodeSubstation, id})
	return nil
}

// ---- floors ----

func (t *memTx) ListFloors(substationID string) ([]models.Floor, error) {
	defer t.read()()
	return t.floors.where(func(f models.Floor) bool { return f.SubstationID == substationID }), nil
}

func (t *memTx) GetFloor(id string) (*models.Floor, error) {
	defer t.read()()
	row, ok := t.floors.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (t *memTx) CreateFloor(f *models.Floor) error {
	defer t.read()()
	if t.floors.has(f.ID) {
		return ErrDuplicate
	}
	if !t.substations.has(f.SubstationID) {
		return ErrNotFound
	}
	t.stamp(&f.CreatedAt, &f.UpdatedAt)
	row := *f
	row.FloorPlan = nil
	t.floors.put(f.ID, row)
	return nil
}

func (t *memTx) UpdateFloor(f *models.Floor) error {
	defer t.read()()
	if !t.floors.has(f.ID) {
		return ErrNotFound
	}
	t.stamp(nil, &f.UpdatedAt)
	row := *f
	row.FloorPlan = nil
	t.floors.put(f.ID, row)
	return nil
}

func (t *memTx) DeleteFloor(id string) error {
	defer t.read()()
	if !t.floors.has(id) {
		return ErrNotFound
	}
	t.sweep(node{nodeFloor, id})
	return nil
}

// ---- floor plans ----

func (t *memTx) GetFloorPlan(id string) (*models.FloorPlan, error) {
	defer t.read()()
	row, ok := t.plans.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (t *memTx) GetFloorPlanByFloor(floorID string) (*models.FloorPlan, error) {
	defer t.read()()
	rows := t.plans.where(func(p models.FloorPlan) bool { return p.FloorID == floorID })
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (t *memTx) CreateFloorPlan(fp *models.FloorPlan) error {
	defer t.read()()
	if t.plans.has(fp.ID) {
		return ErrDuplicate
	}
	if !t.floors.has(fp.FloorID) {
		return ErrNotFound
	}
	if len(t.plans.where(func(p models.FloorPlan) bool { return p.FloorID == fp.FloorID })) > 0 {
		return ErrDuplicate
	}
	t.stamp(&fp.CreatedAt, &fp.UpdatedAt)
	row := *fp
	row.Elements, row.Racks = nil, nil
	t.plans.put(fp.ID, row)
	return nil
}

func (t *memTx) UpdateFloorPlan(fp *models.FloorPlan) error {
	defer t.read()()
	if !t.plans.has(fp.ID) {
		return ErrNotFound
	}
	t.stamp(nil, &fp.UpdatedAt)
	row := *fp
	row.Elements, row.Racks = nil, nil
	t.plans.put(fp.ID, row)
	return nil
}

func (t *memTx) DeleteFloorPlan(id string) error {
	defer t.read()()
	if !t.plans.has(id) {
		return ErrNotFound
	}
	t.sweep(node{nodePlan, id})
	return nil
}

// ---- elements ----

func cloneElement(e models.Element) models.Element {
	e.Properties = maps.Clone(e.Properties)
	return e
}

func (t *memTx) GetElement(id string) (*models.Element, error) {
	defer t.read()()
	row, ok := t.elements.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	row = cloneElement(row)
	return &row, nil
}

func (t *memTx) ListElements(floorPlanID string) ([]models.Element, error) {
	defer t.read()()
	rows := t.elements.where(func(e models.Element) bool { return e.FloorPlanID == floorPlanID })
	for i := range rows {
		rows[i] = cloneElement(rows[i])
	}
	return rows, nil
}

func (t *memTx) CreateElement(e *models.Element) error {
	defer t.read()()
	if t.elements.has(e.ID) {
		return ErrDuplicate
	}
	if !t.plans.has(e.FloorPlanID) {
		return ErrNotFound
	}
	t.stamp(&e.CreatedAt, &e.UpdatedAt)
	t.elements.put(e.ID, cloneElement(*e))
	return nil
}

func (t *memTx) UpdateElement(e *models.Element) error {
	defer t.read()()
	if !t.elements.has(e.ID) {
		return ErrNotFound
	}
	t.stamp(nil, &e.UpdatedAt)
	t.elements.put(e.ID, cloneElement(*e))
	return nil
}

func (t *memTx) DeleteElement(id string) error {
	defer t.read()()
	if !t.elements.has(id) {
		return ErrNotFound
	}
	t.sweep(node{nodeElement, id})
	return nil
}

// ---- racks ----

func (t *memTx) GetRack(id string) (*models.Rack, error) {
	defer t.read()()
	row, ok := t.racks.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (t *memTx) ListRacks(floorPlanID string) ([]models.Rack, error) {
	defer t.read()()
	return t.racks.where(func(r models.Rack) bool { return r.FloorPlanID == floorPlanID }), nil
}

func (t *memTx) CreateRack(r *models.Rack) error {
	defer t.read()()
	if t.racks.has(r.ID) {
		return ErrDuplicate
	}
	if !t.plans.has(r.FloorPlanID) {
		return ErrNotFound
	}
	t.stamp(&r.CreatedAt, &r.UpdatedAt)
	row := *r
	row.Equipment = nil
	t.racks.put(r.ID, row)
	return nil
}

func (t *memTx) UpdateRack(r *models.Rack) error {
	defer t.read()()
	if !t.racks.has(r.ID) {
		return ErrNotFound
	}
	t.stamp(nil, &r.UpdatedAt)
	row := *r
	row.Equipment = nil
	t.racks.put(r.ID, row)
	return nil
}

func (t *memTx) DeleteRack(id string) error {
	defer t.read()()
	if !t.racks.has(id) {
		return ErrNotFound
	}
	t.sweep(node{nodeRack, id})
	return nil
}

// ---- equipment ----

func cloneEquipment(e models.Equipment) models.Equipment {
	e.Properties = maps.Clone(e.Properties)
	e.Ports = nil
	return e
}

func (t *memTx) GetEquipment(id string) (*models.Equipment, error) {
	defer t.read()()
	row, ok := t.equipment.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	row = cloneEquipment(row)
	return &row, nil
}

func (t *memTx) ListEquipment(rackID string) ([]models.Equipment, error) {
	defer t.read()()
	rows := t.equipment.where(func(e models.Equipment) bool { return e.RackID == rackID })
	for i := range rows {
		rows[i] = cloneEquipment(rows[i])
	}
	return rows, nil
}

func (t *memTx) CreateEquipment(e *models.Equipment) error {
	defer t.read()()
	if t.equipment.has(e.ID) {
		return ErrDuplicate
	}
	if !t.racks.has(e.RackID) {
		return ErrNotFound
	}
	t.stamp(&e.CreatedAt, &e.UpdatedAt)
	t.equipment.put(e.ID, cloneEquipment(*e))
	return nil
}

func (t *memTx) UpdateEquipment(e *models.Equipment) error {
	defer t.read()()
	if !t.equipment.has(e.ID) {
		return ErrNotFound
	}
	t.stamp(nil, &e.UpdatedAt)
	t.equipment.put(e.ID, cloneEquipment(*e))
	return nil
}

func (t *memTx) DeleteEquipment(id string) error {
	defer t.read()()
	if !t.equipment.has(id) {
		return ErrNotFound
	}
	t.sweep(node{nodeEquipment, id})
	return nil
}

// ---- ports ----

func (t *memTx) GetPort(id string) (*models.Port, error) {
	defer t.read()()
	row, ok := t.ports.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (t *memTx) ListPorts(equipmentID string) ([]models.Port, error) {
	defer t.read()()
	return t.ports.where(func(p models.Port) bool { return p.EquipmentID == equipmentID }), nil
}

func (t *memTx) CreatePort(p *models.Port) error {
	defer t.read()()
	if t.ports.has(p.ID) {
		return ErrDuplicate
	}
	if !t.equipment.has(p.EquipmentID) {
		return ErrNotFound
	}
	t.stamp(&p.CreatedAt, &p.UpdatedAt)
	t.ports.put(p.ID, *p)
	return nil
}

func (t *memTx) UpdatePort(p *models.Port) error {
	defer t.read()()
	if !t.ports.has(p.ID) {
		return ErrNotFound
	}
	t.stamp(nil, &p.UpdatedAt)
	t.ports.put(p.ID, *p)
	return nil
}

func (t *memTx) DeletePort(id string) error {
	defer t.read()()
	if !t.ports.has(id) {
		return ErrNotFound
	}
	t.sweep(node{nodePort, id})
	return nil
}
