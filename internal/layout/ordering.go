package layout

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/xelth-com/facilitymap/internal/models"
)

// NextOrder returns max(existing)+1, or 0 for the first member
func NextOrder(existing []int) int {
	if len(existing) == 0 {
		return 0
	}
	return slices.Max(existing) + 1
}

// ValidateOrder accepts an omitted order or any value >= 0
func ValidateOrder(field string, order *int) error {
	if order != nil && *order < 0 {
		return Validation(field, "must be 0 or greater")
	}
	return nil
}

// orderSeq hands out append positions for a batch of inserts into one
// sibling set. Explicit orders are honoured and push the sequence forward.
type orderSeq struct {
	next int
}

func newOrderSeq(existing []int) *orderSeq {
	return &orderSeq{next: NextOrder(existing)}
}

func (s *orderSeq) take(explicit *int) int {
	v := s.next
	if explicit != nil {
		v = *explicit
	}
	if v >= s.next {
		s.next = v + 1
	}
	return v
}

// seen registers an existing member's order that changed during the batch
func (s *orderSeq) seen(v int) {
	if v >= s.next {
		s.next = v + 1
	}
}

// sortSiblings orders by (order, created, id); ties on order fall back to
// insertion time and then id
func sortSiblings[T any](rows []T, key func(T) (int, time.Time, string)) {
	slices.SortStableFunc(rows, func(a, b T) int {
		ao, at, aid := key(a)
		bo, bt, bid := key(b)
		if c := cmp.Compare(ao, bo); c != 0 {
			return c
		}
		if c := at.Compare(bt); c != 0 {
			return c
		}
		return strings.Compare(aid, bid)
	})
}

func SortSubstations(rows []models.Substation) {
	sortSiblings(rows, func(s models.Substation) (int, time.Time, string) { return s.SortOrder, s.CreatedAt, s.ID })
}

func SortFloors(rows []models.Floor) {
	sortSiblings(rows, func(f models.Floor) (int, time.Time, string) { return f.SortOrder, f.CreatedAt, f.ID })
}

// SortElements orders by paint order
func SortElements(rows []models.Element) {
	sortSiblings(rows, func(e models.Element) (int, time.Time, string) { return e.ZIndex, e.CreatedAt, e.ID })
}

func SortRacks(rows []models.Rack) {
	sortSiblings(rows, func(r models.Rack) (int, time.Time, string) { return r.SortOrder, r.CreatedAt, r.ID })
}

func SortEquipment(rows []models.Equipment) {
	sortSiblings(rows, func(e models.Equipment) (int, time.Time, string) { return e.SortOrder, e.CreatedAt, e.ID })
}

func SortPorts(rows []models.Port) {
	sortSiblings(rows, func(p models.Port) (int, time.Time, string) { return p.SortOrder, p.CreatedAt, p.ID })
}

func rackOrders(rows []models.Rack) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.SortOrder
	}
	return out
}

func elementZ(rows []models.Element) []int {
	out := make([]int, len(rows))
	for i, e := range rows {
		out[i] = e.ZIndex
	}
	return out
}

func equipmentOrders(rows []models.Equipment) []int {
	out := make([]int, len(rows))
	for i, e := range rows {
		out[i] = e.SortOrder
	}
	return out
}

func portOrders(rows []models.Port) []int {
	out := make([]int, len(rows))
	for i, p := range rows {
		out[i] = p.SortOrder
	}
	return out
}

func floorOrders(rows []models.Floor) []int {
	out := make([]int, len(rows))
	for i, f := range rows {
		out[i] = f.SortOrder
	}
	return out
}

func substationOrders(rows []models.Substation) []int {
	out := make([]int, len(rows))
	for i, s := range rows {
		out[i] = s.SortOrder
	}
	return out
}
