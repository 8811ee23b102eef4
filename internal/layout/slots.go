package layout

import (
	"sort"

	"github.com/xelth-com/facilitymap/internal/models"
)

// Slot is a contiguous range of rack units [StartU, StartU+HeightU-1]
type Slot struct {
	StartU  int
	HeightU int
}

// EndU is the last occupied unit
func (s Slot) EndU() int { return s.StartU + s.HeightU - 1 }

// Overlaps reports whether two slots share at least one unit.
// Adjacent slots such as [1,2] and [3,4] do not overlap.
func (s Slot) Overlaps(o Slot) bool {
	return max(s.StartU, o.StartU) <= min(s.EndU(), o.EndU())
}

// Occupant is equipment already mounted in a rack
type Occupant struct {
	ID   string
	Slot Slot
}

// OccupantsOf maps mounted equipment to occupants
func OccupantsOf(items []models.Equipment) []Occupant {
	out := make([]Occupant, len(items))
	for i, e := range items {
		out[i] = Occupant{ID: e.ID, Slot: Slot{StartU: e.StartU, HeightU: e.HeightU}}
	}
	return out
}

// TryPlace checks that candidate fits a rack of totalU units without touching
// any occupant other than excludingID (the item being moved, if any).
// It returns nil or a CONFLICT error naming the blocking occupant.
func TryPlace(totalU int, candidate Slot, occupants []Occupant, excludingID string) error {
	if candidate.EndU() > totalU {
		return Conflict("equipment exceeds rack capacity", map[string]any{
			"totalU":         totalU,
			"requestedRange": []int{candidate.StartU, candidate.EndU()},
		})
	}

	sorted := make([]Occupant, 0, len(occupants))
	for _, o := range occupants {
		if excludingID != "" && o.ID == excludingID {
			continue
		}
		sorted = append(sorted, o)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Slot.StartU < sorted[j].Slot.StartU })

	for _, o := range sorted {
		if o.Slot.StartU > candidate.EndU() {
			break
		}
		if candidate.Overlaps(o.Slot) {
			return Conflict("rack units already occupied", map[string]any{
				"occupantId":     o.ID,
				"occupiedRange":  []int{o.Slot.StartU, o.Slot.EndU()},
				"requestedRange": []int{candidate.StartU, candidate.EndU()},
			})
		}
	}
	return nil
}

// CheckCapacity verifies every occupant still fits when a rack is resized
func CheckCapacity(totalU int, occupants []Occupant) error {
	for _, o := range occupants {
		if o.Slot.EndU() > totalU {
			return Conflict("rack capacity is below mounted equipment", map[string]any{
				"occupantId":    o.ID,
				"occupiedRange": []int{o.Slot.StartU, o.Slot.EndU()},
				"totalU":        totalU,
			})
		}
	}
	return nil
}
