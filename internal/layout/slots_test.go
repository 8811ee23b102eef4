package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Slot
		want bool
	}{
		{"adjacent", Slot{1, 2}, Slot{3, 2}, false},
		{"adjacent reversed", Slot{3, 2}, Slot{1, 2}, false},
		{"shared top unit", Slot{1, 4}, Slot{4, 1}, true},
		{"contained", Slot{1, 10}, Slot{3, 2}, true},
		{"identical", Slot{5, 1}, Slot{5, 1}, true},
		{"apart", Slot{1, 1}, Slot{10, 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestTryPlace(t *testing.T) {
	occupants := []Occupant{{ID: "existing", Slot: Slot{StartU: 1, HeightU: 4}}}

	t.Run("overlap names the occupant", func(t *testing.T) {
		err := TryPlace(42, Slot{StartU: 3, HeightU: 2}, occupants, "")
		le := requireCode(t, err, CodeConflict)
		assert.Equal(t, "existing", le.Details["occupantId"])
		assert.Equal(t, []int{1, 4}, le.Details["occupiedRange"])
		assert.Equal(t, []int{3, 4}, le.Details["requestedRange"])
	})

	t.Run("top boundary fits", func(t *testing.T) {
		assert.NoError(t, TryPlace(42, Slot{StartU: 5, HeightU: 38}, occupants, ""))
	})

	t.Run("one past capacity", func(t *testing.T) {
		err := TryPlace(42, Slot{StartU: 5, HeightU: 39}, occupants, "")
		le := requireCode(t, err, CodeConflict)
		assert.Equal(t, 42, le.Details["totalU"])
		assert.Equal(t, []int{5, 43}, le.Details["requestedRange"])
	})

	t.Run("item never conflicts with itself", func(t *testing.T) {
		assert.NoError(t, TryPlace(42, Slot{StartU: 1, HeightU: 4}, occupants, "existing"))
		assert.NoError(t, TryPlace(42, Slot{StartU: 2, HeightU: 4}, occupants, "existing"))
	})

	t.Run("adjacent is free", func(t *testing.T) {
		assert.NoError(t, TryPlace(42, Slot{StartU: 5, HeightU: 1}, occupants, ""))
	})

	t.Run("unsorted occupants", func(t *testing.T) {
		many := []Occupant{
			{ID: "c", Slot: Slot{StartU: 30, HeightU: 2}},
			{ID: "a", Slot: Slot{StartU: 1, HeightU: 2}},
			{ID: "b", Slot: Slot{StartU: 10, HeightU: 5}},
		}
		le := requireCode(t, TryPlace(42, Slot{StartU: 12, HeightU: 1}, many, ""), CodeConflict)
		assert.Equal(t, "b", le.Details["occupantId"])
		assert.NoError(t, TryPlace(42, Slot{StartU: 15, HeightU: 15}, many, ""))
	})
}

func TestCheckCapacity(t *testing.T) {
	occupants := []Occupant{
		{ID: "low", Slot: Slot{StartU: 1, HeightU: 2}},
		{ID: "high", Slot: Slot{StartU: 20, HeightU: 4}},
	}
	require.NoError(t, CheckCapacity(23, occupants))

	le := requireCode(t, CheckCapacity(22, occupants), CodeConflict)
	assert.Equal(t, "high", le.Details["occupantId"])
	assert.Equal(t, 22, le.Details["totalU"])
}
