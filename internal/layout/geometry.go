package layout

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/xelth-com/facilitymap/internal/models"
)

// Canvas and rack bounds
const (
	MinCanvasSize = 100
	MaxCanvasSize = 10000
	MinGridSize   = 5
	MaxGridSize   = 100

	MinRackUnits = 1
	MaxRackUnits = 100

	MinEquipmentHeight = 1
	MaxEquipmentHeight = 12

	maxNameLength = 100
)

var (
	hexColor       = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	substationCode = regexp.MustCompile(`^[A-Z0-9-]+$`)
)

// Vocabulary is the set of element types accepted on a call path
type Vocabulary int

const (
	// VocabularyStructural is used by floor-plan bulk updates
	VocabularyStructural Vocabulary = iota
	// VocabularyShape is used by standalone element mutation
	VocabularyShape
)

// Accepts reports whether kind belongs to the vocabulary
func (v Vocabulary) Accepts(kind string) bool {
	if v == VocabularyShape {
		return models.ShapeKind(kind).Valid()
	}
	return models.StructuralKind(kind).Valid()
}

func (v Vocabulary) String() string {
	if v == VocabularyShape {
		return "line, rect, circle, door, window, text"
	}
	return "wall, door, window, column"
}

// ValidateElementType checks kind against the call path's vocabulary
func ValidateElementType(field string, v Vocabulary, kind string) error {
	if !v.Accepts(kind) {
		return Validation(field, "element type %q must be one of: %s", kind, v)
	}
	return nil
}

// ParseProperties decodes an element/equipment property bag. Absent or null
// yields an empty bag; anything other than a JSON object is rejected.
func ParseProperties(field string, raw json.RawMessage) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]interface{}{}, nil
	}
	if trimmed[0] != '{' {
		return nil, Validation(field, "properties must be an object")
	}
	var props map[string]interface{}
	if err := json.Unmarshal(trimmed, &props); err != nil {
		return nil, Validation(field, "properties must be an object: %v", err)
	}
	return props, nil
}

// ValidateCanvas checks the optional scalar canvas properties
func ValidateCanvas(width, height, grid *int, color *string) error {
	if width != nil && (*width < MinCanvasSize || *width > MaxCanvasSize) {
		return Validation("canvasWidth", "must be between %d and %d", MinCanvasSize, MaxCanvasSize)
	}
	if height != nil && (*height < MinCanvasSize || *height > MaxCanvasSize) {
		return Validation("canvasHeight", "must be between %d and %d", MinCanvasSize, MaxCanvasSize)
	}
	if grid != nil && (*grid < MinGridSize || *grid > MaxGridSize) {
		return Validation("gridSize", "must be between %d and %d", MinGridSize, MaxGridSize)
	}
	if color != nil && !hexColor.MatchString(*color) {
		return Validation("backgroundColor", "must be a hex color like #ffffff")
	}
	return nil
}

// ValidateName checks a required display name
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Validation(field, "is required")
	}
	if len(name) > maxNameLength {
		return Validation(field, "must be at most %d characters", maxNameLength)
	}
	return nil
}

// ValidateRotation accepts quarter turns only
func ValidateRotation(field string, rotation int) error {
	switch rotation {
	case 0, 90, 180, 270:
		return nil
	}
	return Validation(field, "rotation must be one of 0, 90, 180, 270")
}

// ValidateRack checks the geometry of a submitted rack. Name is required
// only when creating.
func ValidateRack(field string, in RackInput, creating bool) error {
	if creating || in.Name != "" {
		if err := ValidateName(field+".name", in.Name); err != nil {
			return err
		}
	}
	if in.Rotation != nil {
		if err := ValidateRotation(field+".rotation", *in.Rotation); err != nil {
			return err
		}
	}
	if in.Width != nil && *in.Width <= 0 {
		return Validation(field+".width", "must be greater than 0")
	}
	if in.Height != nil && *in.Height <= 0 {
		return Validation(field+".height", "must be greater than 0")
	}
	if in.TotalU != nil && (*in.TotalU < MinRackUnits || *in.TotalU > MaxRackUnits) {
		return Validation(field+".totalU", "must be between %d and %d", MinRackUnits, MaxRackUnits)
	}
	return ValidateOrder(field+".sortOrder", in.SortOrder)
}

// ValidateSlot checks startU/heightU in isolation; rack fit is the allocator's job
func ValidateSlot(field string, startU, heightU int) error {
	if startU < 1 {
		return Validation(field+".startU", "must be at least 1")
	}
	if heightU < MinEquipmentHeight || heightU > MaxEquipmentHeight {
		return Validation(field+".heightU", "must be between %d and %d", MinEquipmentHeight, MaxEquipmentHeight)
	}
	return nil
}

// ValidateCategory checks the equipment category enum
func ValidateCategory(field, category string) error {
	if !models.EquipmentCategory(category).Valid() {
		return Validation(field, "unknown equipment category %q", category)
	}
	return nil
}

// ValidatePort checks the port type enum and port number
func ValidatePort(field string, portType *string, portNumber *int) error {
	if portType != nil && !models.PortType(*portType).Valid() {
		return Validation(field+".portType", "must be one of AC, DC, LAN, FIBER, CONSOLE, USB, OTHER")
	}
	if portNumber != nil && *portNumber < 0 {
		return Validation(field+".portNumber", "must be 0 or greater")
	}
	return nil
}

// ValidateSubstationCode accepts uppercase alphanumerics and hyphens
func ValidateSubstationCode(field, code string) error {
	if !substationCode.MatchString(code) {
		return Validation(field, "must contain only A-Z, 0-9 and '-'")
	}
	if len(code) > 50 {
		return Validation(field, "must be at most 50 characters")
	}
	return nil
}
