package layout

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabularies(t *testing.T) {
	for _, kind := range []string{"wall", "door", "window", "column"} {
		assert.True(t, VocabularyStructural.Accepts(kind), kind)
	}
	for _, kind := range []string{"line", "rect", "circle", "door", "window", "text"} {
		assert.True(t, VocabularyShape.Accepts(kind), kind)
	}
	// each path rejects the other's exclusive kinds
	assert.False(t, VocabularyStructural.Accepts("rect"))
	assert.False(t, VocabularyShape.Accepts("wall"))

	le := requireCode(t, ValidateElementType("elements[0].elementType", VocabularyStructural, "circle"), CodeValidation)
	assert.Equal(t, "elements[0].elementType", le.Field)
}

func TestParseProperties(t *testing.T) {
	props, err := ParseProperties("p", nil)
	require.NoError(t, err)
	assert.Empty(t, props)

	props, err = ParseProperties("p", json.RawMessage(" null "))
	require.NoError(t, err)
	assert.NotNil(t, props)

	props, err = ParseProperties("p", json.RawMessage(`{"x":1,"style":{"fill":"#fff"}}`))
	require.NoError(t, err)
	assert.Equal(t, 1.0, props["x"])

	for _, raw := range []string{`[1,2]`, `"wall"`, `42`, `{"x":`} {
		_, err := ParseProperties("p", json.RawMessage(raw))
		requireCode(t, err, CodeValidation)
	}
}

func TestValidateCanvas(t *testing.T) {
	assert.NoError(t, ValidateCanvas(nil, nil, nil, nil))
	assert.NoError(t, ValidateCanvas(ptr(100), ptr(10000), ptr(5), ptr("#AbCdEf")))

	tests := []struct {
		name  string
		err   error
		field string
	}{
		{"narrow", ValidateCanvas(ptr(99), nil, nil, nil), "canvasWidth"},
		{"tall", ValidateCanvas(nil, ptr(10001), nil, nil), "canvasHeight"},
		{"grid", ValidateCanvas(nil, nil, ptr(101), nil), "gridSize"},
		{"color", ValidateCanvas(nil, nil, nil, ptr("white")), "backgroundColor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le := requireCode(t, tt.err, CodeValidation)
			assert.Equal(t, tt.field, le.Field)
		})
	}
}

func TestValidateRack(t *testing.T) {
	ok := RackInput{Name: "R1", Rotation: ptr(270), Width: ptr(60.0), TotalU: ptr(100)}
	assert.NoError(t, ValidateRack("racks[0]", ok, true))

	// name may be omitted on update
	assert.NoError(t, ValidateRack("racks[0]", RackInput{Rotation: ptr(90)}, false))

	tests := []struct {
		name  string
		in    RackInput
		field string
	}{
		{"rotation", RackInput{Name: "R", Rotation: ptr(45)}, "racks[1].rotation"},
		{"width", RackInput{Name: "R", Width: ptr(0.0)}, "racks[1].width"},
		{"height", RackInput{Name: "R", Height: ptr(-1.0)}, "racks[1].height"},
		{"units low", RackInput{Name: "R", TotalU: ptr(0)}, "racks[1].totalU"},
		{"units high", RackInput{Name: "R", TotalU: ptr(101)}, "racks[1].totalU"},
		{"order", RackInput{Name: "R", SortOrder: ptr(-1)}, "racks[1].sortOrder"},
		{"name", RackInput{}, "racks[1].name"},
		{"long name", RackInput{Name: strings.Repeat("r", 101)}, "racks[1].name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le := requireCode(t, ValidateRack("racks[1]", tt.in, true), CodeValidation)
			assert.Equal(t, tt.field, le.Field)
		})
	}
}

func TestValidateSlotAndPort(t *testing.T) {
	assert.NoError(t, ValidateSlot("e", 1, 12))
	assert.Equal(t, "e.startU", requireCode(t, ValidateSlot("e", 0, 1), CodeValidation).Field)
	assert.Equal(t, "e.heightU", requireCode(t, ValidateSlot("e", 1, 13), CodeValidation).Field)

	assert.NoError(t, ValidatePort("port", ptr("FIBER"), ptr(0)))
	assert.Equal(t, "port.portType", requireCode(t, ValidatePort("port", ptr("HDMI"), nil), CodeValidation).Field)
	assert.Equal(t, "port.portNumber", requireCode(t, ValidatePort("port", nil, ptr(-1)), CodeValidation).Field)

	assert.NoError(t, ValidateCategory("category", "PROTECTION"))
	requireCode(t, ValidateCategory("category", "toaster"), CodeValidation)
}

func TestValidateSubstationCode(t *testing.T) {
	assert.NoError(t, ValidateSubstationCode("code", "SUB-01"))
	requireCode(t, ValidateSubstationCode("code", "sub-01"), CodeValidation)
	requireCode(t, ValidateSubstationCode("code", "SUB 01"), CodeValidation)
	requireCode(t, ValidateSubstationCode("code", strings.Repeat("A", 51)), CodeValidation)
}
