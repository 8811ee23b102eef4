// Package layoutfile reads floor plan layouts kept as YAML in version control
// and turns them into bulk updates.
package layoutfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xelth-com/facilitymap/internal/layout"
)

// Document is one floor plan layout file
type Document struct {
	FloorPlan string    `yaml:"floorPlan,omitempty"`
	Canvas    Canvas    `yaml:"canvas"`
	Elements  []Element `yaml:"elements,omitempty"`
	Racks     []Rack    `yaml:"racks,omitempty"`
	Delete    Deletions `yaml:"delete,omitempty"`
}

// Canvas holds the plan-level fields. Zero values are left untouched.
type Canvas struct {
	Name            string `yaml:"name,omitempty"`
	Width           int    `yaml:"width,omitempty"`
	Height          int    `yaml:"height,omitempty"`
	GridSize        int    `yaml:"gridSize,omitempty"`
	BackgroundColor string `yaml:"backgroundColor,omitempty"`
}

type Element struct {
	ID         string         `yaml:"id,omitempty"`
	Type       string         `yaml:"type"`
	ZIndex     *int           `yaml:"zIndex,omitempty"`
	Visible    *bool          `yaml:"visible,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type Size struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type Rack struct {
	ID          string `yaml:"id,omitempty"`
	Name        string `yaml:"name"`
	Code        string `yaml:"code,omitempty"`
	Description string `yaml:"description,omitempty"`
	Position    *Point `yaml:"position,omitempty"`
	Size        *Size  `yaml:"size,omitempty"`
	Rotation    *int   `yaml:"rotation,omitempty"`
	TotalU      *int   `yaml:"totalU,omitempty"`
	SortOrder   *int   `yaml:"sortOrder,omitempty"`
}

// Deletions lists ids to remove from the plan
type Deletions struct {
	Elements []string `yaml:"elements,omitempty"`
	Racks    []string `yaml:"racks,omitempty"`
}

// Load decodes a layout document. Unknown keys are rejected so typos in a
// reviewed file do not silently drop fields.
func Load(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("layout file is empty")
		}
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile opens and decodes the layout at path
func LoadFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	doc, err := Load(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return doc, nil
}

// Validate catches what the server would reject anyway, with file positions
// in the message instead of request paths
func (d *Document) Validate() error {
	for i, e := range d.Elements {
		if strings.TrimSpace(e.Type) == "" && e.ID == "" {
			return fmt.Errorf("elements[%d]: type is required for new elements", i)
		}
	}
	seen := make(map[string]int, len(d.Racks))
	for i, rk := range d.Racks {
		if strings.TrimSpace(rk.Name) == "" && rk.ID == "" {
			return fmt.Errorf("racks[%d]: name is required for new racks", i)
		}
		if rk.ID == "" {
			continue
		}
		if j, dup := seen[rk.ID]; dup {
			return fmt.Errorf("racks[%d]: id %s already used by racks[%d]", i, rk.ID, j)
		}
		seen[rk.ID] = i
	}
	return nil
}

// BulkInput converts the document to the payload of a bulk update
func (d *Document) BulkInput() (layout.BulkUpdateInput, error) {
	in := layout.BulkUpdateInput{
		Name:              nonEmpty(d.Canvas.Name),
		CanvasWidth:       nonZero(d.Canvas.Width),
		CanvasHeight:      nonZero(d.Canvas.Height),
		GridSize:          nonZero(d.Canvas.GridSize),
		BackgroundColor:   nonEmpty(d.Canvas.BackgroundColor),
		Elements:          make([]layout.ElementInput, 0, len(d.Elements)),
		Racks:             make([]layout.RackInput, 0, len(d.Racks)),
		DeletedElementIDs: d.Delete.Elements,
		DeletedRackIDs:    d.Delete.Racks,
	}

	for i, e := range d.Elements {
		item := layout.ElementInput{
			ID:          nonEmpty(e.ID),
			ElementType: e.Type,
			ZIndex:      e.ZIndex,
			IsVisible:   e.Visible,
		}
		if e.Properties != nil {
			raw, err := json.Marshal(e.Properties)
			if err != nil {
				return layout.BulkUpdateInput{}, fmt.Errorf("elements[%d].properties: %w", i, err)
			}
			item.Properties = raw
		}
		in.Elements = append(in.Elements, item)
	}

	for _, rk := range d.Racks {
		item := layout.RackInput{
			ID:          nonEmpty(rk.ID),
			Name:        rk.Name,
			Code:        nonEmpty(rk.Code),
			Description: nonEmpty(rk.Description),
			Rotation:    rk.Rotation,
			TotalU:      rk.TotalU,
			SortOrder:   rk.SortOrder,
		}
		if rk.Position != nil {
			item.PositionX = &rk.Position.X
			item.PositionY = &rk.Position.Y
		}
		if rk.Size != nil {
			item.Width = &rk.Size.Width
			item.Height = &rk.Size.Height
		}
		in.Racks = append(in.Racks, item)
	}
	return in, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonZero(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
