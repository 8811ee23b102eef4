package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/xelth-com/facilitymap/internal/layout"
	"github.com/xelth-com/facilitymap/internal/models"
)

// change is one line of an apply plan
type change struct {
	action string // create, update, delete
	kind   string // element, rack
	label  string
}

type layoutDiff struct {
	canvas  bool
	changes []change
}

func (d layoutDiff) empty() bool { return !d.canvas && len(d.changes) == 0 }

// diff approximates what a bulk update will do to current. Submitted items
// are counted as updates when their id is known even if nothing changed;
// the server skips those.
func diff(current *models.FloorPlan, in layout.BulkUpdateInput) layoutDiff {
	var d layoutDiff
	if (in.Name != nil && *in.Name != current.Name) ||
		(in.CanvasWidth != nil && *in.CanvasWidth != current.CanvasWidth) ||
		(in.CanvasHeight != nil && *in.CanvasHeight != current.CanvasHeight) ||
		(in.GridSize != nil && *in.GridSize != current.GridSize) ||
		(in.BackgroundColor != nil && *in.BackgroundColor != current.BackgroundColor) {
		d.canvas = true
	}

	elements := layout.Members(current.Elements, func(e models.Element) string { return e.ID })
	racks := layout.Members(current.Racks, func(r models.Rack) string { return r.ID })

	for _, e := range in.Elements {
		action := "create"
		if e.ID != nil && elements.Has(*e.ID) {
			action = "update"
		}
		d.changes = append(d.changes, change{action, "element", e.ElementType})
	}
	for _, r := range in.Racks {
		action := "create"
		if r.ID != nil && racks.Has(*r.ID) {
			action = "update"
		}
		d.changes = append(d.changes, change{action, "rack", r.Name})
	}
	for _, id := range elements.Deletable(in.DeletedElementIDs) {
		d.changes = append(d.changes, change{"delete", "element", id})
	}
	for _, id := range racks.Deletable(in.DeletedRackIDs) {
		d.changes = append(d.changes, change{"delete", "rack", id})
	}
	return d
}

// printer writes colored progress for humans
type printer struct {
	out    io.Writer
	errOut io.Writer
	dryRun bool
}

func newPrinter(dryRun bool) *printer {
	return &printer{out: os.Stdout, errOut: os.Stderr, dryRun: dryRun}
}

func (p *printer) Success(msg string, args ...interface{}) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(p.out, green("✓ "+msg)+"\n", args...)
}

func (p *printer) Info(msg string, args ...interface{}) {
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(p.out, cyan(msg)+"\n", args...)
}

func (p *printer) Error(msg string, err error, args ...interface{}) {
	red := color.New(color.FgRed).SprintFunc()
	if err != nil {
		fmt.Fprintf(p.errOut, red("✗ "+msg+": %v")+"\n", append(args, err)...)
	} else {
		fmt.Fprintf(p.errOut, red("✗ "+msg)+"\n", args...)
	}
}

// Plan lists the pending changes
func (p *printer) Plan(d layoutDiff) {
	prefix := ""
	if p.dryRun {
		prefix = color.New(color.FgYellow).Sprint("[DRY-RUN] ")
	}
	marks := map[string]*color.Color{
		"create": color.New(color.FgGreen),
		"update": color.New(color.FgYellow),
		"delete": color.New(color.FgRed),
	}
	if d.canvas {
		fmt.Fprintf(p.out, "%s%s canvas\n", prefix, marks["update"].Sprint("~"))
	}
	for _, c := range d.changes {
		sym := map[string]string{"create": "+", "update": "~", "delete": "-"}[c.action]
		fmt.Fprintf(p.out, "%s%s %s %s\n", prefix, marks[c.action].Sprint(sym), c.kind, c.label)
	}
}

// FloorPlan prints the canvas and the occupancy of every rack
func (p *printer) FloorPlan(fp *models.FloorPlan) {
	p.Info("%s  %dx%d grid %d  (%d elements, %d racks)",
		fp.Name, fp.CanvasWidth, fp.CanvasHeight, fp.GridSize, len(fp.Elements), len(fp.Racks))
	for _, rk := range fp.Racks {
		used := 0
		for _, e := range rk.Equipment {
			used += e.HeightU
		}
		fmt.Fprintf(p.out, "  %-20s %s %d/%dU\n", rk.Name, usageBar(used, rk.TotalU, 20), used, rk.TotalU)
		for _, e := range rk.Equipment {
			dim := color.New(color.Faint).SprintFunc()
			fmt.Fprintf(p.out, "    %s %s\n", dim(fmt.Sprintf("U%02d-U%02d", e.StartU, e.EndU())), e.Name)
		}
	}
}

// usageBar renders used/total as a colored bar of the given width
func usageBar(used, total, width int) string {
	if total <= 0 {
		return strings.Repeat(" ", width)
	}
	filled := used * width / total
	if filled > width {
		filled = width
	}
	c := color.New(color.FgGreen)
	switch pct := used * 100 / total; {
	case pct >= 90:
		c = color.New(color.FgRed)
	case pct >= 70:
		c = color.New(color.FgYellow)
	}
	return "[" + c.Sprint(strings.Repeat("#", filled)) + strings.Repeat(".", width-filled) + "]"
}
