// Package export renders floor-plan inventories as spreadsheets
package export

import (
	"bytes"
	"fmt"

	"github.com/xelth-com/facilitymap/internal/models"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the inventory workbook
const (
	SheetRacks     = "Racks"
	SheetEquipment = "Equipment"
	SheetPorts     = "Ports"
)

var (
	rackHeaders      = []string{"Rack", "Code", "Total U", "Used U", "Free U", "Position X", "Position Y", "Rotation"}
	equipmentHeaders = []string{"Rack", "Equipment", "Category", "Start U", "End U", "Height U", "Manufacturer", "Model", "Serial Number", "Install Date", "Manager"}
	portHeaders      = []string{"Rack", "Equipment", "Port", "Type", "Number", "Label", "Speed", "Connector"}
)

// InventoryXLSX builds a workbook with one sheet per level of the rack tree
func InventoryXLSX(fp *models.FloorPlan) ([]byte, error) {
	f := excelize.NewFile()
	// Note: WriteTo needs the file open, so Close happens after writing

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	var racks, equipment, ports [][]any
	for _, r := range fp.Racks {
		used := 0
		for _, e := range r.Equipment {
			used += e.HeightU
			equipment = append(equipment, []any{
				r.Name, e.Name, e.Category, e.StartU, e.EndU(), e.HeightU,
				str(e.Manufacturer), str(e.Model), str(e.SerialNumber), date(e), str(e.Manager),
			})
			for _, p := range e.Ports {
				var number any = ""
				if p.PortNumber != nil {
					number = *p.PortNumber
				}
				ports = append(ports, []any{
					r.Name, e.Name, p.Name, p.PortType, number, str(p.Label), str(p.Speed), str(p.ConnectorType),
				})
			}
		}
		racks = append(racks, []any{
			r.Name, str(r.Code), r.TotalU, used, r.TotalU - used, r.PositionX, r.PositionY, r.Rotation,
		})
	}

	if err := writeSheet(f, SheetRacks, header, rackHeaders, racks); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, SheetEquipment, header, equipmentHeaders, equipment); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, SheetPorts, header, portHeaders, ports); err != nil {
		f.Close()
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(SheetRacks); err == nil {
		f.SetActiveSheet(idx)
	}
	f.SetDocProps(&excelize.DocProperties{Title: fp.Name + " inventory", Creator: "facilitymap"})

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, style int, headers []string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(name, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, colName, colName, 18); err != nil {
			return err
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, name, err)
		}
	}
	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func date(e models.Equipment) string {
	if e.InstallDate == nil {
		return ""
	}
	return e.InstallDate.Format("2006-01-02")
}
