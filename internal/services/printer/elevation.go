package printer

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xelth-com/facilitymap/internal/models"
)

// category fill colours for the elevation drawing
var categoryColors = map[string][3]int{
	string(models.CategoryServer):        {170, 200, 240},
	string(models.CategoryNetwork):       {180, 230, 180},
	string(models.CategoryStorage):       {240, 220, 160},
	string(models.CategoryPower):         {245, 175, 160},
	string(models.CategoryProtection):    {230, 180, 230},
	string(models.CategoryCommunication): {170, 225, 225},
	string(models.CategoryMonitoring):    {220, 220, 170},
}

// GenerateElevationPDF draws a rack front elevation: one row per unit,
// numbered bottom-up, with each mounted item as a labelled block and a QR
// code beside it pointing at the item's asset page.
func GenerateElevationPDF(rack *models.Rack, baseURL string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	title := rack.Name
	if rack.Code != nil {
		title += " (" + *rack.Code + ")"
	}
	pdf.CellFormat(190, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	used := 0
	for _, e := range rack.Equipment {
		used += e.HeightU
	}
	pdf.CellFormat(190, 5, fmt.Sprintf("%dU total, %dU used, %d items", rack.TotalU, used, len(rack.Equipment)), "", 1, "L", false, 0, "")

	const (
		top    = 28.0
		left   = 20.0
		width  = 90.0
		bottom = 285.0
	)
	unitH := (bottom - top) / float64(rack.TotalU)
	if unitH > 8 {
		unitH = 8
	}
	// y of the top edge of unit u (1 is at the bottom)
	unitY := func(u int) float64 { return top + float64(rack.TotalU-u)*unitH }

	fontSize := unitH * 2.2
	if fontSize > 8 {
		fontSize = 8
	}
	pdf.SetFont("Arial", "", fontSize)
	pdf.SetDrawColor(160, 160, 160)
	for u := 1; u <= rack.TotalU; u++ {
		y := unitY(u)
		pdf.Rect(left, y, width, unitH, "D")
		pdf.SetXY(left-9, y)
		pdf.CellFormat(8, unitH, fmt.Sprintf("%d", u), "", 0, "R", false, 0, "")
	}

	pdf.SetDrawColor(40, 40, 40)
	for _, e := range rack.Equipment {
		y := unitY(e.EndU())
		h := float64(e.HeightU) * unitH
		c, ok := categoryColors[e.Category]
		if !ok {
			c = [3]int{215, 215, 215}
		}
		pdf.SetFillColor(c[0], c[1], c[2])
		pdf.Rect(left, y, width, h, "FD")
		pdf.SetXY(left+1, y)
		pdf.SetFont("Arial", "B", fontSize)
		pdf.CellFormat(width-2, h, tr(e.Name), "", 0, "LM", false, 0, "")

		imgName := "qr_" + e.ID
		opts, err := qrImage(pdf, imgName, LabelURL(baseURL, e.ID))
		if err != nil {
			return nil, err
		}
		qr := h
		if qr > 20 {
			qr = 20
		}
		pdf.ImageOptions(imgName, left+width+3, y, qr, qr, false, opts, 0, "")
		pdf.SetXY(left+width+qr+5, y)
		pdf.SetFont("Arial", "", fontSize)
		pdf.CellFormat(60, unitH, fmt.Sprintf("U%d-U%d %s", e.StartU, e.EndU(), e.Category), "", 0, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
