package printer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"github.com/xelth-com/facilitymap/internal/models"
)

// LabelConfig holds the sheet geometry for asset labels
type LabelConfig struct {
	BaseURL    string  `json:"baseUrl"` // QR target prefix, e.g. https://layout.example.com
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// DefaultLabelConfig is a 3x8 sheet of A4 labels
func DefaultLabelConfig(baseURL string) LabelConfig {
	return LabelConfig{BaseURL: baseURL, Cols: 3, Rows: 8, MarginTop: 10, MarginLeft: 8, GapX: 3, GapY: 2}
}

// LabelURL is the short link encoded in an equipment QR code. It is upper
// case so the QR encoder can use alphanumeric mode; the server lowercases
// incoming paths.
func LabelURL(baseURL, equipmentID string) string {
	return strings.ToUpper(strings.TrimRight(baseURL, "/") + "/E/" + equipmentID)
}

func qrImage(pdf *gofpdf.Fpdf, name, content string) (gofpdf.ImageOptions, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return gofpdf.ImageOptions{}, err
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	return opts, pdf.Error()
}

// GenerateLabelsPDF creates a sheet of QR asset labels, one per equipment item
func GenerateLabelsPDF(items []models.Equipment, rackName string, cfg LabelConfig) ([]byte, error) {
	if cfg.Cols <= 0 || cfg.Rows <= 0 {
		return nil, fmt.Errorf("label sheet needs at least one row and column")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)

	// A4 dimensions
	pageWidth, pageHeight := 210.0, 297.0

	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY
	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)
	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)

	labelsPerPage := cfg.Cols * cfg.Rows
	if len(items) == 0 {
		pdf.AddPage()
	}

	for i, e := range items {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols
		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		imgName := "qr_" + e.ID
		opts, err := qrImage(pdf, imgName, LabelURL(cfg.BaseURL, e.ID))
		if err != nil {
			return nil, err
		}

		// QR on the left, text block on the right
		qrSize := labelH * 0.85
		if qrSize > labelW*0.45 {
			qrSize = labelW * 0.45
		}
		pdf.ImageOptions(imgName, x+1, y+(labelH-qrSize)/2, qrSize, qrSize, false, opts, 0, "")

		textX := x + qrSize + 2
		textW := labelW - qrSize - 3
		pdf.SetXY(textX, y+2)
		pdf.SetFont("Arial", "B", 8)
		pdf.CellFormat(textW, 4, pdf.UnicodeTranslatorFromDescriptor("")(e.Name), "", 2, "L", false, 0, "")
		pdf.SetFont("Arial", "", 6)
		pdf.SetX(textX)
		pdf.CellFormat(textW, 3, fmt.Sprintf("%s U%d-U%d", rackName, e.StartU, e.EndU()), "", 2, "L", false, 0, "")
		if e.SerialNumber != nil {
			pdf.SetX(textX)
			pdf.CellFormat(textW, 3, "S/N "+*e.SerialNumber, "", 2, "L", false, 0, "")
		}
		pdf.SetX(textX)
		pdf.CellFormat(textW, 3, e.Category, "", 2, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
