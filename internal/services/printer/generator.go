package printer

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/tagwatch/tagwatchgo/internal/models"
)

// SheetConfig holds the grid layout for a printable label sheet
type SheetConfig struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// DefaultSheetConfig is a 3x8 grid on A4, matching common adhesive
// label sheets.
func DefaultSheetConfig() SheetConfig {
	return SheetConfig{
		Cols:       3,
		Rows:       8,
		MarginTop:  10,
		MarginLeft: 7,
		GapX:       3,
		GapY:       3,
	}
}

// GenerateTagLabelsPDF renders one QR label per device onto A4 pages:
// the tag code as QR content, the device name below it. The output is
// meant for printing and sticking next to the physical tag.
func GenerateTagLabelsPDF(devices []models.Device, cfg SheetConfig) ([]byte, error) {
	if cfg.Cols < 1 || cfg.Rows < 1 {
		return nil, fmt.Errorf("invalid sheet layout: %dx%d", cfg.Cols, cfg.Rows)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)

	pageWidth, pageHeight := 210.0, 297.0

	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)

	labelW := (availW - float64(cfg.Cols-1)*cfg.GapX) / float64(cfg.Cols)
	labelH := (availH - float64(cfg.Rows-1)*cfg.GapY) / float64(cfg.Rows)

	labelsPerPage := cfg.Cols * cfg.Rows

	for i, device := range devices {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols

		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		qrPng, err := qrcode.Encode(device.TagID, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("QR encode for tag %s: %w", device.TagID, err)
		}

		imgName := fmt.Sprintf("qr_%d", i)
		imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		_ = pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(qrPng))

		qrSize := labelH * 0.6
		if qrSize > labelW {
			qrSize = labelW * 0.9
		}
		pdf.ImageOptions(imgName, x+(labelW-qrSize)/2, y+2, qrSize, qrSize, false, imgOptions, 0, "")

		pdf.SetXY(x, y+labelH-10)
		pdf.SetFontSize(8)
		pdf.CellFormat(labelW, 4, device.Name, "", 0, "C", false, 0, "")

		pdf.SetXY(x, y+labelH-6)
		pdf.SetFontSize(6)
		pdf.CellFormat(labelW, 3, device.TagID, "", 0, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
