package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/rogerio-castellano/stockroom/internal/alert"
	"github.com/rogerio-castellano/stockroom/internal/models"
)

var exportHeader = []string{"id", "name", "quantity", "alert_threshold", "location", "price", "low_stock"}

const priceColumn = "F"

// Export renders products in the given format. It does not modify products.
func Export(products []models.Product, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return exportCSV(products)
	case FormatXLSX:
		return exportXLSX(products)
	}
	return nil, fmt.Errorf("export: unsupported format %q", string(format))
}

func exportCSV(products []models.Product) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, p := range products {
		if err := w.Write(csvRecord(p)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("writing csv: %w", err)
	}
	return buf.Bytes(), nil
}

func csvRecord(p models.Product) []string {
	threshold := ""
	if p.AlertThreshold != nil {
		threshold = strconv.Itoa(*p.AlertThreshold)
	}
	return []string{
		strconv.Itoa(p.ID),
		p.Name,
		strconv.Itoa(p.Quantity),
		threshold,
		p.Location,
		p.Price.StringFixed(2),
		alert.Marker(alert.IsLowStock(p.Quantity, p.AlertThreshold)),
	}
}

func exportXLSX(products []models.Product) ([]byte, error) {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(book.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	if err := book.SetSheetRow(SheetName, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i, p := range products {
		var threshold any = ""
		if p.AlertThreshold != nil {
			threshold = *p.AlertThreshold
		}
		values := []any{
			p.ID,
			p.Name,
			p.Quantity,
			threshold,
			p.Location,
			p.Price.Round(2).InexactFloat64(),
			alert.Marker(alert.IsLowStock(p.Quantity, p.AlertThreshold)),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := book.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if len(products) > 0 {
		style, err := book.NewStyle(&excelize.Style{NumFmt: 2})
		if err != nil {
			return nil, fmt.Errorf("creating price style: %w", err)
		}
		last := fmt.Sprintf("%s%d", priceColumn, len(products)+1)
		if err := book.SetCellStyle(SheetName, priceColumn+"2", last, style); err != nil {
			return nil, fmt.Errorf("styling prices: %w", err)
		}
	}

	buf, err := book.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encoding workbook: %w", err)
	}
	return buf.Bytes(), nil
}
