// Package tabular translates between product records and spreadsheet-like
// files: delimited text (CSV) and Excel workbooks (XLSX).
package tabular

import (
	"path/filepath"
	"strings"

	"github.com/rogerio-castellano/stockroom/internal/apperrors"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SheetName is the worksheet written by XLSX exports.
const SheetName = "Produkty"

// ParseFormat resolves a format name, extension or file name ("products.XLSX").
func ParseFormat(value string) (Format, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if ext := filepath.Ext(v); ext != "" {
		v = ext
	}
	switch strings.TrimPrefix(v, ".") {
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", apperrors.Newf(apperrors.CodeParse, "unsupported file format %q", value)
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// FileName returns the download name for an export in this format.
func (f Format) FileName() string {
	return "produkty." + string(f)
}
