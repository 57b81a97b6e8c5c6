package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/rogerio-castellano/stockroom/internal/apperrors"
)

const (
	colName      = "name"
	colQuantity  = "quantity"
	colThreshold = "alert_threshold"
	colLocation  = "location"
	colPrice     = "price"
)

// headerAliases maps accepted header cells to canonical columns. Matching is
// case-sensitive.
var headerAliases = map[string]string{
	"nazwa":           colName,
	"name":            colName,
	"ilosc":           colQuantity,
	"quantity":        colQuantity,
	"prog_alertu":     colThreshold,
	"alert_threshold": colThreshold,
	"threshold":       colThreshold,
	"lokalizacja":     colLocation,
	"location":        colLocation,
	"cena":            colPrice,
	"price":           colPrice,
}

var requiredColumns = []struct {
	canonical string
	label     string
}{
	{colName, "nazwa/name"},
	{colQuantity, "ilosc/quantity"},
	{colThreshold, "prog_alertu/threshold"},
	{colLocation, "lokalizacja/location"},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type record struct {
	line   int
	fields []string
}

// Parse reads every data row of a CSV or XLSX file. Unreadable input or a
// header without the required columns fails the whole file with PARSE_ERROR;
// problems in individual cells are reported on the affected Row instead.
func Parse(data []byte, format Format) ([]Row, error) {
	var (
		records []record
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = readCSV(data)
	case FormatXLSX:
		records, err = readXLSX(data)
	default:
		return nil, apperrors.Newf(apperrors.CodeParse, "unsupported file format %q", string(format))
	}
	if err != nil {
		return nil, err
	}
	return parseRecords(records)
}

func readCSV(data []byte) ([]record, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperrors.New(apperrors.CodeParse, "file is empty")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeParse, err, "invalid CSV")
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
	return records, nil
}

// sniffDelimiter picks the most frequent of , ; and tab in the header line.
func sniffDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	best, bestCount := ',', bytes.Count(header, []byte{','})
	for _, candidate := range []rune{';', '\t'} {
		if n := bytes.Count(header, []byte(string(candidate))); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}

func readXLSX(data []byte) ([]record, error) {
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.CodeParse, "file is empty")
	}
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParse, err, "invalid XLSX workbook")
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.New(apperrors.CodeParse, "workbook has no sheets")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParse, err, "reading sheet "+sheets[0])
	}

	records := make([]record, 0, len(rows))
	for i, fields := range rows {
		records = append(records, record{line: i + 1, fields: fields})
	}
	return records, nil
}

func parseRecords(records []record) ([]Row, error) {
	start := 0
	for start < len(records) && isBlank(records[start].fields) {
		start++
	}
	if start == len(records) {
		return nil, apperrors.New(apperrors.CodeParse, "header row is missing")
	}

	header := records[start].fields
	index := map[string]int{}
	for i, cell := range header {
		canonical, ok := headerAliases[strings.TrimSpace(cell)]
		if !ok {
			continue
		}
		if _, seen := index[canonical]; !seen {
			index[canonical] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col.canonical]; !ok {
			missing = append(missing, col.label)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.New(apperrors.CodeParse, "missing required columns: "+strings.Join(missing, ", ")).
			WithDetails(map[string][]string{"missing_columns": missing})
	}

	rows := make([]Row, 0, len(records)-start-1)
	for _, rec := range records[start+1:] {
		if isBlank(rec.fields) {
			continue
		}
		rows = append(rows, parseRow(len(rows)+1, rec, header, index))
	}
	return rows, nil
}

func parseRow(n int, rec record, header []string, index map[string]int) Row {
	row := Row{Index: n, Line: rec.line, Raw: make(map[string]string, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		row.Raw[name] = cellAt(rec.fields, i)
	}

	cell := func(col string) string {
		i, ok := index[col]
		if !ok {
			return ""
		}
		return strings.TrimSpace(cellAt(rec.fields, i))
	}
	fail := func(field, value, reason string) Row {
		row.Err = &FieldError{Field: field, Value: value, Reason: reason}
		return row
	}

	row.Name = cell(colName)
	row.Location = cell(colLocation)

	raw := cell(colQuantity)
	if raw == "" {
		return fail(colQuantity, raw, "is missing")
	}
	quantity, err := parseInteger(raw)
	if err != nil {
		return fail(colQuantity, raw, err.Error())
	}
	row.Quantity = quantity

	if raw = cell(colThreshold); raw != "" {
		threshold, err := parseInteger(raw)
		if err != nil {
			return fail(colThreshold, raw, err.Error())
		}
		row.Threshold = &threshold
	}

	price, err := parsePrice(cell(colPrice))
	if err != nil {
		return fail(colPrice, cell(colPrice), err.Error())
	}
	row.Price = price

	return row
}

var (
	errNotInteger = errors.New("is not an integer")
	errOutOfRange = errors.New("is out of range")
	errNotDecimal = errors.New("is not a decimal number")
)

// parseInteger accepts plain integers and integral decimals such as "5.0",
// which spreadsheets produce for numeric cells.
func parseInteger(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, errOutOfRange
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, errNotInteger
	}
	if d.LessThan(minInt) || d.GreaterThan(maxInt) {
		return 0, errOutOfRange
	}
	return int(d.IntPart()), nil
}

var (
	minInt = decimal.NewFromInt(math.MinInt)
	maxInt = decimal.NewFromInt(math.MaxInt)
)

// parsePrice accepts "12.50", "12,50" and "12.50 zł". An empty cell is zero.
func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "zł"))
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, " ", "")
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errNotDecimal
	}
	return d.Round(2), nil
}

func cellAt(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
