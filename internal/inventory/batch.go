package inventory

import (
	"fmt"
	"strconv"

	"github.com/rogerio-castellano/stockroom/internal/apperrors"
	"github.com/rogerio-castellano/stockroom/internal/models"
	"github.com/rogerio-castellano/stockroom/internal/tabular"
)

// RowError explains why a row of a batch was not stored.
type RowError struct {
	Row     int               `json:"row"`
	Line    int               `json:"line"`
	Field   string            `json:"field,omitempty"`
	Value   string            `json:"value,omitempty"`
	Reason  string            `json:"reason"`
	Content map[string]string `json:"content"`
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("row %d: %s %q: %s", e.Row, e.Field, e.Value, e.Reason)
}

// RowOutcome is the result for one data row: a product id or an error.
type RowOutcome struct {
	Row       int       `json:"row"`
	Line      int       `json:"line"`
	ProductID int       `json:"product_id,omitempty"`
	Err       *RowError `json:"error,omitempty"`
}

func (o RowOutcome) OK() bool {
	return o.Err == nil
}

type BatchResult struct {
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Outcomes  []RowOutcome `json:"outcomes"`
	Failures  []RowError   `json:"failures"`
}

// Summarize folds per-row outcomes into batch totals.
func Summarize(outcomes []RowOutcome) BatchResult {
	result := BatchResult{Outcomes: outcomes, Failures: []RowError{}}
	if result.Outcomes == nil {
		result.Outcomes = []RowOutcome{}
	}
	for _, o := range outcomes {
		if o.OK() {
			result.Succeeded++
			continue
		}
		result.Failed++
		result.Failures = append(result.Failures, *o.Err)
	}
	return result
}

// checkRow reports coercion and validation problems of a parsed row.
func checkRow(row tabular.Row) *RowError {
	if !row.Valid() {
		return newRowError(row, row.Err.Field, row.Err.Value, row.Err.Reason)
	}
	err := row.Input().Validate()
	if err == nil {
		return nil
	}
	if fields, ok := apperrors.As(err).Details().([]apperrors.FieldError); ok && len(fields) > 0 {
		f := fields[0]
		return newRowError(row, f.Field, inputValue(row.Input(), f.Field), f.Description)
	}
	return newRowError(row, "", "", err.Error())
}

// checkUpdate reports why an edited record cannot be saved, if it cannot.
func checkUpdate(n int, u ProductUpdate) *RowError {
	err := u.Err
	if err == nil {
		err = u.Input.Validate()
	}
	if err == nil {
		return nil
	}
	if fields, ok := apperrors.As(err).Details().([]apperrors.FieldError); ok && len(fields) > 0 {
		f := fields[0]
		return updateError(n, u, f.Field, inputValue(u.Input, f.Field), f.Description)
	}
	return updateError(n, u, "", "", err.Error())
}

func updateError(n int, u ProductUpdate, field, value, reason string) *RowError {
	return &RowError{
		Row:    n,
		Field:  field,
		Value:  value,
		Reason: reason,
		Content: map[string]string{
			"id":   strconv.Itoa(u.ID),
			"name": u.Input.Name,
		},
	}
}

func inputValue(in models.ProductInput, field string) string {
	switch field {
	case "name":
		return in.Name
	case "quantity":
		return strconv.Itoa(in.Quantity)
	case "alert_threshold":
		if in.AlertThreshold != nil {
			return strconv.Itoa(*in.AlertThreshold)
		}
	case "price":
		return in.Price.String()
	}
	return ""
}

func newRowError(row tabular.Row, field, value, reason string) *RowError {
	return &RowError{
		Row:     row.Index,
		Line:    row.Line,
		Field:   field,
		Value:   value,
		Reason:  reason,
		Content: row.Raw,
	}
}

