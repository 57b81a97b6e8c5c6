package tabular

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rogerio-castellano/stockroom/internal/models"
)

// FieldError is a coercion failure for a single cell.
type FieldError struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

// Row is one parsed data row. Index counts data rows from 1; Line is the
// position in the file, header included. Err is set when a cell could not be
// coerced, in which case the typed fields are incomplete.
type Row struct {
	Index     int               `json:"row"`
	Line      int               `json:"line"`
	Name      string            `json:"name"`
	Quantity  int               `json:"quantity"`
	Threshold *int              `json:"alert_threshold"`
	Location  string            `json:"location"`
	Price     decimal.Decimal   `json:"price"`
	Raw       map[string]string `json:"raw"`
	Err       *FieldError       `json:"error,omitempty"`
}

func (r Row) Valid() bool {
	return r.Err == nil
}

// Input converts a parsed row into create/update fields.
func (r Row) Input() models.ProductInput {
	return models.ProductInput{
		Name:           r.Name,
		Quantity:       r.Quantity,
		AlertThreshold: r.Threshold,
		Location:       r.Location,
		Price:          r.Price,
	}
}
