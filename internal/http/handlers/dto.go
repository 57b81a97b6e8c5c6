package handlers

import (
	"github.com/shopspring/decimal"

	"github.com/rogerio-castellano/stockroom/internal/inventory"
	"github.com/rogerio-castellano/stockroom/internal/models"
	"github.com/rogerio-castellano/stockroom/internal/tabular"
)

type ProductRequest struct {
	Name           string          `json:"name"`
	Quantity       *int            `json:"quantity" validate:"required"`
	AlertThreshold *int            `json:"alert_threshold"`
	Location       string          `json:"location"`
	Price          decimal.Decimal `json:"price"`
}

// input checks the fields that cannot be told apart from their zero value
// once copied into a ProductInput.
func (p ProductRequest) input() (models.ProductInput, error) {
	if err := models.ValidateStruct(p); err != nil {
		return models.ProductInput{}, err
	}
	return models.ProductInput{
		Name:           p.Name,
		Quantity:       *p.Quantity,
		AlertThreshold: p.AlertThreshold,
		Location:       p.Location,
		Price:          p.Price,
	}, nil
}

// ProductUpdateRequest is one row of a bulk save.
type ProductUpdateRequest struct {
	Id int `json:"id"`
	ProductRequest
}

type ProductResponse struct {
	Id             int    `json:"id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	AlertThreshold *int   `json:"alert_threshold"`
	Location       string `json:"location"`
	// Price is rendered with two decimals, e.g. "25.99".
	Price    string `json:"price"`
	LowStock bool   `json:"low_stock"`
}

func toProductResponse(v inventory.ProductView) ProductResponse {
	return ProductResponse{
		Id:             v.ID,
		Name:           v.Name,
		Quantity:       v.Quantity,
		AlertThreshold: v.AlertThreshold,
		Location:       v.Location,
		Price:          v.Price.StringFixed(2),
		LowStock:       v.LowStock,
	}
}

type Meta struct {
	TotalCount int `json:"total_count"`
	LowStock   int `json:"low_stock"`
}

type ProductsResult struct {
	Data []ProductResponse `json:"data"`
	Meta Meta              `json:"meta"`
}

type UnlockRequest struct {
	Passphrase string `json:"passphrase"`
}

type StatusResponse struct {
	State    string `json:"state"`
	Unlocked bool   `json:"unlocked"`
}

type ImportProductsResult struct {
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Errors    []inventory.RowError   `json:"errors"`
	Outcomes  []inventory.RowOutcome `json:"outcomes"`
}

func toImportResult(b inventory.BatchResult) ImportProductsResult {
	return ImportProductsResult{
		Succeeded: b.Succeeded,
		Failed:    b.Failed,
		Errors:    b.Failures,
		Outcomes:  b.Outcomes,
	}
}

type PreviewResult struct {
	Rows      []tabular.Row        `json:"rows"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Errors    []inventory.RowError `json:"errors"`
}

type DashboardResponse struct {
	TotalProducts  int    `json:"total_products"`
	TotalQuantity  int    `json:"total_quantity"`
	LowStockCount  int    `json:"low_stock_count"`
	InventoryValue string `json:"inventory_value"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}
