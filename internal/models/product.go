package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product entity in the inventory system.
type Product struct {
	ID             int             `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string          `gorm:"not null" json:"name"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	AlertThreshold *int            `json:"alert_threshold"`
	Location       string          `json:"location"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// Input returns the editable fields of p.
func (p Product) Input() ProductInput {
	return ProductInput{
		Name:           p.Name,
		Quantity:       p.Quantity,
		AlertThreshold: p.AlertThreshold,
		Location:       p.Location,
		Price:          p.Price,
	}
}

// ProductInput carries the user-editable fields of a product for create and update.
type ProductInput struct {
	Name           string          `json:"name" validate:"required"`
	Quantity       int             `json:"quantity" validate:"min=0"`
	AlertThreshold *int            `json:"alert_threshold" validate:"omitempty,min=0"`
	Location       string          `json:"location"`
	Price          decimal.Decimal `json:"price" validate:"min=0"`
}

// Normalize trims text fields and rounds the price to cents.
func (in ProductInput) Normalize() ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.Price = in.Price.Round(2)
	if in.AlertThreshold != nil {
		v := *in.AlertThreshold
		in.AlertThreshold = &v
	}
	return in
}

// Product builds a record from the input. ID and timestamps are left to the store.
func (in ProductInput) Product() Product {
	return Product{
		Name:           in.Name,
		Quantity:       in.Quantity,
		AlertThreshold: in.AlertThreshold,
		Location:       in.Location,
		Price:          in.Price,
	}
}

// IntPtr is a small helper for optional thresholds.
func IntPtr(v int) *int {
	return &v
}
