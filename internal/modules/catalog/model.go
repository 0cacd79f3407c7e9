package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item in the catalog. Price and tax rate here are
// authoritative; sales capture the unit price at commit time.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Barcode     string          `json:"barcode,omitempty"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	ImageURL    string          `json:"image_url,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Category groups products.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProductRequest is the payload for adding a product. Initial stock
// seeds the product's inventory row.
type CreateProductRequest struct {
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	SKU               string          `json:"sku,omitempty"`
	Barcode           string          `json:"barcode,omitempty"`
	CategoryID        string          `json:"category_id,omitempty"`
	Price             decimal.Decimal `json:"price"`
	CostPrice         decimal.Decimal `json:"cost_price,omitempty"`
	TaxRate           decimal.Decimal `json:"tax_rate,omitempty"`
	ImageURL          string          `json:"image_url,omitempty"`
	InitialStock      int             `json:"initial_stock,omitempty"`
	LowStockThreshold int             `json:"low_stock_threshold,omitempty"`
}

// UpdateProductRequest is the payload for editing a product. Nil fields are
// left unchanged.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	CostPrice   *decimal.Decimal `json:"cost_price,omitempty"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}
