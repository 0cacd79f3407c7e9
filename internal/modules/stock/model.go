package stock

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementKind classifies an inventory movement.
type MovementKind string

const (
	MovementRestock     MovementKind = "restock"
	MovementAdjustment  MovementKind = "adjustment"
	MovementReservation MovementKind = "reservation"
	MovementRelease     MovementKind = "release"
)

// Status is the derived availability of a product. It is computed on read
// from quantity and threshold and never persisted.
type Status string

const (
	StatusInStock    Status = "in_stock"
	StatusLowStock   Status = "low_stock"
	StatusOutOfStock Status = "out_of_stock"
)

// StatusFor derives the stock status from the current quantity and threshold.
func StatusFor(quantity, lowStockThreshold int) Status {
	switch {
	case quantity == 0:
		return StatusOutOfStock
	case quantity <= lowStockThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Record is a product's quantity-on-hand row. Only the ledger mutates it.
type Record struct {
	ProductID         uuid.UUID  `json:"product_id"`
	Quantity          int        `json:"quantity"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	LastRestocked     *time.Time `json:"last_restocked,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Movement is an immutable audit record of a stock quantity change.
// The sum of QuantityChange for a product always equals its current
// quantity minus its initial quantity.
type Movement struct {
	ID             uuid.UUID    `json:"id"`
	ProductID      uuid.UUID    `json:"product_id"`
	Kind           MovementKind `json:"movement_type"`
	QuantityChange int          `json:"quantity_change"`
	SaleID         *uuid.UUID   `json:"sale_id,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	UserID         *uuid.UUID   `json:"user_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Item is the inventory listing view: the stock record joined with the
// product it tracks, plus the derived status.
type Item struct {
	ProductID         uuid.UUID       `json:"product_id"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku,omitempty"`
	Price             decimal.Decimal `json:"price"`
	Quantity          int             `json:"quantity"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	LastRestocked     *time.Time      `json:"last_restocked,omitempty"`
	Status            Status          `json:"stock_status"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// UpdateStockRequest is the payload for adjusting a product's stock row.
// Quantity, when set, is the new absolute quantity; the ledger records the
// difference as a restock or adjustment movement.
type UpdateStockRequest struct {
	Quantity          *int   `json:"quantity,omitempty"`
	LowStockThreshold *int   `json:"low_stock_threshold,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// InsufficientStockError reports a reservation that asked for more than the
// product had on hand at the instant of the check.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// NotTrackedError is returned when a product has no inventory row.
type NotTrackedError struct {
	ProductID uuid.UUID
}

func (e *NotTrackedError) Error() string {
	return fmt.Sprintf("product %s is not tracked in inventory", e.ProductID)
}
