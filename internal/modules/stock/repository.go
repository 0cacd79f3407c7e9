package stock

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows the inventory listing.
type ListFilter struct {
	Search string // matches product name or SKU
	Filter string // "low" | "out" | ""
}

// Repository defines data access for inventory views and manual adjustments.
// All quantity mutations go through the ledger.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]*Item, error)
	LowStock(ctx context.Context) ([]*Item, error)
	GetRecord(ctx context.Context, productID uuid.UUID) (*Record, error)
	Movements(ctx context.Context, productID uuid.UUID, limit, offset int) ([]*Movement, error)

	// SetQuantity moves a product to an absolute quantity through the
	// ledger, reading and adjusting inside one transaction. The movement is
	// nil when the quantity was already at the target.
	SetQuantity(ctx context.Context, productID uuid.UUID, quantity int, notes string, userID uuid.UUID) (*Movement, error)
	SetThreshold(ctx context.Context, productID uuid.UUID, threshold int) error
}
