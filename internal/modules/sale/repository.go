package sale

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for sales.
type Repository interface {
	ProductLookup

	// CreateSale persists the sale, its items, the stock reservations, and
	// their movements in one atomic transaction. Returns
	// ErrDuplicateSaleNumber (wrapped) on a sale-number collision.
	CreateSale(ctx context.Context, s *Sale) error

	GetByID(ctx context.Context, id string) (*Sale, error)
	GetByNumber(ctx context.Context, saleNumber string) (*Sale, error)
	List(ctx context.Context, f ListFilter) ([]*Sale, error)

	// UpdateFulfillment applies the transition only if the sale is still in
	// the from status, so a racing cancel is never overwritten.
	UpdateFulfillment(ctx context.Context, id uuid.UUID, from, to FulfillmentStatus) error

	// Cancel marks the sale cancelled and writes compensating release
	// movements for every line, atomically.
	Cancel(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error
}
