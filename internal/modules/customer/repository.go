package customer

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	List(ctx context.Context, search string) ([]*Customer, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*Customer, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	AddLoyaltyPoints(ctx context.Context, id uuid.UUID, points int) error
}
