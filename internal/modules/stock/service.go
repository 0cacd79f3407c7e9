package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service defines inventory business logic over the ledger and views.
type Service interface {
	ListStock(ctx context.Context, f ListFilter) ([]*Item, error)
	LowStock(ctx context.Context) ([]*Item, error)
	Movements(ctx context.Context, productID string, limit, offset int) ([]*Movement, error)

	// UpdateStock applies an absolute quantity and/or threshold change.
	// The quantity difference is written through the ledger as a restock or
	// adjustment movement attributed to the acting user.
	UpdateStock(ctx context.Context, productID string, req UpdateStockRequest, actorID uuid.UUID) (*Record, error)
}

type service struct{ repo Repository }

// NewService creates a new inventory service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) ListStock(ctx context.Context, f ListFilter) ([]*Item, error) {
	return s.repo.List(ctx, f)
}

func (s *service) LowStock(ctx context.Context) ([]*Item, error) {
	return s.repo.LowStock(ctx)
}

func (s *service) Movements(ctx context.Context, productID string, limit, offset int) ([]*Movement, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.Movements(ctx, pid, limit, offset)
}

func (s *service) UpdateStock(ctx context.Context, productID string, req UpdateStockRequest, actorID uuid.UUID) (*Record, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}
	if req.Quantity == nil && req.LowStockThreshold == nil {
		return nil, fmt.Errorf("no fields to update")
	}

	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, fmt.Errorf("quantity cannot be negative")
		}
		if _, err := s.repo.SetQuantity(ctx, pid, *req.Quantity, req.Notes, actorID); err != nil {
			return nil, err
		}
	}

	if req.LowStockThreshold != nil {
		if *req.LowStockThreshold < 0 {
			return nil, fmt.Errorf("low_stock_threshold cannot be negative")
		}
		if err := s.repo.SetThreshold(ctx, pid, *req.LowStockThreshold); err != nil {
			return nil, err
		}
	}

	return s.repo.GetRecord(ctx, pid)
}
