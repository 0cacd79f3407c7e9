package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service defines catalog business logic.
type Service interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, search, categoryID string, limit, offset int) ([]*Product, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error)
	DeactivateProduct(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, name, description string) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
}

type service struct{ repo Repository }

// NewService creates a new catalog service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("price cannot be negative")
	}
	if req.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax_rate cannot be negative")
	}
	if req.InitialStock < 0 {
		return nil, fmt.Errorf("initial_stock cannot be negative")
	}

	p := &Product{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		SKU:         req.SKU,
		Barcode:     req.Barcode,
		Price:       req.Price,
		CostPrice:   req.CostPrice,
		TaxRate:     req.TaxRate,
		ImageURL:    req.ImageURL,
		IsActive:    true,
	}
	if req.CategoryID != "" {
		cid, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("invalid category_id: %w", err)
		}
		p.CategoryID = &cid
	}

	threshold := req.LowStockThreshold
	if threshold <= 0 {
		threshold = 10
	}
	if err := s.repo.CreateProduct(ctx, p, req.InitialStock, threshold); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetProductByID(ctx, id)
}

func (s *service) ListProducts(ctx context.Context, search, categoryID string, limit, offset int) ([]*Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListProducts(ctx, search, categoryID, limit, offset)
}

func (s *service) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	if req.Price != nil && req.Price.IsNegative() {
		return nil, fmt.Errorf("price cannot be negative")
	}
	if req.TaxRate != nil && req.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax_rate cannot be negative")
	}
	if err := s.repo.UpdateProduct(ctx, id, req); err != nil {
		return nil, err
	}
	return s.repo.GetProductByID(ctx, id)
}

func (s *service) DeactivateProduct(ctx context.Context, id string) error {
	return s.repo.DeactivateProduct(ctx, id)
}

func (s *service) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	c := &Category{ID: uuid.New(), Name: name, Description: description}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}
