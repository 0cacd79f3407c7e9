package customer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	ListCustomers(ctx context.Context, search string) ([]*Customer, error)
	UpdateCustomer(ctx context.Context, id string, req UpdateCustomerRequest) (*Customer, error)
	DeactivateCustomer(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	if req.FirstName == "" || req.LastName == "" {
		return nil, fmt.Errorf("first_name and last_name are required")
	}

	c := &Customer{
		ID:        uuid.New(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	cid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id: %w", err)
	}
	return s.repo.GetByID(ctx, cid)
}

func (s *service) ListCustomers(ctx context.Context, search string) ([]*Customer, error) {
	return s.repo.List(ctx, search)
}

func (s *service) UpdateCustomer(ctx context.Context, id string, req UpdateCustomerRequest) (*Customer, error) {
	cid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id: %w", err)
	}
	return s.repo.Update(ctx, cid, req)
}

func (s *service) DeactivateCustomer(ctx context.Context, id string) error {
	cid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid customer id: %w", err)
	}
	return s.repo.Deactivate(ctx, cid)
}
