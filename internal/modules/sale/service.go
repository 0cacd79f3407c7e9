package sale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service is the transaction coordinator: it prices a requested sale and
// commits it atomically, and owns the fulfillment lifecycle afterwards.
type Service interface {
	// CommitSale validates, prices, and atomically commits a sale. Either
	// the sale row, its items, the stock decrements, and their movements all
	// become visible together, or none do.
	CommitSale(ctx context.Context, req CreateSaleRequest, cashierID uuid.UUID) (*CommitResult, error)

	GetSale(ctx context.Context, id string) (*Sale, error)
	GetSaleByNumber(ctx context.Context, saleNumber string) (*Sale, error)
	ListSales(ctx context.Context, f ListFilter) ([]*Sale, error)

	// UpdateFulfillment advances an order-style sale through its lifecycle.
	// Cancelling releases the reserved stock via compensating movements.
	UpdateFulfillment(ctx context.Context, id string, status string, actorID uuid.UUID) (*Sale, error)
}

// saleNumberAttempts bounds collision retries before giving up.
const saleNumberAttempts = 3

type service struct {
	repo    Repository
	builder *Builder
	logger  *slog.Logger
}

// NewService creates the sale service.
func NewService(repo Repository, builder *Builder, logger *slog.Logger) Service {
	return &service{repo: repo, builder: builder, logger: logger}
}

var validTransitions = map[FulfillmentStatus][]FulfillmentStatus{
	FulfillmentPending:    {FulfillmentProcessing, FulfillmentCancelled},
	FulfillmentProcessing: {FulfillmentShipped, FulfillmentCancelled},
	FulfillmentShipped:    {FulfillmentDelivered},
	FulfillmentDelivered:  {},
	FulfillmentCancelled:  {},
}

func (s *service) CommitSale(ctx context.Context, req CreateSaleRequest, cashierID uuid.UUID) (*CommitResult, error) {
	priced, err := s.builder.Build(ctx, req, cashierID)
	if err != nil {
		return nil, err
	}

	paymentStatus := PaymentPending
	if priced.PaymentMethod == MethodCash {
		paymentStatus = PaymentPaid
	}

	sale := &Sale{
		ID:                uuid.New(),
		CustomerID:        priced.CustomerID,
		CashierID:         priced.CashierID,
		Subtotal:          priced.Subtotal,
		TaxAmount:         priced.TaxAmount,
		DiscountAmount:    priced.DiscountAmount,
		TotalAmount:       priced.TotalAmount,
		PaymentMethod:     priced.PaymentMethod,
		PaymentStatus:     paymentStatus,
		FulfillmentStatus: FulfillmentPending,
		Notes:             priced.Notes,
		Items:             priced.Items,
	}

	for attempt := 0; attempt < saleNumberAttempts; attempt++ {
		sale.SaleNumber = generateSaleNumber()
		err = s.repo.CreateSale(ctx, sale)
		if err == nil {
			for _, item := range sale.Items {
				if item.PriceOverridden {
					s.logger.Info("sale committed with overridden price",
						"sale_number", sale.SaleNumber,
						"product_id", item.ProductID.String(),
						"unit_price", item.UnitPrice.String())
				}
			}
			return &CommitResult{
				SaleID:      sale.ID,
				SaleNumber:  sale.SaleNumber,
				TotalAmount: sale.TotalAmount,
			}, nil
		}
		if !errors.Is(err, ErrDuplicateSaleNumber) {
			return nil, err
		}
		s.logger.Warn("sale number collision, retrying", "sale_number", sale.SaleNumber)
	}

	return nil, fmt.Errorf("could not generate a unique sale number after %d attempts: %w",
		saleNumberAttempts, ErrDuplicateSaleNumber)
}

func (s *service) GetSale(ctx context.Context, id string) (*Sale, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetSaleByNumber(ctx context.Context, saleNumber string) (*Sale, error) {
	return s.repo.GetByNumber(ctx, saleNumber)
}

func (s *service) ListSales(ctx context.Context, f ListFilter) ([]*Sale, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

func (s *service) UpdateFulfillment(ctx context.Context, id string, status string, actorID uuid.UUID) (*Sale, error) {
	sale, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("sale not found: %w", err)
	}

	newStatus := FulfillmentStatus(strings.ToLower(status))
	allowed := validTransitions[sale.FulfillmentStatus]
	valid := false
	for _, st := range allowed {
		if st == newStatus {
			valid = true
			break
		}
	}
	if !valid {
		return nil, validationf("cannot transition sale from %s to %s", sale.FulfillmentStatus, newStatus)
	}

	if newStatus == FulfillmentCancelled {
		if err := s.repo.Cancel(ctx, sale.ID, actorID); err != nil {
			return nil, err
		}
	} else {
		if err := s.repo.UpdateFulfillment(ctx, sale.ID, sale.FulfillmentStatus, newStatus); err != nil {
			return nil, err
		}
	}
	return s.repo.GetByID(ctx, id)
}

// generateSaleNumber creates a human-readable sale number: SALE-YYYYMMDD-XXXX.
// Collisions are possible and handled by retrying the commit.
func generateSaleNumber() string {
	date := time.Now().UTC().Format("20060102")
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("SALE-%s-%s", date, suffix)
}
