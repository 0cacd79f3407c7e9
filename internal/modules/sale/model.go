package sale

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of a sale.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// FulfillmentStatus is the delivery lifecycle of an order-style sale.
type FulfillmentStatus string

const (
	FulfillmentPending    FulfillmentStatus = "pending"
	FulfillmentProcessing FulfillmentStatus = "processing"
	FulfillmentShipped    FulfillmentStatus = "shipped"
	FulfillmentDelivered  FulfillmentStatus = "delivered"
	FulfillmentCancelled  FulfillmentStatus = "cancelled"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	MethodCash        PaymentMethod = "cash"
	MethodCard        PaymentMethod = "card"
	MethodMobileMoney PaymentMethod = "mobile_money"
)

// Sale is a committed customer transaction. It is created whole inside one
// atomic commit; only its payment and fulfillment status change afterwards.
type Sale struct {
	ID                uuid.UUID         `json:"id"`
	SaleNumber        string            `json:"sale_number"`
	CustomerID        *uuid.UUID        `json:"customer_id,omitempty"` // nil for walk-in
	CashierID         uuid.UUID         `json:"cashier_id"`
	Subtotal          decimal.Decimal   `json:"subtotal"`
	TaxAmount         decimal.Decimal   `json:"tax_amount"`
	DiscountAmount    decimal.Decimal   `json:"discount_amount"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	PaymentMethod     PaymentMethod     `json:"payment_method"`
	PaymentStatus     PaymentStatus     `json:"payment_status"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status"`
	Notes             string            `json:"notes,omitempty"`
	Items             []*SaleItem       `json:"items,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// SaleItem is one product-quantity-price line within a sale. The unit price
// is captured at sale time and never changes afterwards.
type SaleItem struct {
	ID              uuid.UUID       `json:"id"`
	SaleID          uuid.UUID       `json:"sale_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	LineTotal       decimal.Decimal `json:"line_total"`
	PriceOverridden bool            `json:"price_overridden,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// SaleItemRequest is one requested line. UnitPrice, when set, is an explicit
// override of the catalog price; it must be >= 0 and is logged.
type SaleItemRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateSaleRequest is the inbound payload for committing a sale. Discount
// and tax are requests validated against the catalog, never trusted totals.
type CreateSaleRequest struct {
	Items          []SaleItemRequest `json:"items"`
	CustomerID     string            `json:"customer_id,omitempty"`
	DiscountAmount decimal.Decimal   `json:"discount_amount,omitempty"`
	TaxAmount      *decimal.Decimal  `json:"tax_amount,omitempty"`
	PaymentMethod  string            `json:"payment_method"`
	Notes          string            `json:"notes,omitempty"`
}

// PricedSale is a validated, server-priced sale ready for atomic commit.
type PricedSale struct {
	CustomerID     *uuid.UUID
	CashierID      uuid.UUID
	Items          []*SaleItem
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	PaymentMethod  PaymentMethod
	Notes          string
}

// CommitResult identifies a committed sale to the caller.
type CommitResult struct {
	SaleID      uuid.UUID       `json:"id"`
	SaleNumber  string          `json:"sale_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// ListFilter narrows the sales listing.
type ListFilter struct {
	DateFrom      string
	DateTo        string
	PaymentStatus string
	Limit         int
	Offset        int
}

// ValidationError reports malformed input the caller can correct.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ProductNotFoundError reports an unknown or inactive product in a request.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found or inactive: %s", e.ProductID)
}

// ErrDuplicateSaleNumber signals a sale-number collision; the coordinator
// retries with a freshly generated number.
var ErrDuplicateSaleNumber = fmt.Errorf("duplicate sale number")
