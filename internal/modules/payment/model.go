package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle of one payment attempt. Transitions are monotonic:
// pending to completed or pending to failed, never reversed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Payment records one gateway payment attempt for a sale. A sale may have
// many attempts but at most one completed payment.
type Payment struct {
	ID         uuid.UUID       `json:"id"`
	SaleID     uuid.UUID       `json:"sale_id"`
	Reference  string          `json:"reference"`
	GatewayRef string          `json:"gateway_reference,omitempty"` // set once verified
	Amount     decimal.Decimal `json:"amount"`
	Gateway    string          `json:"gateway"`
	Status     Status          `json:"status"`
	VerifiedAt *time.Time      `json:"verified_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// InitializeRequest starts a payment session for a committed sale. The
// amount is taken from the sale row, never from the client.
type InitializeRequest struct {
	SaleID string `json:"sale_id"`
	Email  string `json:"email"`
}

// InitializeResult is what the caller needs to send the customer to the
// gateway's checkout.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// ErrInvalidSignature rejects a webhook whose payload fails the keyed hash
// check. A rejected webhook changes no state.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ErrNotFound reports an unknown payment reference.
var ErrNotFound = errors.New("payment not found")

// GatewayError wraps a transient failure talking to the gateway. Eligible
// for caller-initiated retry; never auto-retried server-side.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("gateway %s: %v", e.Op, e.Err) }
func (e *GatewayError) Unwrap() error { return e.Err }
