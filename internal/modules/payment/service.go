package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service drives the gateway handshake and applies settlement effects to the
// sale and payment rows at most once per notification, however often it is
// delivered.
type Service interface {
	// Initialize creates a pending payment for a sale and opens a gateway
	// checkout session. The charged amount is the sale's total.
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)

	// Verify polls the gateway for a reference's final status and applies
	// it. Verifying an already-settled reference is a no-op, not an error.
	Verify(ctx context.Context, reference string) (*Payment, error)

	// HandleWebhook authenticates a gateway notification and applies the
	// same transition as Verify. Unknown event types are acknowledged
	// without effect.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	ListBySale(ctx context.Context, saleID string) ([]*Payment, error)
}

type service struct {
	repo          Repository
	gateway       Gateway
	webhookSecret []byte
	callbackURL   string
	logger        *slog.Logger
}

// NewService creates the payment service. The webhook secret is the gateway
// shared secret used for signature verification.
func NewService(repo Repository, gateway Gateway, webhookSecret []byte, callbackURL string, logger *slog.Logger) Service {
	return &service{
		repo:          repo,
		gateway:       gateway,
		webhookSecret: webhookSecret,
		callbackURL:   callbackURL,
		logger:        logger,
	}
}

func (s *service) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	saleID, err := uuid.Parse(req.SaleID)
	if err != nil {
		return nil, fmt.Errorf("invalid sale_id: %w", err)
	}

	sale, err := s.repo.GetSaleInfo(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.PaymentStatus == "paid" {
		return nil, fmt.Errorf("sale %s is already paid", req.SaleID)
	}

	reference := generateReference()
	p := &Payment{
		ID:        uuid.New(),
		SaleID:    saleID,
		Reference: reference,
		Amount:    sale.TotalAmount,
		Gateway:   "paystack",
		Status:    StatusPending,
	}
	// Persist as pending before the gateway call so a crash mid-handshake
	// leaves a reconcilable record rather than an orphaned charge.
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	amountMinor := sale.TotalAmount.Shift(2).IntPart()
	session, err := s.gateway.Initialize(ctx, amountMinor, req.Email, reference, s.callbackURL,
		map[string]interface{}{"sale_id": req.SaleID})
	if err != nil {
		if _, markErr := s.repo.MarkFailed(ctx, reference); markErr != nil {
			s.logger.Error("mark payment failed", "reference", reference, "error", markErr)
		}
		return nil, err
	}

	return &InitializeResult{
		AuthorizationURL: session.AuthorizationURL,
		AccessCode:       session.AccessCode,
		Reference:        reference,
	}, nil
}

func (s *service) Verify(ctx context.Context, reference string) (*Payment, error) {
	p, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		// Terminal already; verifying again changes nothing.
		return p, nil
	}

	charge, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(charge.Status) {
	case "success":
		applied, err := s.repo.Complete(ctx, reference, charge.GatewayRef)
		if err != nil {
			return nil, err
		}
		if !applied {
			s.logger.Info("settlement already applied", "reference", reference)
		}
	case "failed", "abandoned", "reversed":
		if _, err := s.repo.MarkFailed(ctx, reference); err != nil {
			return nil, err
		}
	default:
		// Still pending at the gateway; leave our state alone.
	}

	return s.repo.GetByReference(ctx, reference)
}

// webhookEvent is the shape of a Paystack notification.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if !VerifySignature(s.webhookSecret, payload, signature) {
		s.logger.Warn("webhook signature mismatch")
		return ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("malformed webhook payload: %w", err)
	}

	switch event.Event {
	case "charge.success":
		gatewayRef := fmt.Sprintf("%d", event.Data.ID)
		applied, err := s.repo.Complete(ctx, event.Data.Reference, gatewayRef)
		if err != nil {
			return err
		}
		if !applied {
			// Unknown reference or already settled; either way ack so
			// the gateway stops retrying.
			s.logger.Info("settlement notification had no effect", "reference", event.Data.Reference)
		}
	case "charge.failed":
		if _, err := s.repo.MarkFailed(ctx, event.Data.Reference); err != nil {
			return err
		}
	default:
		// Unknown event types are acknowledged, not errors: the gateway
		// would otherwise retry them forever.
		s.logger.Info("ignoring webhook event", "event", event.Event)
	}
	return nil
}

func (s *service) ListBySale(ctx context.Context, saleID string) ([]*Payment, error) {
	sid, err := uuid.Parse(saleID)
	if err != nil {
		return nil, fmt.Errorf("invalid sale_id: %w", err)
	}
	return s.repo.ListBySale(ctx, sid)
}

// generateReference creates a reference unique per payment attempt.
func generateReference() string {
	return fmt.Sprintf("ardent_%d_%s", time.Now().Unix(), uuid.New().String()[:8])
}
