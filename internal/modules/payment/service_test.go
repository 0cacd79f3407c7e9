package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakePaymentRepo struct {
	payments map[string]*Payment // by reference
	sales    map[uuid.UUID]*SaleInfo
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		payments: map[string]*Payment{},
		sales:    map[uuid.UUID]*SaleInfo{},
	}
}

func (r *fakePaymentRepo) addSale(total string, status string) uuid.UUID {
	id := uuid.New()
	amount, _ := decimal.NewFromString(total)
	r.sales[id] = &SaleInfo{ID: id, TotalAmount: amount, PaymentStatus: status}
	return id
}

func (r *fakePaymentRepo) Create(_ context.Context, p *Payment) error {
	r.payments[p.Reference] = p
	return nil
}

func (r *fakePaymentRepo) GetByReference(_ context.Context, reference string) (*Payment, error) {
	p, ok := r.payments[reference]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (r *fakePaymentRepo) ListBySale(_ context.Context, saleID uuid.UUID) ([]*Payment, error) {
	out := []*Payment{}
	for _, p := range r.payments {
		if p.SaleID == saleID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) GetSaleInfo(_ context.Context, saleID uuid.UUID) (*SaleInfo, error) {
	s, ok := r.sales[saleID]
	if !ok {
		return nil, fmt.Errorf("sale not found: %s", saleID)
	}
	return s, nil
}

func (r *fakePaymentRepo) Complete(_ context.Context, reference, gatewayRef string) (bool, error) {
	p, ok := r.payments[reference]
	if !ok || p.Status != StatusPending {
		return false, nil
	}
	p.Status = StatusCompleted
	p.GatewayRef = gatewayRef
	r.sales[p.SaleID].PaymentStatus = "paid"
	return true, nil
}

func (r *fakePaymentRepo) MarkFailed(_ context.Context, reference string) (bool, error) {
	p, ok := r.payments[reference]
	if !ok || p.Status != StatusPending {
		return false, nil
	}
	p.Status = StatusFailed
	return true, nil
}

type fakeGateway struct {
	initErr      error
	chargeStatus string
	verifyErr    error
	initCalls    int
	verifyCalls  int
}

func (g *fakeGateway) Initialize(_ context.Context, amountMinor int64, email, reference, callbackURL string, _ map[string]interface{}) (*Session, error) {
	g.initCalls++
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &Session{
		AuthorizationURL: "https://checkout.example/" + reference,
		AccessCode:       "ac_" + reference,
		Reference:        reference,
	}, nil
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (*Charge, error) {
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return &Charge{Reference: reference, GatewayRef: "12345", Status: g.chargeStatus}, nil
}

const testSecret = "sk_test_secret"

func newTestService(repo Repository, gw Gateway) Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, gw, []byte(testSecret), "http://localhost:8080/payment/callback", logger)
}

func TestInitialize(t *testing.T) {
	repo := newFakePaymentRepo()
	saleID := repo.addSale("26.88", "pending")
	gw := &fakeGateway{}
	svc := newTestService(repo, gw)

	result, err := svc.Initialize(context.Background(), InitializeRequest{
		SaleID: saleID.String(),
		Email:  "customer@example.com",
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !strings.HasPrefix(result.Reference, "ardent_") {
		t.Errorf("reference %q missing ardent_ prefix", result.Reference)
	}

	p := repo.payments[result.Reference]
	if p == nil {
		t.Fatal("payment not persisted")
	}
	if p.Status != StatusPending {
		t.Errorf("status = %s, want pending", p.Status)
	}
	if got := p.Amount.StringFixed(2); got != "26.88" {
		t.Errorf("amount = %s, want sale total 26.88", got)
	}
}

func TestInitialize_RejectsPaidSale(t *testing.T) {
	repo := newFakePaymentRepo()
	saleID := repo.addSale("10.00", "paid")
	svc := newTestService(repo, &fakeGateway{})

	_, err := svc.Initialize(context.Background(), InitializeRequest{
		SaleID: saleID.String(),
		Email:  "customer@example.com",
	})
	if err == nil {
		t.Fatal("expected error for already-paid sale")
	}
}

func TestInitialize_GatewayFailureMarksAttemptFailed(t *testing.T) {
	repo := newFakePaymentRepo()
	saleID := repo.addSale("10.00", "pending")
	gw := &fakeGateway{initErr: &GatewayError{Op: "initialize", Err: errors.New("timeout")}}
	svc := newTestService(repo, gw)

	_, err := svc.Initialize(context.Background(), InitializeRequest{
		SaleID: saleID.String(),
		Email:  "customer@example.com",
	})
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("err = %v, want GatewayError", err)
	}

	// The pending attempt is failed; the sale itself stays pending.
	if len(repo.payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(repo.payments))
	}
	for _, p := range repo.payments {
		if p.Status != StatusFailed {
			t.Errorf("payment status = %s, want failed", p.Status)
		}
	}
	if repo.sales[saleID].PaymentStatus != "pending" {
		t.Errorf("sale status = %s, want pending", repo.sales[saleID].PaymentStatus)
	}
}

func initPayment(t *testing.T, svc Service, repo *fakePaymentRepo, saleID uuid.UUID) string {
	t.Helper()
	result, err := svc.Initialize(context.Background(), InitializeRequest{
		SaleID: saleID.String(),
		Email:  "customer@example.com",
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return result.Reference
}

func TestVerify_SuccessSettlesOnce(t *testing.T) {
	repo := newFakePaymentRepo()
	saleID := repo.addSale("10.00", "pending")
	gw := &fakeGateway{chargeStatus: "success"}
	svc := newTestService(repo, gw)
	reference := initPayment(t, svc, repo, saleID)

	p, err := svc.Verify(context.Background(), reference)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", p.Status)
	}
	if repo.sales[saleID].PaymentStatus != "paid" {
		t.Errorf("sale status = %s, want paid", repo.sales[saleID].PaymentStatus)
	}

	// A second verify is a no-op that does not even reach the gateway.
	calls := gw.verifyCalls
	p, err = svc.Verify(context.Background(), reference)
	if err != nil {
		t.Fatalf("second Verify: %v", err)
	}
	if p.Status != StatusCompleted {
		t.Errorf("status after re-verify = %s, want completed", p.Status)
	}
	if gw.verifyCalls != calls {
		t.Errorf("re-verify hit the gateway %d extra times", gw.verifyCalls-calls)
	}
}

func TestVerify_FailureMarksFailed(t *testing.T) {
	repo := newFakePaymentRepo()
	saleID := repo.addSale("10.00", "pending")
	gw := &fakeGateway{chargeStatus: "failed"}
	svc := newTestService(repo, gw)
	reference := initPayment(t, svc, repo, saleID)

	p, err := svc.Verify(context.Background(), reference)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.Status != StatusFailed {
		t.Errorf("status = %s, want failed", p.Status)
	}
	if repo.sales[saleID].PaymentStatus != "pending" {
		t.Errorf("sale status = %s, want pending", repo.sales[saleID].PaymentStatus)
	}
}

func TestVerify_UnknownReference(t *testing.T) {
	svc := newTestService(newFakePaymentRepo(), &fakeGateway{})
	_, err := svc.Verify(context.Background(), "ardent_0_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func webhookBody(t *testing.T, event, reference string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data": map[string]interface{}{
			"id":        12345,
			"reference": reference,
			"status":    "success",
			"amount":    1000,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestHandleWebhook_ChargeSuccess(t *testing.T) {
	repo := newFakePaymentRepo()
	saleID := repo.addSale("10.00", "pending")
	svc := newTestService(repo, &fakeGateway{})
	reference := initPayment(t, svc, repo, saleID)

	body := webhookBody(t, "charge.success", reference)
	signature := sign([]byte(testSecret), body)

	if err := svc.HandleWebhook(context.Background(), body, signature); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if repo.payments[reference].Status != StatusCompleted {
		t.Errorf("status = %s, want completed", repo.payments[reference].Status)
	}
	if repo.sales[saleID].PaymentStatus != "paid" {
		t.Errorf("sale status = %s, want paid", repo.sales[saleID].PaymentStatus)
	}

	// Redelivery of the same notification is acknowledged without effect.
	if err := svc.HandleWebhook(context.Background(), body, signature); err != nil {
		t.Fatalf("redelivered webhook: %v", err)
	}
}

func TestHandleWebhook_TamperedPayloadRejected(t *testing.T) {
	repo := newFakePaymentRepo()
	saleID := repo.addSale("10.00", "pending")
	svc := newTestService(repo, &fakeGateway{})
	reference := initPayment(t, svc, repo, saleID)

	body := webhookBody(t, "charge.success", reference)
	signature := sign([]byte(testSecret), body)

	err := svc.HandleWebhook(context.Background(), append(body, ' '), signature)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
	if repo.payments[reference].Status != StatusPending {
		t.Errorf("tampered webhook changed payment status to %s", repo.payments[reference].Status)
	}
	if repo.sales[saleID].PaymentStatus != "pending" {
		t.Errorf("tampered webhook changed sale status to %s", repo.sales[saleID].PaymentStatus)
	}
}

func TestHandleWebhook_UnknownEventAcknowledged(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := newTestService(repo, &fakeGateway{})

	body := webhookBody(t, "subscription.create", "ardent_0_whatever")
	if err := svc.HandleWebhook(context.Background(), body, sign([]byte(testSecret), body)); err != nil {
		t.Errorf("unknown event not acknowledged: %v", err)
	}
}

func TestHandleWebhook_UnknownReferenceAcknowledged(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := newTestService(repo, &fakeGateway{})

	body := webhookBody(t, "charge.success", "ardent_0_missing")
	if err := svc.HandleWebhook(context.Background(), body, sign([]byte(testSecret), body)); err != nil {
		t.Errorf("unknown reference not acknowledged: %v", err)
	}
}
