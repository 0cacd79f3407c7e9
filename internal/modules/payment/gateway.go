package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Session is an open checkout session at the gateway.
type Session struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Charge is the gateway's view of a payment attempt.
type Charge struct {
	Reference   string
	GatewayRef  string // the gateway's own transaction id
	Status      string // gateway status string, e.g. "success", "failed", "abandoned"
	AmountMinor int64
}

// Gateway is the provider-agnostic interface for the card-payment provider.
type Gateway interface {
	// Initialize opens a payment session for the given amount in minor
	// currency units.
	Initialize(ctx context.Context, amountMinor int64, email, reference, callbackURL string, metadata map[string]interface{}) (*Session, error)
	// Verify polls the provider for the current status of a reference.
	Verify(ctx context.Context, reference string) (*Charge, error)
}

// ── Paystack adapter ──────────────────────────────────────────────────────────

type paystackGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewPaystackGateway creates the Paystack adapter. Calls are bounded by the
// given timeout; no database locks are ever held across them.
func NewPaystackGateway(secretKey, baseURL string, timeout time.Duration) Gateway {
	return &paystackGateway{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackChargeData struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

func (g *paystackGateway) Initialize(ctx context.Context, amountMinor int64, email, reference, callbackURL string, metadata map[string]interface{}) (*Session, error) {
	body := map[string]interface{}{
		"amount":       amountMinor,
		"email":        email,
		"reference":    reference,
		"callback_url": callbackURL,
		"metadata":     metadata,
	}
	var data paystackInitData
	if err := g.call(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, &GatewayError{Op: "initialize", Err: err}
	}
	return &Session{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (g *paystackGateway) Verify(ctx context.Context, reference string) (*Charge, error) {
	var data paystackChargeData
	if err := g.call(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &data); err != nil {
		return nil, &GatewayError{Op: "verify", Err: err}
	}
	return &Charge{
		Reference:   data.Reference,
		GatewayRef:  fmt.Sprintf("%d", data.ID),
		Status:      data.Status,
		AmountMinor: data.Amount,
	}, nil
}

func (g *paystackGateway) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !envelope.Status {
		return fmt.Errorf("paystack %s: http %d: %s", path, resp.StatusCode, envelope.Message)
	}
	return json.Unmarshal(envelope.Data, out)
}
