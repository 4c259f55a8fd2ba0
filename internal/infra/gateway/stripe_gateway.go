package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ecommerce-payments/internal/domain"
	"ecommerce-payments/internal/domain/ports/adapter"
	"ecommerce-payments/internal/infra/metrics"
)

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

const defaultBaseURL = "https://api.stripe.com/v1"

// StripeGateway implements adapter.PaymentGateway against the charges/refunds
// REST API. Each instance holds its own credential; no process-global key is
// ever set.
type StripeGateway struct {
	secretKey      string
	publishableKey string
	baseURL        string
	client         *http.Client
}

// NewStripeGateway validates the per-site credentials up front. A missing key
// is a fatal setup error, not a per-call condition.
func NewStripeGateway(secretKey, publishableKey, baseURL string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, &domain.ConfigurationError{Field: "secret_key"}
	}
	if publishableKey == "" {
		return nil, &domain.ConfigurationError{Field: "publishable_key"}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &StripeGateway{
		secretKey:      secretKey,
		publishableKey: publishableKey,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		client:         &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

// PublishableKey is the client-side half of the processor identity. It is
// never sent on server-side calls.
func (g *StripeGateway) PublishableKey() string { return g.publishableKey }

// CreateCharge posts a charge creation call. A business rejection (card_error
// body) is classified into *adapter.DeclineError with the HTTP status and the
// raw decoded body; every other failure is an ordinary error.
func (g *StripeGateway) CreateCharge(ctx context.Context, params adapter.ChargeParams) (*adapter.Charge, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.Amount, 10))
	form.Set("currency", params.Currency)
	form.Set("source", params.Source)
	form.Set("description", params.Description)
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	start := time.Now()
	raw, status, err := g.post(ctx, "/charges", form)
	metrics.ObserveGatewayCall("charge", err == nil && status < 300, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, classifyChargeFailure(status, raw)
	}

	id, _ := raw["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("stripe: charge response missing id")
	}
	var last4, brand string
	if src, ok := raw["source"].(map[string]any); ok {
		last4, _ = src["last4"].(string)
		brand, _ = src["brand"].(string)
	}
	return &adapter.Charge{ID: id, Last4: last4, Brand: brand, Raw: raw}, nil
}

// CreateRefund posts a refund creation call referencing the original charge.
// No amount is sent: the full charge is refunded.
func (g *StripeGateway) CreateRefund(ctx context.Context, chargeID string) (*adapter.Refund, error) {
	form := url.Values{}
	form.Set("charge", chargeID)

	start := time.Now()
	raw, status, err := g.post(ctx, "/refunds", form)
	metrics.ObserveGatewayCall("refund", err == nil && status < 300, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("stripe: refund for charge [%s] failed with status %d: %s", chargeID, status, errorMessage(raw))
	}

	id, _ := raw["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("stripe: refund response missing id")
	}
	return &adapter.Refund{ID: id, Raw: raw}, nil
}

func (g *StripeGateway) post(ctx context.Context, path string, form url.Values) (map[string]any, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("stripe: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("stripe: %s request: %w", path, err)
	}
	defer resp.Body.Close()

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("stripe: decode %s response: %w", path, err)
	}
	return raw, resp.StatusCode, nil
}

// classifyChargeFailure narrows the one well-known decline shape; anything
// else stays a plain error.
func classifyChargeFailure(status int, raw map[string]any) error {
	errBody, _ := raw["error"].(map[string]any)
	typ, _ := errBody["type"].(string)
	code, _ := errBody["code"].(string)
	msg, _ := errBody["message"].(string)
	if typ == "card_error" {
		return &adapter.DeclineError{Status: status, Code: code, Message: msg, Body: raw}
	}
	return fmt.Errorf("stripe: charge failed with status %d: %s", status, msg)
}

func errorMessage(raw map[string]any) string {
	if errBody, ok := raw["error"].(map[string]any); ok {
		if msg, ok := errBody["message"].(string); ok {
			return msg
		}
	}
	return "unknown error"
}
