//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ecommerce-payments/internal/config"
	"ecommerce-payments/internal/domain"
	"ecommerce-payments/internal/domain/model"
)

const testAPIKey = "svc-key"

// --- Mocks ---

type mockProcessor struct {
	HandleFunc func(ctx context.Context, token string, basket *model.Basket) (*model.ChargeResult, error)
	CreditFunc func(ctx context.Context, order *model.Order, referenceNumber string) (string, error)
	calls      int
}

func (m *mockProcessor) Name() string { return "stripe" }

func (m *mockProcessor) GetTransactionParameters(ctx context.Context, basket *model.Basket) (map[string]string, error) {
	return nil, domain.ErrUnsupportedOperation
}

func (m *mockProcessor) HandleProcessorResponse(ctx context.Context, token string, basket *model.Basket) (*model.ChargeResult, error) {
	m.calls++
	return m.HandleFunc(ctx, token, basket)
}

func (m *mockProcessor) IssueCredit(ctx context.Context, order *model.Order, referenceNumber string) (string, error) {
	return m.CreditFunc(ctx, order, referenceNumber)
}

type mockResponseRepo struct {
	records []*model.GatewayResponseRecord
	listErr error
}

func (m *mockResponseRepo) Record(ctx context.Context, rec *model.GatewayResponseRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *mockResponseRepo) ListByBasket(ctx context.Context, basketID string) ([]*model.GatewayResponseRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.GatewayResponseRecord
	for _, r := range m.records {
		if r.BasketID == basketID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockResponseRepo) ListByTransactionID(ctx context.Context, transactionID string) ([]*model.GatewayResponseRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.GatewayResponseRecord
	for _, r := range m.records {
		if r.TransactionID != nil && *r.TransactionID == transactionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// memIdemStore mirrors the redis-backed store in memory.
type memIdemStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemIdemStore() *memIdemStore { return &memIdemStore{data: make(map[string]string)} }

func (s *memIdemStore) Begin(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = "__pending__"
	return true, nil
}

func (s *memIdemStore) Complete(ctx context.Context, key string, response []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = string(response)
	return nil
}

func (s *memIdemStore) Lookup(ctx context.Context, key string) (string, bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", false, false, nil
	}
	if v == "__pending__" {
		return "", true, true, nil
	}
	return v, false, true, nil
}

func (s *memIdemStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func newTestServer(t *testing.T, proc *mockProcessor, repo *mockResponseRepo) (*Server, *memIdemStore) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	idem := newMemIdemStore()
	cfg := &config.ServerConfig{
		Port:      0,
		APIKey:    testAPIKey,
		JWTSecret: "test-secret",
		JWTTTL:    time.Minute,
	}
	return NewServer(cfg, proc, repo, idem, &logger), idem
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func validChargeBody() map[string]string {
	return map[string]string{
		"order_number": "ORD-100042",
		"basket_id":    "basket-7",
		"currency":     "USD",
		"total":        "49.99",
		"token":        "tok_visa",
	}
}

func TestChargeEndpoint_Success(t *testing.T) {
	proc := &mockProcessor{
		HandleFunc: func(ctx context.Context, token string, basket *model.Basket) (*model.ChargeResult, error) {
			if token != "tok_visa" {
				t.Errorf("expected token tok_visa, got %s", token)
			}
			if !basket.TotalInclTax.Equal(decimal.RequireFromString("49.99")) {
				t.Errorf("expected total 49.99, got %s", basket.TotalInclTax)
			}
			return &model.ChargeResult{
				TransactionID: "ch_1",
				Total:         basket.TotalInclTax,
				Currency:      basket.Currency,
				CardNumber:    "4242",
				CardType:      model.CardTypeVisa,
			}, nil
		},
	}
	srv, _ := newTestServer(t, proc, &mockResponseRepo{})
	rr := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/charges", validChargeBody(), nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp chargeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TransactionID != "ch_1" || resp.Total != "49.99" || resp.CardType != "visa" || resp.CardNumber != "4242" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestChargeEndpoint_IdempotentReplay(t *testing.T) {
	proc := &mockProcessor{
		HandleFunc: func(ctx context.Context, token string, basket *model.Basket) (*model.ChargeResult, error) {
			return &model.ChargeResult{TransactionID: "ch_1", Total: basket.TotalInclTax, Currency: basket.Currency, CardNumber: "4242", CardType: model.CardTypeVisa}, nil
		},
	}
	srv, _ := newTestServer(t, proc, &mockResponseRepo{})
	router := srv.Router()

	first := doJSON(t, router, http.MethodPost, "/api/v1/charges", validChargeBody(), nil)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}

	second := doJSON(t, router, http.MethodPost, "/api/v1/charges", validChargeBody(), nil)
	if second.Code != http.StatusOK {
		t.Fatalf("expected replay 200, got %d", second.Code)
	}
	if second.Header().Get("Idempotent-Replay") != "true" {
		t.Error("expected Idempotent-Replay header on second submission")
	}
	if proc.calls != 1 {
		t.Errorf("processor must be invoked exactly once, got %d", proc.calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("replay must return the stored outcome verbatim:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestChargeEndpoint_Declined(t *testing.T) {
	proc := &mockProcessor{
		HandleFunc: func(ctx context.Context, token string, basket *model.Basket) (*model.ChargeResult, error) {
			return nil, &domain.TransactionDeclinedError{BasketID: basket.ID, Status: 402}
		},
	}
	srv, _ := newTestServer(t, proc, &mockResponseRepo{})
	rr := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/charges", validChargeBody(), nil)

	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rr.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "transaction_declined" || resp.BasketID != "basket-7" || resp.Status != 402 {
		t.Errorf("unexpected decline payload: %+v", resp)
	}
}

func TestChargeEndpoint_GatewayErrorReleasesKey(t *testing.T) {
	failing := true
	proc := &mockProcessor{
		HandleFunc: func(ctx context.Context, token string, basket *model.Basket) (*model.ChargeResult, error) {
			if failing {
				return nil, &domain.GatewayError{Op: "charge", Msg: "gateway unreachable"}
			}
			return &model.ChargeResult{TransactionID: "ch_1", Total: basket.TotalInclTax, Currency: basket.Currency}, nil
		},
	}
	srv, _ := newTestServer(t, proc, &mockResponseRepo{})
	router := srv.Router()

	rr := doJSON(t, router, http.MethodPost, "/api/v1/charges", validChargeBody(), nil)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}

	// The key was released, so the checkout may retry.
	failing = false
	retry := doJSON(t, router, http.MethodPost, "/api/v1/charges", validChargeBody(), nil)
	if retry.Code != http.StatusCreated {
		t.Fatalf("expected retry to succeed with 201, got %d", retry.Code)
	}
}

func TestChargeEndpoint_BadRequest(t *testing.T) {
	srv, _ := newTestServer(t, &mockProcessor{}, &mockResponseRepo{})
	body := validChargeBody()
	body["total"] = "not-a-number"
	rr := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/charges", body, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestChargeEndpoint_RequiresAPIKey(t *testing.T) {
	srv, _ := newTestServer(t, &mockProcessor{}, &mockResponseRepo{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/charges", bytes.NewBufferString("{}"))
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", rr.Code)
	}
}

func TestRefundEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		proc := &mockProcessor{
			CreditFunc: func(ctx context.Context, order *model.Order, referenceNumber string) (string, error) {
				if order.Number != "ORD-100042" || referenceNumber != "ch_1" {
					t.Errorf("unexpected refund call: %+v %s", order, referenceNumber)
				}
				return "re_1", nil
			},
		}
		srv, _ := newTestServer(t, proc, &mockResponseRepo{})
		body := map[string]string{"order_number": "ORD-100042", "basket_id": "basket-7", "transaction_id": "ch_1"}
		rr := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/refunds", body, nil)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp["transaction_id"] != "re_1" {
			t.Errorf("expected refund id re_1, got %s", resp["transaction_id"])
		}
	})

	t.Run("gateway error", func(t *testing.T) {
		proc := &mockProcessor{
			CreditFunc: func(ctx context.Context, order *model.Order, referenceNumber string) (string, error) {
				return "", &domain.GatewayError{Op: "refund", Msg: "refund failed"}
			},
		}
		srv, _ := newTestServer(t, proc, &mockResponseRepo{})
		body := map[string]string{"order_number": "ORD-100042", "transaction_id": "ch_1"}
		rr := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/refunds", body, nil)
		if rr.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rr.Code)
		}
	})
}

func TestResponsesEndpoint(t *testing.T) {
	txID := "ch_1"
	repo := &mockResponseRepo{
		records: []*model.GatewayResponseRecord{
			{ID: "01A", Processor: "stripe", TransactionID: &txID, BasketID: "basket-7", OrderNumber: "ORD-100042", Response: map[string]any{"id": "ch_1"}},
		},
	}
	srv, _ := newTestServer(t, &mockProcessor{}, repo)
	router := srv.Router()

	// Exchange the API key for a reconciliation token first.
	tokResp := doJSON(t, router, http.MethodPost, "/api/v1/auth/token", nil, nil)
	if tokResp.Code != http.StatusOK {
		t.Fatalf("expected 200 minting token, got %d", tokResp.Code)
	}
	var tok map[string]string
	if err := json.Unmarshal(tokResp.Body.Bytes(), &tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}

	t.Run("lists records by basket", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/responses?basket_id=basket-7", nil)
		req.Header.Set("Authorization", "Bearer "+tok["token"])
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var recs []*model.GatewayResponseRecord
		if err := json.Unmarshal(rr.Body.Bytes(), &recs); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(recs) != 1 || recs[0].ID != "01A" {
			t.Errorf("unexpected records: %+v", recs)
		}
	})

	t.Run("rejects api key on reconciliation surface", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/responses?basket_id=basket-7", nil)
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for non-JWT credential, got %d", rr.Code)
		}
	})

	t.Run("requires a filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/responses", nil)
		req.Header.Set("Authorization", "Bearer "+tok["token"])
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 without filter, got %d", rr.Code)
		}
	})
}
