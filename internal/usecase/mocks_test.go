//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"ecommerce-payments/internal/domain/model"
	"ecommerce-payments/internal/domain/ports/adapter"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// MockPaymentGateway lets each test script the gateway's behavior.
type MockPaymentGateway struct {
	CreateChargeFunc func(ctx context.Context, params adapter.ChargeParams) (*adapter.Charge, error)
	CreateRefundFunc func(ctx context.Context, chargeID string) (*adapter.Refund, error)

	LastChargeParams *adapter.ChargeParams
}

func (m *MockPaymentGateway) Name() string { return "stripe" }

func (m *MockPaymentGateway) CreateCharge(ctx context.Context, params adapter.ChargeParams) (*adapter.Charge, error) {
	m.LastChargeParams = &params
	if m.CreateChargeFunc != nil {
		return m.CreateChargeFunc(ctx, params)
	}
	return &adapter.Charge{ID: "ch_1", Raw: map[string]any{"id": "ch_1"}}, nil
}

func (m *MockPaymentGateway) CreateRefund(ctx context.Context, chargeID string) (*adapter.Refund, error) {
	if m.CreateRefundFunc != nil {
		return m.CreateRefundFunc(ctx, chargeID)
	}
	return &adapter.Refund{ID: "re_1", Raw: map[string]any{"id": "re_1"}}, nil
}

// MockResponseRepo is an in-memory append-only audit store.
type MockResponseRepo struct {
	mu        sync.Mutex
	Records   []*model.GatewayResponseRecord
	RecordErr error
}

func (m *MockResponseRepo) Record(ctx context.Context, rec *model.GatewayResponseRecord) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.Records = append(m.Records, &cp)
	return nil
}

func (m *MockResponseRepo) ListByBasket(ctx context.Context, basketID string) ([]*model.GatewayResponseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.GatewayResponseRecord
	for _, r := range m.Records {
		if r.BasketID == basketID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockResponseRepo) ListByTransactionID(ctx context.Context, transactionID string) ([]*model.GatewayResponseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.GatewayResponseRecord
	for _, r := range m.Records {
		if r.TransactionID != nil && *r.TransactionID == transactionID {
			out = append(out, r)
		}
	}
	return out, nil
}
