package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ecommerce-payments/internal/domain"
	"ecommerce-payments/internal/domain/model"
	"ecommerce-payments/internal/domain/ports/adapter"
	"ecommerce-payments/internal/domain/ports/repository"
	"ecommerce-payments/internal/infra/metrics"
)

// Compile-time check
var _ PaymentProcessor = (*processorUC)(nil)

// PaymentProcessor is the inbound surface consumed by the checkout flow.
type PaymentProcessor interface {
	Name() string
	// GetTransactionParameters exists for parity with server-side processors.
	// Client-side processors never support it.
	GetTransactionParameters(ctx context.Context, basket *model.Basket) (map[string]string, error)
	// HandleProcessorResponse charges the payment method referenced by token
	// for the basket total. A decline is returned as *domain.TransactionDeclinedError
	// after the decline body has been recorded for audit.
	HandleProcessorResponse(ctx context.Context, token string, basket *model.Basket) (*model.ChargeResult, error)
	// IssueCredit fully refunds the charge referenced by referenceNumber and
	// returns the refund's own transaction id.
	IssueCredit(ctx context.Context, order *model.Order, referenceNumber string) (string, error)
}

type processorUC struct {
	gateway   adapter.PaymentGateway
	responses repository.ProcessorResponseRepository
	log       *zerolog.Logger
}

func NewPaymentProcessor(gateway adapter.PaymentGateway, responses repository.ProcessorResponseRepository, logger *zerolog.Logger) *processorUC {
	return &processorUC{gateway: gateway, responses: responses, log: logger}
}

func (p *processorUC) Name() string { return p.gateway.Name() }

func (p *processorUC) GetTransactionParameters(ctx context.Context, basket *model.Basket) (map[string]string, error) {
	return nil, domain.ErrUnsupportedOperation
}

func (p *processorUC) HandleProcessorResponse(ctx context.Context, token string, basket *model.Basket) (*model.ChargeResult, error) {
	amount, err := model.ToMinorUnits(basket.TotalInclTax)
	if err != nil {
		return nil, err
	}

	charge, err := p.gateway.CreateCharge(ctx, adapter.ChargeParams{
		Amount:      amount,
		Currency:    basket.Currency,
		Source:      token,
		Description: basket.OrderNumber,
		Metadata:    map[string]string{"order_number": basket.OrderNumber},
	})
	if err != nil {
		var decline *adapter.DeclineError
		if errors.As(err, &decline) {
			// No transaction was created; record the decline body so the
			// rejection stays auditable.
			p.record(ctx, decline.Body, nil, basket.ID, basket.OrderNumber)
			p.log.Error().
				Str("basket_id", basket.ID).
				Int("status", decline.Status).
				Str("code", decline.Code).
				Msg("charge declined by gateway")
			metrics.IncCharge("declined")
			return nil, &domain.TransactionDeclinedError{BasketID: basket.ID, Status: decline.Status}
		}
		// Anything else is not classified here; the caller treats unexpected
		// failures uniformly as a gateway error. Arbitrary failures may not
		// carry a recordable body, so nothing is written.
		metrics.IncCharge("error")
		return nil, err
	}

	p.record(ctx, charge.Raw, &charge.ID, basket.ID, basket.OrderNumber)
	p.log.Info().
		Str("transaction_id", charge.ID).
		Str("basket_id", basket.ID).
		Msg("successfully created charge")
	metrics.IncCharge("succeeded")
	metrics.AddRevenue(basket.Currency, amount)

	return &model.ChargeResult{
		TransactionID: charge.ID,
		Total:         basket.TotalInclTax,
		Currency:      basket.Currency,
		CardNumber:    charge.Last4,
		CardType:      model.CardTypeFromBrand(charge.Brand),
	}, nil
}

func (p *processorUC) IssueCredit(ctx context.Context, order *model.Order, referenceNumber string) (string, error) {
	refund, err := p.gateway.CreateRefund(ctx, referenceNumber)
	if err != nil {
		// Refund failures are opaque: there is no recordable payload, so no
		// audit record is written. This intentionally mirrors the gateway's
		// API shape and is asymmetric with the charge decline path.
		msg := fmt.Sprintf("an error occurred while attempting to issue a credit for order [%s]", order.Number)
		p.log.Error().Err(err).Str("order_number", order.Number).Msg(msg)
		metrics.IncRefund("error")
		return "", &domain.GatewayError{Op: "refund", Msg: msg, Err: err}
	}

	p.record(ctx, refund.Raw, &refund.ID, order.BasketID, order.Number)
	metrics.IncRefund("succeeded")
	return refund.ID, nil
}

// record appends one audit record. A persistence failure must not mask the
// gateway outcome, so it is surfaced as a warning only.
func (p *processorUC) record(ctx context.Context, raw map[string]any, transactionID *string, basketID, orderNumber string) {
	rec := &model.GatewayResponseRecord{
		ID:            ulid.Make().String(),
		Processor:     p.gateway.Name(),
		TransactionID: transactionID,
		BasketID:      basketID,
		OrderNumber:   orderNumber,
		Response:      raw,
		CreatedAt:     time.Now().UTC(),
	}
	if err := p.responses.Record(ctx, rec); err != nil {
		p.log.Warn().Err(err).
			Str("basket_id", basketID).
			Str("order_number", orderNumber).
			Msg("failed to persist gateway response record")
	}
}
