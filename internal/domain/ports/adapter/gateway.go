package adapter

import (
	"context"
	"fmt"
)

// ChargeParams is the outbound charge-creation call.
type ChargeParams struct {
	Amount      int64 // minor units
	Currency    string
	Source      string // opaque payment-method token
	Description string
	Metadata    map[string]string
}

// Charge is a successful charge response. Raw holds the full decoded body for
// auditing; only the documented fields (id, source.last4, source.brand) are
// surfaced typed.
type Charge struct {
	ID    string
	Last4 string
	Brand string
	Raw   map[string]any
}

// Refund is a successful refund response.
type Refund struct {
	ID  string
	Raw map[string]any
}

// DeclineError is the one structured failure shape the gateway documents: a
// business-level card rejection with an HTTP status and a recordable body.
// Every other failure from the gateway adapter is an ordinary error.
type DeclineError struct {
	Status  int
	Code    string // gateway decline code, e.g. "card_declined"
	Message string
	Body    map[string]any
}

func (e *DeclineError) Error() string {
	return fmt.Sprintf("gateway declined charge with status %d: %s", e.Status, e.Message)
}

// PaymentGateway is the hex port for the remote payment service.
type PaymentGateway interface {
	Name() string

	// CreateCharge captures funds from the payment method referenced by
	// params.Source. A business rejection is returned as *DeclineError.
	CreateCharge(ctx context.Context, params ChargeParams) (*Charge, error)

	// CreateRefund returns previously captured funds against an existing
	// charge. The full charged amount is refunded.
	CreateRefund(ctx context.Context, chargeID string) (*Refund, error)
}
