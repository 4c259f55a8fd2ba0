package model

import (
	"github.com/shopspring/decimal"
)

// Basket is the slice of the checkout domain this service needs to charge a
// customer: an identifier, the order number derived from it, and the total.
type Basket struct {
	ID           string
	OrderNumber  string
	Currency     string // ISO 4217 code
	TotalInclTax decimal.Decimal
}

// Order references a previously placed order for refunds.
type Order struct {
	Number   string
	BasketID string
}

// ChargeRequest is the caller's checkout intent, scoped to one attempt.
type ChargeRequest struct {
	Token       string          `json:"token"` // opaque gateway-supplied payment-method reference
	OrderNumber string          `json:"order_number"`
	BasketID    string          `json:"basket_id"`
	Currency    string          `json:"currency"`
	Total       decimal.Decimal `json:"total"`
}

// ChargeResult is produced only for a successful charge. Card fields come from
// the gateway's charge response, not from the caller's request: the response is
// authoritative for what was actually charged.
type ChargeResult struct {
	TransactionID string
	Total         decimal.Decimal
	Currency      string
	CardNumber    string // last four digits as reported by the gateway
	CardType      CardType
}

// RefundRequest asks for a full refund of a prior charge. Amount and Currency
// describe the original charge for the caller's bookkeeping; the gateway is
// only ever sent the original transaction id and refunds the full amount.
type RefundRequest struct {
	OrderNumber           string          `json:"order_number"`
	BasketID              string          `json:"basket_id"`
	OriginalTransactionID string          `json:"transaction_id"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
}

// RefundResult carries the refund's own transaction id, distinct from the
// original charge id.
type RefundResult struct {
	TransactionID string `json:"transaction_id"`
}
