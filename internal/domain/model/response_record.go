package model

import "time"

// GatewayResponseRecord is a durable copy of one raw gateway response, kept for
// reconciliation and dispute handling regardless of the business outcome.
// Exactly one record exists per gateway call attempt that actually reached the
// gateway; records are never mutated or deleted by this service.
type GatewayResponseRecord struct {
	ID            string         `json:"id"`             // ULID
	Processor     string         `json:"processor"`      // e.g. "stripe"
	TransactionID *string        `json:"transaction_id"` // nil when the gateway created no transaction (declines)
	BasketID      string         `json:"basket_id"`
	OrderNumber   string         `json:"order_number"`
	Response      map[string]any `json:"response"` // raw decoded gateway body
	CreatedAt     time.Time      `json:"created_at"`
}
