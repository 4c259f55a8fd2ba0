package repository

import (
	"context"

	"ecommerce-payments/internal/domain/model"
)

// ProcessorResponseRepository is the append-only audit store for raw gateway
// responses. Implementations must never update or delete existing records.
type ProcessorResponseRepository interface {
	Record(ctx context.Context, rec *model.GatewayResponseRecord) error
	ListByBasket(ctx context.Context, basketID string) ([]*model.GatewayResponseRecord, error)
	ListByTransactionID(ctx context.Context, transactionID string) ([]*model.GatewayResponseRecord, error)
}
