package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ecommerce-payments/internal/domain"
	"ecommerce-payments/internal/domain/model"
	"ecommerce-payments/internal/domain/ports/repository"
)

var _ repository.ProcessorResponseRepository = (*responseRepo)(nil)

// responseRepo persists raw gateway responses in the processor_responses
// table. Inserts only; records are never updated or deleted here.
type responseRepo struct{ pool *pgxpool.Pool }

func NewResponseRepo(pool *pgxpool.Pool) *responseRepo {
	return &responseRepo{pool: pool}
}

const responseColumns = `id, processor, transaction_id, basket_id, order_number, response, created_at`

func (r *responseRepo) Record(ctx context.Context, rec *model.GatewayResponseRecord) error {
	const q = `
INSERT INTO processor_responses (` + responseColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7);`

	_, err := r.pool.Exec(ctx, q, rec.ID, rec.Processor, rec.TransactionID, rec.BasketID, rec.OrderNumber, rec.Response, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *responseRepo) ListByBasket(ctx context.Context, basketID string) ([]*model.GatewayResponseRecord, error) {
	const q = `SELECT ` + responseColumns + ` FROM processor_responses WHERE basket_id=$1 ORDER BY created_at ASC;`
	return r.list(ctx, q, basketID)
}

func (r *responseRepo) ListByTransactionID(ctx context.Context, transactionID string) ([]*model.GatewayResponseRecord, error) {
	const q = `SELECT ` + responseColumns + ` FROM processor_responses WHERE transaction_id=$1 ORDER BY created_at ASC;`
	return r.list(ctx, q, transactionID)
}

func (r *responseRepo) list(ctx context.Context, q string, arg any) ([]*model.GatewayResponseRecord, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.GatewayResponseRecord
	for rows.Next() {
		rec := new(model.GatewayResponseRecord)
		if err := rows.Scan(&rec.ID, &rec.Processor, &rec.TransactionID, &rec.BasketID, &rec.OrderNumber, &rec.Response, &rec.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}
