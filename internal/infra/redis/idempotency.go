package redis

import (
	"context"
	"time"
)

const pendingMarker = "__pending__"

// IdempotencyStore deduplicates charge submissions at the transport boundary.
// The processor core stays dedup-free; keys are derived from the order number,
// so a retried checkout for the same order replays the stored outcome instead
// of charging twice.
type IdempotencyStore struct {
	cli *Client
	ttl time.Duration
}

func NewIdempotencyStore(cli *Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{cli: cli, ttl: ttl}
}

// Begin claims the key for the current attempt. false means another attempt
// already holds it (in flight or completed).
func (s *IdempotencyStore) Begin(ctx context.Context, key string) (bool, error) {
	return s.cli.SetNX(ctx, key, pendingMarker, s.ttl)
}

// Complete stores the serialized outcome so replays can return it verbatim.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, response []byte) error {
	return s.cli.Set(ctx, key, string(response), s.ttl)
}

// Lookup returns the stored outcome. inFlight is true while an attempt holds
// the key without a stored outcome yet.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (response string, inFlight bool, found bool, err error) {
	v, err := s.cli.Get(ctx, key)
	if err != nil {
		if IsNil(err) {
			return "", false, false, nil
		}
		return "", false, false, err
	}
	if v == pendingMarker {
		return "", true, true, nil
	}
	return v, false, true, nil
}

// Release frees the key after a failed attempt so the caller may retry.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.cli.Del(ctx, key)
}
