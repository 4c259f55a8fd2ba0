package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound             = errors.New("entity not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNegativeAmount       = errors.New("amount must not be negative")
	ErrDuplicateRequest     = errors.New("duplicate request in flight")
	ErrUnsupportedOperation = errors.New("this payment processor does not support transaction parameters")

	// Persistence errors
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)

// ConfigurationError reports a missing processor credential at construction time.
// It is fatal setup-time feedback, never a per-call condition.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("payment processor configuration is missing %q", e.Field)
}

// TransactionDeclinedError is returned when the gateway explicitly rejected the
// card (insufficient funds, fraud hold, ...). The decline body has already been
// recorded for audit by the time this error is returned.
type TransactionDeclinedError struct {
	BasketID string
	Status   int // gateway HTTP status for the decline
}

func (e *TransactionDeclinedError) Error() string {
	return fmt.Sprintf("payment for basket [%s] declined with HTTP status [%d]", e.BasketID, e.Status)
}

// GatewayError covers every non-decline failure while reaching or interpreting
// the gateway. It is not retried here; the caller owns retry policy.
type GatewayError struct {
	Op  string // "charge" or "refund"
	Msg string
	Err error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *GatewayError) Unwrap() error { return e.Err }
