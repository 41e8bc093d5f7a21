package domain

import "fmt"

// Error types for consistent error handling across the service.

// ErrNotFound indicates a referenced record does not exist.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrAlreadyReversal indicates an attempt to reverse a reversal entry.
// Reversals are immutable and can never be reversed themselves.
type ErrAlreadyReversal struct {
	ID string
}

func (e *ErrAlreadyReversal) Error() string {
	return fmt.Sprintf("transaction %s is a reversal entry and cannot be reversed", e.ID)
}

// ErrAlreadyReversed indicates the transaction already has a reversal.
// A transaction may be the target of at most one reversal.
type ErrAlreadyReversed struct {
	ID         string
	ReversalID string
}

func (e *ErrAlreadyReversed) Error() string {
	return fmt.Sprintf("transaction %s is already reversed by %s", e.ID, e.ReversalID)
}

// ErrPeriodClosed indicates a write into a closed accounting period.
type ErrPeriodClosed struct {
	PeriodID string
}

func (e *ErrPeriodClosed) Error() string {
	return fmt.Sprintf("period %s is closed", e.PeriodID)
}

// ErrExternalService indicates a ledger store operation failed
// (network/storage fault). The service performs no automatic retry beyond
// the resilience layer; surfacing the failure is the contract.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
