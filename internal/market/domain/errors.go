package domain

import "errors"

// Error taxonomy surfaced to callers. Wrap these with fmt.Errorf and %w
// so errors.Is works at the transport edge.
var (
	// ErrValidation marks malformed or policy-violating input. Never
	// retried automatically.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden marks an ownership or counterparty violation, such as
	// a non-owner edit or a seller bidding on their own auction.
	ErrForbidden = errors.New("action forbidden")

	// ErrStateConflict marks a precondition that became false under a
	// concurrent mutation. Retryable after the client refetches state.
	ErrStateConflict = errors.New("state conflict")

	// ErrNotFound marks a missing listing, bid or favorite.
	ErrNotFound = errors.New("not found")
)
