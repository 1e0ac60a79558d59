package ledger

import "errors"

var (
	// ErrInsufficientBalance is returned when a debit would take an account
	// balance below zero.
	ErrInsufficientBalance = errors.New("insufficient credit balance")

	// ErrAccountNotFound is returned when a transfer references an account
	// that does not exist.
	ErrAccountNotFound = errors.New("ledger account not found")
)
