package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOperation is the family of caller errors detected before any state is touched.
	ErrInvalidOperation = errors.New("invalid operation")

	ErrInvalidWalletID       = fmt.Errorf("%w: wallet id must be a UUID", ErrInvalidOperation)
	ErrUnsupportedKind       = fmt.Errorf("%w: unsupported operation kind", ErrInvalidOperation)
	ErrInvalidAmount         = fmt.Errorf("%w: amount must be a positive decimal", ErrInvalidOperation)
	ErrAmountTooLarge        = fmt.Errorf("%w: amount exceeds maximum allowed", ErrInvalidOperation)
	ErrInvalidCurrency       = fmt.Errorf("%w: unsupported currency code", ErrInvalidOperation)
	ErrCurrencyMismatch      = fmt.Errorf("%w: currency does not match wallet currency", ErrInvalidOperation)
	ErrMissingIdempotencyKey = fmt.Errorf("%w: idempotency key is required", ErrInvalidOperation)
	ErrInvalidIdempotencyKey = fmt.Errorf("%w: malformed idempotency key", ErrInvalidOperation)

	// Wallet errors
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = fmt.Errorf("%w: resulting balance is out of range", ErrAmountTooLarge)

	// Operation log errors
	ErrOperationNotFound = errors.New("operation not found")

	// Storage errors
	ErrStorageFailure  = errors.New("storage failure")
	ErrVersionConflict = errors.New("wallet version changed concurrently")
)
