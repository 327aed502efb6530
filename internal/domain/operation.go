package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationKind is the direction of a balance change.
type OperationKind string

const (
	OperationKindDeposit    OperationKind = "deposit"
	OperationKindWithdrawal OperationKind = "withdrawal"
)

// OperationStatus is the terminal outcome of an operation.
type OperationStatus string

const (
	OperationStatusApplied  OperationStatus = "applied"
	OperationStatusRejected OperationStatus = "rejected"
)

// RejectionReasonInsufficientFunds is recorded when a withdrawal would overdraw the wallet.
const RejectionReasonInsufficientFunds = "insufficient_funds"

// OperationRequest is the raw, caller-supplied payload of a deposit or withdrawal.
type OperationRequest struct {
	WalletID       string
	Kind           string
	Amount         string
	Currency       string
	IdempotencyKey string
}

// OperationDraft is a validated request that has not yet been applied.
type OperationDraft struct {
	WalletID       string
	Kind           OperationKind
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
}

// Operation is an immutable record in a wallet's operation log.
// Version is the wallet version after processing: the new version for applied
// operations and the unchanged one for rejected operations.
type Operation struct {
	CreatedAt       time.Time
	ID              string
	WalletID        string
	IdempotencyKey  string
	Kind            OperationKind
	Status          OperationStatus
	RejectionReason string
	Amount          int64
	BalanceBefore   int64
	BalanceAfter    int64
	Version         int64
}

// IsApplied reports whether the operation changed the wallet.
func (o *Operation) IsApplied() bool {
	return o.Status == OperationStatusApplied
}

// Err returns the business error a rejected operation represents.
func (o *Operation) Err() error {
	if o.Status == OperationStatusRejected && o.RejectionReason == RejectionReasonInsufficientFunds {
		return ErrInsufficientFunds
	}
	return nil
}
