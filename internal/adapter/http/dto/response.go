package dto

import (
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID           string    `json:"id"`
	Currency     string    `json:"currency"`
	Balance      string    `json:"balance"`
	BalanceMinor int64     `json:"balance_minor"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WalletFromDomain converts domain wallet to response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:           w.ID,
		Currency:     w.Currency,
		Balance:      domain.FormatMinorUnits(w.Balance, w.Currency),
		BalanceMinor: w.Balance,
		Version:      w.Version,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

// WalletsFromDomain converts domain wallets to responses.
func WalletsFromDomain(wallets []*domain.Wallet) []*WalletResponse {
	result := make([]*WalletResponse, len(wallets))
	for i, w := range wallets {
		result[i] = WalletFromDomain(w)
	}
	return result
}

// ListWalletsResponse represents a page of wallets.
type ListWalletsResponse struct {
	Wallets []*WalletResponse `json:"wallets"`
	Total   int64             `json:"total"`
}

// OperationResponse represents an operation record in API responses.
// Amounts are rendered in major units of the wallet currency; Amount is signed.
type OperationResponse struct {
	ID              string    `json:"id"`
	WalletID        string    `json:"wallet_id"`
	IdempotencyKey  string    `json:"idempotency_key"`
	OperationType   string    `json:"operationType"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	Amount          string    `json:"amount"`
	AmountMinor     int64     `json:"amount_minor"`
	BalanceBefore   string    `json:"balance_before"`
	BalanceAfter    string    `json:"balance_after"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
}

// OperationFromDomain converts a domain operation to response.
func OperationFromDomain(op *domain.Operation, currency string) *OperationResponse {
	return &OperationResponse{
		ID:              op.ID,
		WalletID:        op.WalletID,
		IdempotencyKey:  op.IdempotencyKey,
		OperationType:   string(op.Kind),
		Status:          string(op.Status),
		RejectionReason: op.RejectionReason,
		Amount:          domain.FormatMinorUnits(op.Amount, currency),
		AmountMinor:     op.Amount,
		BalanceBefore:   domain.FormatMinorUnits(op.BalanceBefore, currency),
		BalanceAfter:    domain.FormatMinorUnits(op.BalanceAfter, currency),
		Version:         op.Version,
		CreatedAt:       op.CreatedAt,
	}
}

// OperationsFromDomain converts domain operations to responses.
func OperationsFromDomain(ops []*domain.Operation, currency string) []*OperationResponse {
	result := make([]*OperationResponse, len(ops))
	for i, op := range ops {
		result[i] = OperationFromDomain(op, currency)
	}
	return result
}

// SubmitOperationResponse is returned for a processed or replayed operation.
type SubmitOperationResponse struct {
	Operation *OperationResponse `json:"operation"`
	Wallet    *WalletResponse    `json:"wallet,omitempty"`
	Replayed  bool               `json:"replayed"`
}

// ListOperationsResponse represents a page of wallet history.
// NextAfterVersion is the cursor for the next page, or zero when the page was short.
type ListOperationsResponse struct {
	Operations       []*OperationResponse `json:"operations"`
	NextAfterVersion int64                `json:"next_after_version,omitempty"`
}

// ReconciliationResponse represents a wallet reconciliation result.
type ReconciliationResponse struct {
	WalletID          string    `json:"wallet_id"`
	RecordedBalance   string    `json:"recorded_balance"`
	CalculatedBalance string    `json:"calculated_balance"`
	Difference        string    `json:"difference"`
	RecordedVersion   int64     `json:"recorded_version"`
	AppliedCount      int64     `json:"applied_count"`
	MaxVersion        int64     `json:"max_version"`
	IsReconciled      bool      `json:"is_reconciled"`
	LastChecked       time.Time `json:"last_checked"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		WalletID:          r.WalletID,
		RecordedBalance:   domain.FormatMinorUnits(r.RecordedBalance, r.Currency),
		CalculatedBalance: domain.FormatMinorUnits(r.CalculatedBalance, r.Currency),
		Difference:        domain.FormatMinorUnits(r.Difference, r.Currency),
		RecordedVersion:   r.RecordedVersion,
		AppliedCount:      r.AppliedCount,
		MaxVersion:        r.MaxVersion,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ReconciliationReportResponse summarises a ledger-wide reconciliation.
type ReconciliationReportResponse struct {
	TotalWallets      int                       `json:"total_wallets"`
	ReconciledWallets int                       `json:"reconciled_wallets"`
	Discrepancies     []*ReconciliationResponse `json:"discrepancies"`
	CheckedAt         time.Time                 `json:"checked_at"`
}

// ReconciliationReportFromUseCase converts a report to response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromUseCase(d)
	}
	return &ReconciliationReportResponse{
		TotalWallets:      r.TotalWallets,
		ReconciledWallets: r.ReconciledWallets,
		Discrepancies:     discrepancies,
		CheckedAt:         r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
// Operation carries the recorded rejection when a withdrawal was refused.
type ErrorResponse struct {
	Error     string             `json:"error"`
	Message   string             `json:"message,omitempty"`
	Operation *OperationResponse `json:"operation,omitempty"`
}
