package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/walletledger/internal/domain"
)

// ReconciliationUseCase checks wallets against their operation logs.
type ReconciliationUseCase struct {
	walletRepo WalletRepository
}

// NewReconciliationUseCase creates a new reconciliation use case.
func NewReconciliationUseCase(walletRepo WalletRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{walletRepo: walletRepo}
}

// ReconciliationResult represents the result of a reconciliation check.
type ReconciliationResult struct {
	WalletID          string
	Currency          string
	RecordedBalance   int64
	CalculatedBalance int64
	Difference        int64
	RecordedVersion   int64
	AppliedCount      int64
	MaxVersion        int64
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileWallet recomputes a wallet's balance and version from its applied operations.
// A wallet is reconciled when the log sums to the balance, its versions are gap-free up
// to the wallet version and the balance is not negative. Wallet and log are read from
// one snapshot, so a concurrent commit cannot produce a false discrepancy.
func (uc *ReconciliationUseCase) ReconcileWallet(ctx context.Context, id string) (*ReconciliationResult, error) {
	walletID, err := domain.NormalizeWalletID(id)
	if err != nil {
		return nil, err
	}

	wallet, totals, err := uc.walletRepo.GetWithLogTotals(ctx, walletID)
	if err != nil {
		return nil, classifyError(err)
	}
	sum, count, maxVersion := totals.Sum, totals.Count, totals.MaxVersion

	return &ReconciliationResult{
		WalletID:          wallet.ID,
		Currency:          wallet.Currency,
		RecordedBalance:   wallet.Balance,
		CalculatedBalance: sum,
		Difference:        wallet.Balance - sum,
		RecordedVersion:   wallet.Version,
		AppliedCount:      count,
		MaxVersion:        maxVersion,
		IsReconciled: sum == wallet.Balance &&
			count == wallet.Version &&
			maxVersion == wallet.Version &&
			wallet.Balance >= 0,
		LastChecked: time.Now().UTC(),
	}, nil
}

// ReconciliationReport represents a full reconciliation report.
type ReconciliationReport struct {
	TotalWallets      int
	ReconciledWallets int
	Discrepancies     []*ReconciliationResult
	CheckedAt         time.Time
}

// GenerateReport reconciles every wallet, paging through the wallet table.
func (uc *ReconciliationUseCase) GenerateReport(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		Discrepancies: make([]*ReconciliationResult, 0),
	}

	for offset := 0; ; offset += ReconciliationPageSize {
		wallets, err := uc.walletRepo.List(ctx, ReconciliationPageSize, offset)
		if err != nil {
			return nil, classifyError(err)
		}

		for _, wallet := range wallets {
			result, err := uc.ReconcileWallet(ctx, wallet.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile wallet %s: %w", wallet.ID, err)
			}

			report.TotalWallets++
			if result.IsReconciled {
				report.ReconciledWallets++
			} else {
				report.Discrepancies = append(report.Discrepancies, result)
			}
		}

		if len(wallets) < ReconciliationPageSize {
			break
		}
	}

	report.CheckedAt = time.Now().UTC()
	return report, nil
}
