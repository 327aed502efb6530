package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciliation(t *testing.T) {
	s := newStack(t, nil)
	ctx := context.Background()

	healthy, err := s.wallets.CreateWallet(ctx, "USD")
	require.NoError(t, err)
	_, err = s.submit(ctx, healthy.ID, "DEPOSIT", "25", "dep")
	require.NoError(t, err)

	drifted, err := s.wallets.CreateWallet(ctx, "USD")
	require.NoError(t, err)
	_, err = s.submit(ctx, drifted.ID, "DEPOSIT", "10", "dep")
	require.NoError(t, err)
	s.db.ForceBalance(ctx, drifted.ID, 1500)

	result, err := s.reconciliation.ReconcileWallet(ctx, healthy.ID)
	require.NoError(t, err)
	assert.True(t, result.IsReconciled)
	assert.Equal(t, int64(2500), result.CalculatedBalance)

	result, err = s.reconciliation.ReconcileWallet(ctx, drifted.ID)
	require.NoError(t, err)
	assert.False(t, result.IsReconciled)
	assert.Equal(t, int64(500), result.Difference)

	report, err := s.reconciliation.GenerateReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalWallets)
	assert.Equal(t, 1, report.ReconciledWallets)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, drifted.ID, report.Discrepancies[0].WalletID)
}

func TestDirectWalletFixture(t *testing.T) {
	s := newStack(t, nil)
	ctx := context.Background()

	wallet := s.db.CreateTestWallet(ctx, "KRW")

	res, err := s.submit(ctx, wallet.ID, "DEPOSIT", "700", "dep")
	require.NoError(t, err)
	assert.Equal(t, int64(700), res.Wallet.Balance)

	result, err := s.reconciliation.ReconcileWallet(ctx, wallet.ID)
	require.NoError(t, err)
	assert.True(t, result.IsReconciled)
}

func TestReconciliationDuringConcurrentDeposits(t *testing.T) {
	s := newStack(t, nil)
	ctx := context.Background()

	wallet, err := s.wallets.CreateWallet(ctx, "USD")
	require.NoError(t, err)

	const deposits = 100
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range deposits {
			if _, err := s.submit(ctx, wallet.ID, "DEPOSIT", "1", fmt.Sprintf("dep-%d", i)); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
		}

		result, err := s.reconciliation.ReconcileWallet(ctx, wallet.ID)
		require.NoError(t, err)
		require.True(t, result.IsReconciled, "false discrepancy: %+v", result)
	}

	result, err := s.reconciliation.ReconcileWallet(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(deposits*100), result.CalculatedBalance)
}
