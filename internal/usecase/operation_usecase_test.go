package usecase_test

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/domain"
)

func TestSubmitOperation_DepositWithdrawReject(t *testing.T) {
	l := newLedger(t)
	w := l.createWallet(t, "USD")

	res, err := l.submit(w.ID, "DEPOSIT", "500", "k1")
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, domain.OperationStatusApplied, res.Operation.Status)
	assert.Equal(t, int64(50000), res.Operation.Amount)
	assert.Equal(t, int64(0), res.Operation.BalanceBefore)
	assert.Equal(t, int64(50000), res.Operation.BalanceAfter)
	assert.Equal(t, int64(1), res.Operation.Version)
	assert.Equal(t, int64(50000), res.Wallet.Balance)

	res, err = l.submit(w.ID, "WITHDRAW", "500", "k2")
	require.NoError(t, err)
	assert.Equal(t, int64(-50000), res.Operation.Amount)
	assert.Equal(t, int64(0), res.Operation.BalanceAfter)
	assert.Equal(t, int64(2), res.Operation.Version)

	res, err = l.submit(w.ID, "WITHDRAW", "1", "k3")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.NotNil(t, res)
	assert.Equal(t, domain.OperationStatusRejected, res.Operation.Status)
	assert.Equal(t, domain.RejectionReasonInsufficientFunds, res.Operation.RejectionReason)
	assert.Equal(t, int64(2), res.Operation.Version)
	assert.Equal(t, res.Operation.BalanceBefore, res.Operation.BalanceAfter)

	balance, version := l.balance(t, w.ID)
	assert.Equal(t, int64(0), balance)
	assert.Equal(t, int64(2), version)
}

func TestSubmitOperation_ReplayReturnsOriginal(t *testing.T) {
	l := newLedger(t)
	w := l.createWallet(t, "EUR")

	first, err := l.submit(w.ID, "DEPOSIT", "10.25", "same")
	require.NoError(t, err)

	second, err := l.submit(w.ID, "DEPOSIT", "10.25", "same")
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Operation.ID, second.Operation.ID)

	// The key wins even when the payload differs.
	third, err := l.submit(w.ID, "WITHDRAW", "3", "same")
	require.NoError(t, err)
	assert.True(t, third.Replayed)
	assert.Equal(t, domain.OperationKindDeposit, third.Operation.Kind)

	balance, version := l.balance(t, w.ID)
	assert.Equal(t, int64(1025), balance)
	assert.Equal(t, int64(1), version)
}

func TestSubmitOperation_ReplayOfRejection(t *testing.T) {
	l := newLedger(t)
	w := l.createWallet(t, "USD")

	first, err := l.submit(w.ID, "WITHDRAW", "1", "k")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Funding the wallet does not turn the recorded rejection into an application.
	_, err = l.submit(w.ID, "DEPOSIT", "5", "fund")
	require.NoError(t, err)

	again, err := l.submit(w.ID, "WITHDRAW", "1", "k")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Operation.ID, again.Operation.ID)
	assert.Equal(t, int64(0), again.Operation.Version)

	balance, _ := l.balance(t, w.ID)
	assert.Equal(t, int64(500), balance)
}

func TestSubmitOperation_KeysAreScopedPerWallet(t *testing.T) {
	l := newLedger(t)
	a := l.createWallet(t, "USD")
	b := l.createWallet(t, "USD")

	ra, err := l.submit(a.ID, "DEPOSIT", "1", "shared")
	require.NoError(t, err)
	rb, err := l.submit(b.ID, "DEPOSIT", "2", "shared")
	require.NoError(t, err)

	assert.False(t, rb.Replayed)
	assert.NotEqual(t, ra.Operation.ID, rb.Operation.ID)
}

func TestSubmitOperation_ValidationErrors(t *testing.T) {
	l := newLedger(t)
	usd := l.createWallet(t, "USD")
	jpy := l.createWallet(t, "JPY")

	tests := []struct {
		name string
		req  domain.OperationRequest
		want error
	}{
		{"malformed wallet id", domain.OperationRequest{WalletID: "nope", Kind: "DEPOSIT", Amount: "1", IdempotencyKey: "k"}, domain.ErrInvalidWalletID},
		{"unknown kind", domain.OperationRequest{WalletID: usd.ID, Kind: "TRANSFER", Amount: "1", IdempotencyKey: "k"}, domain.ErrUnsupportedKind},
		{"zero amount", domain.OperationRequest{WalletID: usd.ID, Kind: "DEPOSIT", Amount: "0", IdempotencyKey: "k"}, domain.ErrInvalidAmount},
		{"missing key", domain.OperationRequest{WalletID: usd.ID, Kind: "DEPOSIT", Amount: "1"}, domain.ErrMissingIdempotencyKey},
		{"sub-cent amount", domain.OperationRequest{WalletID: usd.ID, Kind: "DEPOSIT", Amount: "0.001", IdempotencyKey: "k"}, domain.ErrInvalidAmount},
		{"fractional yen", domain.OperationRequest{WalletID: jpy.ID, Kind: "DEPOSIT", Amount: "1.5", IdempotencyKey: "k"}, domain.ErrInvalidAmount},
		{"currency mismatch", domain.OperationRequest{WalletID: usd.ID, Kind: "DEPOSIT", Amount: "1", Currency: "EUR", IdempotencyKey: "k"}, domain.ErrCurrencyMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := l.operations.SubmitOperation(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, domain.ErrInvalidOperation)
			assert.Nil(t, res)
		})
	}

	for _, w := range []*domain.Wallet{usd, jpy} {
		balance, version := l.balance(t, w.ID)
		assert.Zero(t, balance)
		assert.Zero(t, version)
	}
}

func TestSubmitOperation_DepositOverflowIsRefused(t *testing.T) {
	l := newLedger(t)
	w := l.createWallet(t, "USD")

	tx, err := l.txManager.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, l.walletRepo.UpdateBalance(context.Background(), tx, w.ID, math.MaxInt64-50, 0, w.CreatedAt))
	require.NoError(t, tx.Commit(context.Background()))

	res, err := l.submit(w.ID, "DEPOSIT", "1", "k-overflow")
	require.ErrorIs(t, err, domain.ErrBalanceOverflow)
	require.ErrorIs(t, err, domain.ErrInvalidOperation)
	assert.Nil(t, res)

	balance, version := l.balance(t, w.ID)
	assert.Equal(t, int64(math.MaxInt64-50), balance)
	assert.Equal(t, int64(1), version)

	history, err := l.operationRepo.ListApplied(context.Background(), w.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSubmitOperation_UnknownWallet(t *testing.T) {
	l := newLedger(t)

	res, err := l.submit("6f1c1e0a-4b7e-4a8e-9f53-2d2b7c9a1e01", "DEPOSIT", "1", "k")
	require.ErrorIs(t, err, domain.ErrWalletNotFound)
	assert.Nil(t, res)
}

func TestSubmitOperation_ConcurrentDeposits(t *testing.T) {
	l := newLedger(t)
	w := l.createWallet(t, "USD")

	const n = 64
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.submit(w.ID, "DEPOSIT", "1", "dep-"+strconv.Itoa(i))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, version := l.balance(t, w.ID)
	assert.Equal(t, int64(n*100), balance)
	assert.Equal(t, int64(n), version)

	assertGapFreeHistory(t, l, w.ID, n)
}

func TestSubmitOperation_ConcurrentSameKey(t *testing.T) {
	l := newLedger(t)
	w := l.createWallet(t, "USD")

	const n = 16
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[string]int{}
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.submit(w.ID, "DEPOSIT", "7", "once")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[res.Operation.ID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	balance, version := l.balance(t, w.ID)
	assert.Equal(t, int64(700), balance)
	assert.Equal(t, int64(1), version)
}

func TestSubmitOperation_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	l := newLedger(t)
	w := l.createWallet(t, "USD")
	_, err := l.submit(w.ID, "DEPOSIT", "10", "seed")
	require.NoError(t, err)

	const n = 25
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.submit(w.ID, "WITHDRAW", "1", fmt.Sprintf("wd-%d", i))
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
				return
			}
			mu.Lock()
			if res.Operation.IsApplied() {
				applied++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, applied)
	balance, version := l.balance(t, w.ID)
	assert.Equal(t, int64(0), balance)
	assert.Equal(t, int64(11), version)
}

func TestSubmitOperation_RandomSequenceMatchesModel(t *testing.T) {
	l := newLedger(t)
	w := l.createWallet(t, "JPY")
	rng := rand.New(rand.NewPCG(1, 2))

	var model, version int64
	for i := range 300 {
		amount := rng.Int64N(1000) + 1
		kind := "DEPOSIT"
		if rng.IntN(2) == 0 {
			kind = "WITHDRAW"
		}

		res, err := l.submit(w.ID, kind, strconv.FormatInt(amount, 10), "r-"+strconv.Itoa(i))

		switch {
		case kind == "DEPOSIT":
			require.NoError(t, err)
			model += amount
			version++
		case amount <= model:
			require.NoError(t, err)
			model -= amount
			version++
		default:
			require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		}

		require.GreaterOrEqual(t, res.Operation.BalanceAfter, int64(0))
		require.Equal(t, model, res.Operation.BalanceAfter)
		require.Equal(t, version, res.Operation.Version)
	}

	result, err := l.reconciliation.ReconcileWallet(context.Background(), w.ID)
	require.NoError(t, err)
	assert.True(t, result.IsReconciled)
	assert.Equal(t, model, result.CalculatedBalance)
	assert.Equal(t, version, result.AppliedCount)
}

func assertGapFreeHistory(t *testing.T, l *ledger, walletID string, want int64) {
	t.Helper()

	var expected int64 = 1
	for op, err := range l.wallets.History(context.Background(), walletID, 0, 7) {
		require.NoError(t, err)
		require.Equal(t, expected, op.Version)
		require.Equal(t, op.BalanceBefore+op.Amount, op.BalanceAfter)
		expected++
	}
	require.Equal(t, want+1, expected)
}
