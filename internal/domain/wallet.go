package domain

import (
	"math"
	"time"
)

// Wallet holds a non-negative balance in minor units of a single currency.
type Wallet struct {
	ID        string
	Currency  string
	Balance   int64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LogTotals aggregates the applied operations of one wallet.
type LogTotals struct {
	Sum        int64
	Count      int64
	MaxVersion int64
}

// CanApply reports whether delta keeps the balance non-negative.
func (w *Wallet) CanApply(delta int64) bool {
	balance, ok := addMinorUnits(w.Balance, delta)
	return ok && balance >= 0
}

// Apply returns the balance and version the wallet would have after delta.
// It fails with ErrBalanceOverflow when the balance would leave the int64 range.
func (w *Wallet) Apply(delta int64) (balance, version int64, err error) {
	balance, ok := addMinorUnits(w.Balance, delta)
	if !ok {
		return 0, 0, ErrBalanceOverflow
	}
	return balance, w.Version + 1, nil
}

func addMinorUnits(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}
