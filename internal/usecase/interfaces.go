package usecase

import (
	"context"
	"time"

	"github.com/iho/walletledger/internal/domain"
)

// WalletRepository defines data access for wallets.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Wallet, error)
	// UpdateBalance sets balance and bumps version only if the stored version still
	// equals prevVersion; otherwise it returns domain.ErrVersionConflict.
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance, prevVersion int64, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
	// GetWithLogTotals reads a wallet and the totals of its applied operations from
	// one consistent snapshot.
	GetWithLogTotals(ctx context.Context, id string) (*domain.Wallet, domain.LogTotals, error)
}

// OperationRepository defines data access for the operation log.
type OperationRepository interface {
	Create(ctx context.Context, tx Transaction, op *domain.Operation) error
	GetByIdempotencyKey(ctx context.Context, walletID, key string) (*domain.Operation, error)
	GetByIdempotencyKeyTx(ctx context.Context, tx Transaction, walletID, key string) (*domain.Operation, error)
	// ListApplied returns applied operations with version > afterVersion, ascending.
	ListApplied(ctx context.Context, walletID string, afterVersion int64, limit int) ([]*domain.Operation, error)
}

// Transaction represents a storage transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// WalletLocker serialises mutations of a single wallet within the process.
type WalletLocker interface {
	Acquire(ctx context.Context, walletID string) error
	Release(walletID string)
}

// Retrier re-runs fn while it fails with transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, fn func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// OperationCache caches immutable operation records by wallet and idempotency key.
// A miss is reported as (nil, nil).
type OperationCache interface {
	Get(ctx context.Context, walletID, key string) (*domain.Operation, error)
	Set(ctx context.Context, op *domain.Operation) error
}

// Metrics records processor outcomes.
type Metrics interface {
	RecordOperation(kind domain.OperationKind, status string, duration time.Duration)
	RecordLockWait(duration time.Duration)
	RecordRetry()
}
