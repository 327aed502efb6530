package memory

import (
	"context"
	"sort"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// OperationRepository implements usecase.OperationRepository.
type OperationRepository struct {
	store *Store
}

// NewOperationRepository creates a new OperationRepository.
func NewOperationRepository(store *Store) *OperationRepository {
	return &OperationRepository{store: store}
}

// Create buffers a new operation record.
func (r *OperationRepository) Create(_ context.Context, tx usecase.Transaction, op *domain.Operation) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	t.ops = append(t.ops, copyOperation(op))
	return nil
}

// GetByIdempotencyKey retrieves a committed operation by wallet and key.
func (r *OperationRepository) GetByIdempotencyKey(_ context.Context, walletID, key string) (*domain.Operation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	op, ok := r.store.byKey[opKey{walletID, key}]
	if !ok {
		return nil, domain.ErrOperationNotFound
	}
	return copyOperation(op), nil
}

// GetByIdempotencyKeyTx also sees operations written earlier in tx.
func (r *OperationRepository) GetByIdempotencyKeyTx(ctx context.Context, tx usecase.Transaction, walletID, key string) (*domain.Operation, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	for _, op := range t.ops {
		if op.WalletID == walletID && op.IdempotencyKey == key {
			return copyOperation(op), nil
		}
	}
	return r.GetByIdempotencyKey(ctx, walletID, key)
}

// ListApplied returns applied operations with version > afterVersion, ascending.
func (r *OperationRepository) ListApplied(_ context.Context, walletID string, afterVersion int64, limit int) ([]*domain.Operation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	log := r.store.applied[walletID]
	start := sort.Search(len(log), func(i int) bool { return log[i].Version > afterVersion })

	ops := make([]*domain.Operation, 0, min(limit, len(log)-start))
	for i := start; i < len(log) && len(ops) < limit; i++ {
		ops = append(ops, copyOperation(log[i]))
	}
	return ops, nil
}
