package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

var errTxClosed = errors.New("transaction already closed")

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{store: m.store}, nil
}

type balanceUpdate struct {
	id          string
	balance     int64
	prevVersion int64
	updatedAt   time.Time
}

// Tx buffers writes until Commit.
type Tx struct {
	store   *Store
	updates []balanceUpdate
	ops     []*domain.Operation
	closed  bool
}

// Commit applies all buffered writes or none of them. It fails with
// domain.ErrVersionConflict if a wallet changed or a key was recorded since the
// transaction read it.
func (t *Tx) Commit(ctx context.Context) error {
	if t.closed {
		return errTxClosed
	}
	t.closed = true

	if err := ctx.Err(); err != nil {
		return err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	versions := make(map[string]int64, len(t.updates))
	for _, u := range t.updates {
		w, ok := s.wallets[u.id]
		if !ok {
			return domain.ErrWalletNotFound
		}
		current, seen := versions[u.id]
		if !seen {
			current = w.Version
		}
		if current != u.prevVersion {
			return fmt.Errorf("%w: wallet %s", domain.ErrVersionConflict, u.id)
		}
		versions[u.id] = u.prevVersion + 1
	}
	for _, op := range t.ops {
		if _, dup := s.byKey[opKey{op.WalletID, op.IdempotencyKey}]; dup {
			return fmt.Errorf("%w: idempotency key %q", domain.ErrVersionConflict, op.IdempotencyKey)
		}
	}

	for _, u := range t.updates {
		w := s.wallets[u.id]
		w.Balance = u.balance
		w.Version = u.prevVersion + 1
		w.UpdatedAt = u.updatedAt
	}
	for _, op := range t.ops {
		s.byKey[opKey{op.WalletID, op.IdempotencyKey}] = op
		if op.IsApplied() {
			s.applied[op.WalletID] = append(s.applied[op.WalletID], op)
		}
	}

	return nil
}

// Rollback discards buffered writes.
func (t *Tx) Rollback(_ context.Context) error {
	if t.closed {
		return errTxClosed
	}
	t.closed = true
	t.updates = nil
	t.ops = nil
	return nil
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("memory: unexpected transaction type %T", tx)
	}
	if t.closed {
		return nil, errTxClosed
	}
	return t, nil
}
