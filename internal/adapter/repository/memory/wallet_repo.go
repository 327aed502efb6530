package memory

import (
	"context"
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	store *Store
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(store *Store) *WalletRepository {
	return &WalletRepository{store: store}
}

// Create stores a new wallet.
func (r *WalletRepository) Create(_ context.Context, wallet *domain.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.wallets[wallet.ID]; ok {
		return errWalletExists
	}
	r.store.wallets[wallet.ID] = copyWallet(wallet)
	r.store.order = append(r.store.order, wallet.ID)
	return nil
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(_ context.Context, id string) (*domain.Wallet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	w, ok := r.store.wallets[id]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return copyWallet(w), nil
}

// GetWithLogTotals reads a wallet and aggregates its applied operations under one lock.
func (r *WalletRepository) GetWithLogTotals(_ context.Context, id string) (*domain.Wallet, domain.LogTotals, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	w, ok := r.store.wallets[id]
	if !ok {
		return nil, domain.LogTotals{}, domain.ErrWalletNotFound
	}

	var totals domain.LogTotals
	for _, op := range r.store.applied[id] {
		totals.Sum += op.Amount
		totals.Count++
		totals.MaxVersion = max(totals.MaxVersion, op.Version)
	}
	return copyWallet(w), totals, nil
}

// GetByIDForUpdate reads a wallet within a transaction. Conflicting writers are
// detected at commit time.
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	if _, err := asTx(tx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// UpdateBalance buffers a balance change guarded by prevVersion.
func (r *WalletRepository) UpdateBalance(_ context.Context, tx usecase.Transaction, id string, balance, prevVersion int64, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	r.store.mu.RLock()
	w, ok := r.store.wallets[id]
	stale := ok && w.Version != prevVersion
	r.store.mu.RUnlock()

	if !ok {
		return domain.ErrWalletNotFound
	}
	if stale {
		return domain.ErrVersionConflict
	}

	t.updates = append(t.updates, balanceUpdate{
		id:          id,
		balance:     balance,
		prevVersion: prevVersion,
		updatedAt:   updatedAt,
	})
	return nil
}

// List lists wallets in creation order.
func (r *WalletRepository) List(_ context.Context, limit, offset int) ([]*domain.Wallet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	wallets := make([]*domain.Wallet, 0, limit)
	for i := offset; i < len(r.store.order) && len(wallets) < limit; i++ {
		wallets = append(wallets, copyWallet(r.store.wallets[r.store.order[i]]))
	}
	return wallets, nil
}
