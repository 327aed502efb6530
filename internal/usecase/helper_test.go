package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/adapter/repository/memory"
	"github.com/iho/walletledger/internal/adapter/repository/postgres"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/walletlock"
	"github.com/iho/walletledger/internal/usecase"
)

// ledger wires the use cases over the in-memory store.
type ledger struct {
	store          *memory.Store
	walletRepo     *memory.WalletRepository
	operationRepo  *memory.OperationRepository
	txManager      *memory.TxManager
	operations     *usecase.OperationUseCase
	wallets        *usecase.WalletUseCase
	reconciliation *usecase.ReconciliationUseCase
}

func newLedger(t *testing.T) *ledger {
	t.Helper()

	store := memory.NewStore()
	walletRepo := memory.NewWalletRepository(store)
	operationRepo := memory.NewOperationRepository(store)
	txManager := memory.NewTxManager(store)

	return &ledger{
		store:         store,
		walletRepo:    walletRepo,
		operationRepo: operationRepo,
		txManager:     txManager,
		operations: usecase.NewOperationUseCase(
			txManager,
			walletRepo,
			operationRepo,
			walletlock.New(5*time.Second),
			postgres.NewRetrier(zerolog.Nop()),
			postgres.NewULIDGenerator(),
			nil,
			nil,
			zerolog.Nop(),
		),
		wallets:        usecase.NewWalletUseCase(walletRepo, operationRepo, nil),
		reconciliation: usecase.NewReconciliationUseCase(walletRepo),
	}
}

func (l *ledger) createWallet(t *testing.T, currency string) *domain.Wallet {
	t.Helper()
	w, err := l.wallets.CreateWallet(context.Background(), currency)
	require.NoError(t, err)
	return w
}

func (l *ledger) submit(walletID, kind, amount, key string) (*usecase.OperationResult, error) {
	return l.operations.SubmitOperation(context.Background(), domain.OperationRequest{
		WalletID:       walletID,
		Kind:           kind,
		Amount:         amount,
		IdempotencyKey: key,
	})
}

func (l *ledger) balance(t *testing.T, walletID string) (int64, int64) {
	t.Helper()
	w, err := l.wallets.GetWallet(context.Background(), walletID)
	require.NoError(t, err)
	return w.Balance, w.Version
}
