package integration

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/adapter/repository/postgres"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/walletlock"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/tests/testutil"
)

type stack struct {
	db             *testutil.TestDB
	walletRepo     *postgres.WalletRepository
	operationRepo  *postgres.OperationRepository
	operations     *usecase.OperationUseCase
	wallets        *usecase.WalletUseCase
	reconciliation *usecase.ReconciliationUseCase
}

func newStack(t *testing.T, cache usecase.OperationCache) *stack {
	t.Helper()

	db := testutil.NewTestDB(t)
	db.TruncateAll(context.Background())

	walletRepo := postgres.NewWalletRepository(db.Pool)
	operationRepo := postgres.NewOperationRepository(db.Pool)

	return &stack{
		db:            db,
		walletRepo:    walletRepo,
		operationRepo: operationRepo,
		operations: usecase.NewOperationUseCase(
			postgres.NewTxManager(db.Pool),
			walletRepo,
			operationRepo,
			walletlock.New(10*time.Second),
			postgres.NewRetrier(zerolog.Nop()),
			postgres.NewULIDGenerator(),
			cache,
			nil,
			zerolog.Nop(),
		),
		wallets:        usecase.NewWalletUseCase(walletRepo, operationRepo, cache),
		reconciliation: usecase.NewReconciliationUseCase(walletRepo),
	}
}

func (s *stack) submit(ctx context.Context, walletID, kind, amount, key string) (*usecase.OperationResult, error) {
	return s.operations.SubmitOperation(ctx, domain.OperationRequest{
		WalletID:       walletID,
		Kind:           kind,
		Amount:         amount,
		IdempotencyKey: key,
	})
}
