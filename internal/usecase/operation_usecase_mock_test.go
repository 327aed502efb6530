package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/internal/usecase/mocks"
)

const mockWalletID = "6f1c1e0a-4b7e-4a8e-9f53-2d2b7c9a1e01"

type operationMocks struct {
	txManager     *mocks.MockTransactionManager
	tx            *mocks.MockTransaction
	walletRepo    *mocks.MockWalletRepository
	operationRepo *mocks.MockOperationRepository
	locker        *mocks.MockWalletLocker
	retrier       *mocks.MockRetrier
	idGen         *mocks.MockIDGenerator
	cache         *mocks.MockOperationCache
	metrics       *mocks.MockMetrics
}

func newOperationMocks(t *testing.T) (*operationMocks, *usecase.OperationUseCase) {
	ctrl := gomock.NewController(t)
	m := &operationMocks{
		txManager:     mocks.NewMockTransactionManager(ctrl),
		tx:            mocks.NewMockTransaction(ctrl),
		walletRepo:    mocks.NewMockWalletRepository(ctrl),
		operationRepo: mocks.NewMockOperationRepository(ctrl),
		locker:        mocks.NewMockWalletLocker(ctrl),
		retrier:       mocks.NewMockRetrier(ctrl),
		idGen:         mocks.NewMockIDGenerator(ctrl),
		cache:         mocks.NewMockOperationCache(ctrl),
		metrics:       mocks.NewMockMetrics(ctrl),
	}

	// Single attempt, no backoff.
	m.retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func() error) error { return fn() }).
		AnyTimes()
	m.metrics.EXPECT().RecordLockWait(gomock.Any()).AnyTimes()
	m.metrics.EXPECT().RecordRetry().AnyTimes()

	uc := usecase.NewOperationUseCase(
		m.txManager, m.walletRepo, m.operationRepo, m.locker, m.retrier, m.idGen, m.cache, m.metrics, zerolog.Nop(),
	)
	return m, uc
}

func depositRequest(key string) domain.OperationRequest {
	return domain.OperationRequest{WalletID: mockWalletID, Kind: "deposit", Amount: "1.00", IdempotencyKey: key}
}

func TestSubmitOperation_InvalidRequestTouchesNothing(t *testing.T) {
	m, uc := newOperationMocks(t)
	m.metrics.EXPECT().RecordOperation(domain.OperationKind(""), usecase.OutcomeInvalid, gomock.Any())

	_, err := uc.SubmitOperation(context.Background(), domain.OperationRequest{WalletID: mockWalletID, Kind: "deposit", Amount: "-1", IdempotencyKey: "k"})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestSubmitOperation_CacheHitSkipsLock(t *testing.T) {
	m, uc := newOperationMocks(t)
	cached := &domain.Operation{ID: "op-1", WalletID: mockWalletID, IdempotencyKey: "k", Status: domain.OperationStatusApplied, Version: 3}

	m.cache.EXPECT().Get(gomock.Any(), mockWalletID, "k").Return(cached, nil)
	m.metrics.EXPECT().RecordOperation(domain.OperationKindDeposit, usecase.OutcomeReplayed, gomock.Any())

	res, err := uc.SubmitOperation(context.Background(), depositRequest("k"))
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Same(t, cached, res.Operation)
	assert.Nil(t, res.Wallet)
}

func TestSubmitOperation_CacheErrorFallsBackToLog(t *testing.T) {
	m, uc := newOperationMocks(t)
	stored := &domain.Operation{ID: "op-1", WalletID: mockWalletID, IdempotencyKey: "k", Status: domain.OperationStatusApplied, Version: 1}

	m.cache.EXPECT().Get(gomock.Any(), mockWalletID, "k").Return(nil, errors.New("redis down"))
	m.operationRepo.EXPECT().GetByIdempotencyKey(gomock.Any(), mockWalletID, "k").Return(stored, nil)
	m.cache.EXPECT().Set(gomock.Any(), stored).Return(errors.New("redis down"))
	m.metrics.EXPECT().RecordOperation(domain.OperationKindDeposit, usecase.OutcomeReplayed, gomock.Any())

	res, err := uc.SubmitOperation(context.Background(), depositRequest("k"))
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, "op-1", res.Operation.ID)
}

func TestSubmitOperation_LockFailureReturnsWithoutTransaction(t *testing.T) {
	m, uc := newOperationMocks(t)

	m.cache.EXPECT().Get(gomock.Any(), mockWalletID, "k").Return(nil, nil)
	m.operationRepo.EXPECT().GetByIdempotencyKey(gomock.Any(), mockWalletID, "k").Return(nil, domain.ErrOperationNotFound)
	m.locker.EXPECT().Acquire(gomock.Any(), mockWalletID).Return(context.DeadlineExceeded)
	m.metrics.EXPECT().RecordOperation(domain.OperationKindDeposit, usecase.OutcomeError, gomock.Any())

	res, err := uc.SubmitOperation(context.Background(), depositRequest("k"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, res)
}

func TestSubmitOperation_StorageErrorsAreClassified(t *testing.T) {
	m, uc := newOperationMocks(t)

	m.cache.EXPECT().Get(gomock.Any(), mockWalletID, "k").Return(nil, nil)
	m.operationRepo.EXPECT().GetByIdempotencyKey(gomock.Any(), mockWalletID, "k").Return(nil, domain.ErrOperationNotFound)
	m.locker.EXPECT().Acquire(gomock.Any(), mockWalletID).Return(nil)
	m.locker.EXPECT().Release(mockWalletID)
	m.txManager.EXPECT().Begin(gomock.Any()).Return(nil, errors.New("connection refused"))
	m.metrics.EXPECT().RecordOperation(domain.OperationKindDeposit, usecase.OutcomeError, gomock.Any())

	res, err := uc.SubmitOperation(context.Background(), depositRequest("k"))
	require.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Nil(t, res)
}

func TestSubmitOperation_LookupFailureIsStorageFailure(t *testing.T) {
	m, uc := newOperationMocks(t)

	m.cache.EXPECT().Get(gomock.Any(), mockWalletID, "k").Return(nil, nil)
	m.operationRepo.EXPECT().GetByIdempotencyKey(gomock.Any(), mockWalletID, "k").Return(nil, errors.New("io timeout"))
	m.metrics.EXPECT().RecordOperation(domain.OperationKindDeposit, usecase.OutcomeError, gomock.Any())

	_, err := uc.SubmitOperation(context.Background(), depositRequest("k"))
	require.ErrorIs(t, err, domain.ErrStorageFailure)
}

func TestSubmitOperation_CriticalSectionSurvivesCallerCancel(t *testing.T) {
	m, uc := newOperationMocks(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wallet := &domain.Wallet{ID: mockWalletID, Currency: "USD", Balance: 0, Version: 0}

	m.cache.EXPECT().Get(gomock.Any(), mockWalletID, "k").Return(nil, nil)
	m.operationRepo.EXPECT().GetByIdempotencyKey(gomock.Any(), mockWalletID, "k").Return(nil, domain.ErrOperationNotFound)
	m.locker.EXPECT().Acquire(gomock.Any(), mockWalletID).DoAndReturn(func(context.Context, string) error {
		cancel()
		return nil
	})
	m.locker.EXPECT().Release(mockWalletID)
	m.txManager.EXPECT().Begin(gomock.Any()).DoAndReturn(func(txCtx context.Context) (usecase.Transaction, error) {
		require.NoError(t, txCtx.Err())
		_, hasDeadline := txCtx.Deadline()
		require.True(t, hasDeadline)
		return m.tx, nil
	})
	m.walletRepo.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, mockWalletID).Return(wallet, nil)
	m.operationRepo.EXPECT().GetByIdempotencyKeyTx(gomock.Any(), m.tx, mockWalletID, "k").Return(nil, domain.ErrOperationNotFound)
	m.walletRepo.EXPECT().UpdateBalance(gomock.Any(), m.tx, mockWalletID, int64(100), int64(0), gomock.Any()).Return(nil)
	m.idGen.EXPECT().Generate().Return("op-1")
	m.operationRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	m.cache.EXPECT().Set(gomock.Any(), gomock.Any()).Return(nil)
	m.metrics.EXPECT().RecordOperation(domain.OperationKindDeposit, usecase.OutcomeApplied, gomock.Any())

	res, err := uc.SubmitOperation(ctx, depositRequest("k"))
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Operation.BalanceAfter)
	assert.Equal(t, int64(1), res.Operation.Version)
	assert.Equal(t, int64(100), res.Wallet.Balance)
}

func TestSubmitOperation_ConcurrentKeyFoundInsideTransaction(t *testing.T) {
	m, uc := newOperationMocks(t)
	wallet := &domain.Wallet{ID: mockWalletID, Currency: "USD", Balance: 100, Version: 1}
	recorded := &domain.Operation{ID: "op-0", WalletID: mockWalletID, IdempotencyKey: "k", Kind: domain.OperationKindDeposit, Status: domain.OperationStatusApplied, Version: 1}

	m.cache.EXPECT().Get(gomock.Any(), mockWalletID, "k").Return(nil, nil)
	m.operationRepo.EXPECT().GetByIdempotencyKey(gomock.Any(), mockWalletID, "k").Return(nil, domain.ErrOperationNotFound)
	m.locker.EXPECT().Acquire(gomock.Any(), mockWalletID).Return(nil)
	m.locker.EXPECT().Release(mockWalletID)
	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.walletRepo.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, mockWalletID).Return(wallet, nil)
	m.operationRepo.EXPECT().GetByIdempotencyKeyTx(gomock.Any(), m.tx, mockWalletID, "k").Return(recorded, nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	m.metrics.EXPECT().RecordOperation(domain.OperationKindDeposit, usecase.OutcomeReplayed, gomock.Any())

	res, err := uc.SubmitOperation(context.Background(), depositRequest("k"))
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, "op-0", res.Operation.ID)
}
