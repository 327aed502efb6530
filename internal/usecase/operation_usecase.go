package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
)

// OperationUseCase applies deposits and withdrawals to wallets.
type OperationUseCase struct {
	txManager     TransactionManager
	walletRepo    WalletRepository
	operationRepo OperationRepository
	locker        WalletLocker
	retrier       Retrier
	idGen         IDGenerator
	cache         OperationCache
	metrics       Metrics
	logger        zerolog.Logger
	now           func() time.Time
}

// NewOperationUseCase creates a new OperationUseCase.
// cache may be nil to disable the read-through record cache; metrics may be nil.
func NewOperationUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	operationRepo OperationRepository,
	locker WalletLocker,
	retrier Retrier,
	idGen IDGenerator,
	cache OperationCache,
	metrics Metrics,
	logger zerolog.Logger,
) *OperationUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return &OperationUseCase{
		txManager:     txManager,
		walletRepo:    walletRepo,
		operationRepo: operationRepo,
		locker:        locker,
		retrier:       retrier,
		idGen:         idGen,
		cache:         cache,
		metrics:       metrics,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// OperationResult is the outcome of a submitted operation.
type OperationResult struct {
	Operation *domain.Operation
	// Wallet is the wallet state right after the operation was processed.
	// It is nil when the record was served from the cache or the log without locking.
	Wallet   *domain.Wallet
	Replayed bool
}

// SubmitOperation validates and applies an operation exactly once per idempotency key.
//
// A withdrawal that would overdraw the wallet is recorded as rejected; in that case
// both the result and an error wrapping domain.ErrInsufficientFunds are returned.
// Resubmitting a key returns the original record (and its error) with Replayed set.
func (uc *OperationUseCase) SubmitOperation(ctx context.Context, req domain.OperationRequest) (*OperationResult, error) {
	start := time.Now()

	// 1. Validate before touching any state
	draft, err := domain.ValidateOperation(req)
	if err != nil {
		uc.metrics.RecordOperation("", OutcomeInvalid, time.Since(start))
		return nil, err
	}

	// 2. Idempotency fast path
	existing, err := uc.lookup(ctx, draft.WalletID, draft.IdempotencyKey)
	if err != nil {
		uc.metrics.RecordOperation(draft.Kind, OutcomeError, time.Since(start))
		return nil, err
	}
	if existing != nil {
		uc.metrics.RecordOperation(draft.Kind, OutcomeReplayed, time.Since(start))
		return &OperationResult{Operation: existing, Replayed: true}, existing.Err()
	}

	// 3. Serialise against other mutations of the same wallet
	waitStart := time.Now()
	if err := uc.locker.Acquire(ctx, draft.WalletID); err != nil {
		uc.metrics.RecordOperation(draft.Kind, OutcomeError, time.Since(start))
		return nil, err
	}
	uc.metrics.RecordLockWait(time.Since(waitStart))
	defer uc.locker.Release(draft.WalletID)

	// 4. Critical section survives caller cancellation
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultTransactionTimeout)
	defer cancel()

	var (
		result   *OperationResult
		attempts int
	)
	err = uc.retrier.Retry(txCtx, func() error {
		attempts++
		if attempts > 1 {
			uc.metrics.RecordRetry()
		}

		var applyErr error
		result, applyErr = uc.apply(txCtx, draft)
		return applyErr
	})
	if err != nil {
		uc.metrics.RecordOperation(draft.Kind, OutcomeError, time.Since(start))
		return nil, classifyError(err)
	}

	op := result.Operation
	if result.Replayed {
		uc.metrics.RecordOperation(draft.Kind, OutcomeReplayed, time.Since(start))
		return result, op.Err()
	}

	uc.remember(ctx, op)
	uc.metrics.RecordOperation(draft.Kind, string(op.Status), time.Since(start))

	uc.logger.Info().
		Str("wallet_id", op.WalletID).
		Str("operation_id", op.ID).
		Str("kind", string(op.Kind)).
		Str("status", string(op.Status)).
		Int64("amount", op.Amount).
		Int64("version", op.Version).
		Msg("operation processed")

	return result, op.Err()
}

// apply runs one attempt of the critical section in a single transaction.
func (uc *OperationUseCase) apply(ctx context.Context, draft *domain.OperationDraft) (*OperationResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	wallet, err := uc.walletRepo.GetByIDForUpdate(ctx, tx, draft.WalletID)
	if err != nil {
		return nil, err
	}

	// A concurrent submission of the same key may have committed while we waited.
	existing, err := uc.operationRepo.GetByIdempotencyKeyTx(ctx, tx, draft.WalletID, draft.IdempotencyKey)
	switch {
	case err == nil:
		return &OperationResult{Operation: existing, Wallet: wallet, Replayed: true}, nil
	case !errors.Is(err, domain.ErrOperationNotFound):
		return nil, err
	}

	delta, err := draft.Delta(wallet.Currency)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	op := &domain.Operation{
		ID:             uc.idGen.Generate(),
		WalletID:       wallet.ID,
		IdempotencyKey: draft.IdempotencyKey,
		Kind:           draft.Kind,
		Amount:         delta,
		BalanceBefore:  wallet.Balance,
		CreatedAt:      now,
	}

	// An overflowing deposit is refused outright and never enters the log.
	balance, version, err := wallet.Apply(delta)
	if err != nil {
		return nil, err
	}

	if wallet.CanApply(delta) {
		if err := uc.walletRepo.UpdateBalance(ctx, tx, wallet.ID, balance, wallet.Version, now); err != nil {
			return nil, err
		}

		op.Status = domain.OperationStatusApplied
		op.BalanceAfter = balance
		op.Version = version

		wallet.Balance = balance
		wallet.Version = version
		wallet.UpdatedAt = now
	} else {
		op.Status = domain.OperationStatusRejected
		op.RejectionReason = domain.RejectionReasonInsufficientFunds
		op.BalanceAfter = wallet.Balance
		op.Version = wallet.Version
	}

	if err := uc.operationRepo.Create(ctx, tx, op); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &OperationResult{Operation: op, Wallet: wallet}, nil
}

// lookup finds an already recorded operation. It returns (nil, nil) when the key is new.
func (uc *OperationUseCase) lookup(ctx context.Context, walletID, key string) (*domain.Operation, error) {
	if uc.cache != nil {
		op, err := uc.cache.Get(ctx, walletID, key)
		if err != nil {
			uc.logger.Warn().Err(err).Str("wallet_id", walletID).Msg("operation cache read failed")
		} else if op != nil {
			return op, nil
		}
	}

	op, err := uc.operationRepo.GetByIdempotencyKey(ctx, walletID, key)
	if errors.Is(err, domain.ErrOperationNotFound) {
		return nil, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, classifyError(err)
	}

	uc.remember(ctx, op)
	return op, nil
}

func (uc *OperationUseCase) remember(ctx context.Context, op *domain.Operation) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, op); err != nil {
		uc.logger.Warn().Err(err).Str("operation_id", op.ID).Msg("operation cache write failed")
	}
}

// classifyError passes domain errors through and wraps everything else as a storage failure.
func classifyError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, domain.ErrWalletNotFound),
		errors.Is(err, domain.ErrOperationNotFound),
		errors.Is(err, domain.ErrStorageFailure):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
	}
}
