package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iho/walletledger/internal/domain"
)

// WalletUseCase handles wallet creation and read-only queries.
// Reads never take the wallet lock; they observe the last committed state.
type WalletUseCase struct {
	walletRepo    WalletRepository
	operationRepo OperationRepository
	cache         OperationCache
}

// NewWalletUseCase creates a new WalletUseCase. cache may be nil.
func NewWalletUseCase(walletRepo WalletRepository, operationRepo OperationRepository, cache OperationCache) *WalletUseCase {
	return &WalletUseCase{
		walletRepo:    walletRepo,
		operationRepo: operationRepo,
		cache:         cache,
	}
}

// CreateWallet creates an empty wallet in the given currency.
func (uc *WalletUseCase) CreateWallet(ctx context.Context, currency string) (*domain.Wallet, error) {
	code, err := domain.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:        uuid.NewString(),
		Currency:  code,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.walletRepo.Create(ctx, wallet); err != nil {
		return nil, classifyError(err)
	}

	return wallet, nil
}

// GetWallet returns the current balance and version of a wallet.
func (uc *WalletUseCase) GetWallet(ctx context.Context, id string) (*domain.Wallet, error) {
	walletID, err := domain.NormalizeWalletID(id)
	if err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, classifyError(err)
	}

	return wallet, nil
}

// ListWalletsInput represents input for listing wallets.
type ListWalletsInput struct {
	Limit  int
	Offset int
}

// ListWallets lists wallets ordered by creation time.
func (uc *WalletUseCase) ListWallets(ctx context.Context, input ListWalletsInput) ([]*domain.Wallet, error) {
	if input.Offset < 0 {
		input.Offset = 0
	}

	wallets, err := uc.walletRepo.List(ctx, domain.ValidatePagination(input.Limit), input.Offset)
	if err != nil {
		return nil, classifyError(err)
	}

	return wallets, nil
}

// ListOperationsInput represents input for a history page.
type ListOperationsInput struct {
	WalletID     string
	AfterVersion int64
	Limit        int
}

// ListOperations returns applied operations with Version > AfterVersion in ascending order.
func (uc *WalletUseCase) ListOperations(ctx context.Context, input ListOperationsInput) ([]*domain.Operation, error) {
	wallet, err := uc.GetWallet(ctx, input.WalletID)
	if err != nil {
		return nil, err
	}

	after := max(input.AfterVersion, 0)

	ops, err := uc.operationRepo.ListApplied(ctx, wallet.ID, after, domain.ValidatePagination(input.Limit))
	if err != nil {
		return nil, classifyError(err)
	}

	return ops, nil
}

// GetOperation returns the record stored for an idempotency key, applied or rejected.
func (uc *WalletUseCase) GetOperation(ctx context.Context, walletID, key string) (*domain.Operation, error) {
	id, err := domain.NormalizeWalletID(walletID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateIdempotencyKey(key); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if op, err := uc.cache.Get(ctx, id, key); err == nil && op != nil {
			return op, nil
		}
	}

	op, err := uc.operationRepo.GetByIdempotencyKey(ctx, id, key)
	if err == nil {
		return op, nil
	}
	if !errors.Is(err, domain.ErrOperationNotFound) {
		return nil, classifyError(err)
	}

	// Distinguish an unknown wallet from an unknown key.
	if _, err := uc.walletRepo.GetByID(ctx, id); err != nil {
		return nil, classifyError(err)
	}

	return nil, domain.ErrOperationNotFound
}
