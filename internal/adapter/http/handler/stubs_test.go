package handler

import (
	"context"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

const testWalletID = "6f1c1e0a-4b7e-4a8e-9f53-2d2b7c9a1e01"

type walletServiceStub struct {
	createFn         func(ctx context.Context, currency string) (*domain.Wallet, error)
	getFn            func(ctx context.Context, id string) (*domain.Wallet, error)
	listFn           func(ctx context.Context, input usecase.ListWalletsInput) ([]*domain.Wallet, error)
	listOperationsFn func(ctx context.Context, input usecase.ListOperationsInput) ([]*domain.Operation, error)
	getOperationFn   func(ctx context.Context, walletID, key string) (*domain.Operation, error)
}

func (s *walletServiceStub) CreateWallet(ctx context.Context, currency string) (*domain.Wallet, error) {
	return s.createFn(ctx, currency)
}

func (s *walletServiceStub) GetWallet(ctx context.Context, id string) (*domain.Wallet, error) {
	return s.getFn(ctx, id)
}

func (s *walletServiceStub) ListWallets(ctx context.Context, input usecase.ListWalletsInput) ([]*domain.Wallet, error) {
	return s.listFn(ctx, input)
}

func (s *walletServiceStub) ListOperations(ctx context.Context, input usecase.ListOperationsInput) ([]*domain.Operation, error) {
	return s.listOperationsFn(ctx, input)
}

func (s *walletServiceStub) GetOperation(ctx context.Context, walletID, key string) (*domain.Operation, error) {
	return s.getOperationFn(ctx, walletID, key)
}

type operationServiceStub struct {
	submitFn func(ctx context.Context, req domain.OperationRequest) (*usecase.OperationResult, error)
}

func (s *operationServiceStub) SubmitOperation(ctx context.Context, req domain.OperationRequest) (*usecase.OperationResult, error) {
	return s.submitFn(ctx, req)
}

type reconciliationServiceStub struct {
	reconcileFn func(ctx context.Context, id string) (*usecase.ReconciliationResult, error)
	reportFn    func(ctx context.Context) (*usecase.ReconciliationReport, error)
}

func (s *reconciliationServiceStub) ReconcileWallet(ctx context.Context, id string) (*usecase.ReconciliationResult, error) {
	return s.reconcileFn(ctx, id)
}

func (s *reconciliationServiceStub) GenerateReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return s.reportFn(ctx)
}

type fixedKeys string

func (k fixedKeys) Generate() string { return string(k) }

func usdWallet(balance, version int64) *domain.Wallet {
	return &domain.Wallet{ID: testWalletID, Currency: "USD", Balance: balance, Version: version}
}
