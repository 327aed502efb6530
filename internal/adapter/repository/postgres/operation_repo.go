package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/walletledger/internal/usecase"
)

// OperationRepository implements usecase.OperationRepository.
type OperationRepository struct {
	queries *generated.Queries
}

// NewOperationRepository creates a new OperationRepository.
func NewOperationRepository(db generated.DBTX) *OperationRepository {
	return &OperationRepository{queries: generated.New(db)}
}

// Create appends an operation record within tx.
func (r *OperationRepository) Create(ctx context.Context, tx usecase.Transaction, op *domain.Operation) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.CreateOperation(ctx, generated.CreateOperationParams{
		ID:              op.ID,
		WalletID:        op.WalletID,
		IdempotencyKey:  op.IdempotencyKey,
		Kind:            string(op.Kind),
		Amount:          op.Amount,
		BalanceBefore:   op.BalanceBefore,
		BalanceAfter:    op.BalanceAfter,
		Version:         op.Version,
		Status:          string(op.Status),
		RejectionReason: pgtype.Text{String: op.RejectionReason, Valid: op.RejectionReason != ""},
		CreatedAt:       timeToPgTimestamptz(op.CreatedAt),
	})
}

// GetByIdempotencyKey retrieves a committed operation by wallet and key.
func (r *OperationRepository) GetByIdempotencyKey(ctx context.Context, walletID, key string) (*domain.Operation, error) {
	return getOperationByKey(ctx, r.queries, walletID, key)
}

// GetByIdempotencyKeyTx retrieves an operation by wallet and key within tx.
func (r *OperationRepository) GetByIdempotencyKeyTx(ctx context.Context, tx usecase.Transaction, walletID, key string) (*domain.Operation, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}
	return getOperationByKey(ctx, queries, walletID, key)
}

func getOperationByKey(ctx context.Context, queries *generated.Queries, walletID, key string) (*domain.Operation, error) {
	row, err := queries.GetOperationByIdempotencyKey(ctx, generated.GetOperationByIdempotencyKeyParams{
		WalletID:       walletID,
		IdempotencyKey: key,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOperationNotFound
		}

		return nil, err
	}

	return rowToOperation(row), nil
}

// ListApplied returns applied operations with version > afterVersion, ascending.
func (r *OperationRepository) ListApplied(ctx context.Context, walletID string, afterVersion int64, limit int) ([]*domain.Operation, error) {
	rows, err := r.queries.ListAppliedOperations(ctx, generated.ListAppliedOperationsParams{
		WalletID: walletID,
		Version:  afterVersion,
		Limit:    int32(limit),
	})
	if err != nil {
		return nil, err
	}

	ops := make([]*domain.Operation, 0, len(rows))
	for _, row := range rows {
		ops = append(ops, rowToOperation(row))
	}

	return ops, nil
}

func rowToOperation(row generated.Operation) *domain.Operation {
	return &domain.Operation{
		ID:              row.ID,
		WalletID:        row.WalletID,
		IdempotencyKey:  row.IdempotencyKey,
		Kind:            domain.OperationKind(row.Kind),
		Status:          domain.OperationStatus(row.Status),
		RejectionReason: row.RejectionReason.String,
		Amount:          row.Amount,
		BalanceBefore:   row.BalanceBefore,
		BalanceAfter:    row.BalanceAfter,
		Version:         row.Version,
		CreatedAt:       row.CreatedAt.Time,
	}
}
