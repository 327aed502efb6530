package usecase

import (
	"context"
	"iter"

	"github.com/iho/walletledger/internal/domain"
)

// History returns a lazy, forward-ordered sequence of applied operations of a wallet,
// starting after fromVersion. Pages of pageSize records are fetched on demand, so a
// consumer that stops early never reads the rest of the log. Iteration can be resumed
// from any point by passing the last seen version as fromVersion.
//
// A failure is yielded once as a non-nil error and ends the sequence.
func (uc *WalletUseCase) History(ctx context.Context, walletID string, fromVersion int64, pageSize int) iter.Seq2[*domain.Operation, error] {
	return func(yield func(*domain.Operation, error) bool) {
		after := fromVersion
		limit := domain.ValidatePagination(pageSize)

		for {
			page, err := uc.ListOperations(ctx, ListOperationsInput{
				WalletID:     walletID,
				AfterVersion: after,
				Limit:        limit,
			})
			if err != nil {
				yield(nil, err)
				return
			}

			for _, op := range page {
				if !yield(op, nil) {
					return
				}
				after = op.Version
			}

			if len(page) < limit {
				return
			}
		}
	}
}
