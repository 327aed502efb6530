package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// OperationService defines the behavior needed to submit operations.
type OperationService interface {
	SubmitOperation(ctx context.Context, req domain.OperationRequest) (*usecase.OperationResult, error)
}

// KeyGenerator produces idempotency keys for requests that carry none.
type KeyGenerator interface {
	Generate() string
}

// OperationHandler handles deposits, withdrawals and wallet history.
type OperationHandler struct {
	operationUC OperationService
	walletUC    WalletService
	keys        KeyGenerator
}

// NewOperationHandler creates a new OperationHandler.
func NewOperationHandler(operationUC OperationService, walletUC WalletService, keys KeyGenerator) *OperationHandler {
	return &OperationHandler{
		operationUC: operationUC,
		walletUC:    walletUC,
		keys:        keys,
	}
}

// Submit applies a deposit or withdrawal to a wallet.
//
// The idempotency key is taken from the Idempotency-Key header, then the body; when
// neither is present a key is generated. The effective key is always echoed back in
// the Idempotency-Key response header so the caller can retry safely.
func (h *OperationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "wallet_uuid")

	var req dto.OperationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		key = req.IdempotencyKey
	}
	if key == "" {
		key = h.keys.Generate()
	}
	w.Header().Set(IdempotencyKeyHeader, key)

	result, err := h.operationUC.SubmitOperation(r.Context(), req.ToDomain(walletID, key))
	if result == nil {
		writeError(w, mapDomainError(err), "operation failed", err.Error())
		return
	}

	wallet := result.Wallet
	if wallet == nil {
		if wallet, err = h.walletUC.GetWallet(r.Context(), result.Operation.WalletID); err != nil {
			writeError(w, mapDomainError(err), "failed to load wallet", err.Error())
			return
		}
	}

	if result.Replayed {
		w.Header().Set(IdempotencyReplayHeader, "true")
	}

	op := dto.OperationFromDomain(result.Operation, wallet.Currency)

	if opErr := result.Operation.Err(); opErr != nil {
		writeJSON(w, mapDomainError(opErr), dto.ErrorResponse{
			Error:     opErr.Error(),
			Message:   "operation was recorded as rejected",
			Operation: op,
		})
		return
	}

	resp := dto.SubmitOperationResponse{
		Operation: op,
		Replayed:  result.Replayed,
	}
	// A replayed record is historical, so current wallet state is not its result.
	if !result.Replayed {
		resp.Wallet = dto.WalletFromDomain(result.Wallet)
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListByWallet returns a page of applied operations after a version cursor.
func (h *OperationHandler) ListByWallet(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "wallet_uuid")

	limit, err := queryInt(r, "limit", domain.DefaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pagination", err.Error())
		return
	}
	limit = domain.ValidatePagination(limit)

	afterVersion, err := queryInt64(r, "after_version", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pagination", err.Error())
		return
	}

	ops, err := h.walletUC.ListOperations(r.Context(), usecase.ListOperationsInput{
		WalletID:     walletID,
		AfterVersion: afterVersion,
		Limit:        limit,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list operations", err.Error())
		return
	}

	wallet, err := h.walletUC.GetWallet(r.Context(), walletID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to load wallet", err.Error())
		return
	}

	resp := dto.ListOperationsResponse{
		Operations: dto.OperationsFromDomain(ops, wallet.Currency),
	}
	if len(ops) == limit {
		resp.NextAfterVersion = ops[len(ops)-1].Version
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetByKey returns the operation recorded for an idempotency key, applied or rejected.
func (h *OperationHandler) GetByKey(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "wallet_uuid")

	op, err := h.walletUC.GetOperation(r.Context(), walletID, chi.URLParam(r, "idempotency_key"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get operation", err.Error())
		return
	}

	wallet, err := h.walletUC.GetWallet(r.Context(), op.WalletID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to load wallet", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OperationFromDomain(op, wallet.Currency))
}
