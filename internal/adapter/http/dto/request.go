package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/iho/walletledger/internal/domain"
)

// CreateWalletRequest represents a request to create a wallet.
type CreateWalletRequest struct {
	Currency string `json:"currency"`
}

// Amount is the literal text of a decimal amount, given as a JSON number or string.
// It is parsed and bounded by the core, never rendered back through a decimal.
type Amount string

// UnmarshalJSON accepts 10.5, "10.5" and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or a string: %w", err)
	}
	*a = Amount(n)
	return nil
}

// MarshalJSON writes the amount as a JSON string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(a))
}

// OperationRequest represents a deposit or withdrawal.
type OperationRequest struct {
	OperationType  string `json:"operationType"`
	Amount         Amount `json:"amount"`
	Currency       string `json:"currency,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// ToDomain converts to a core operation request.
func (r *OperationRequest) ToDomain(walletID, idempotencyKey string) domain.OperationRequest {
	return domain.OperationRequest{
		WalletID:       walletID,
		Kind:           r.OperationType,
		Amount:         string(r.Amount),
		Currency:       r.Currency,
		IdempotencyKey: idempotencyKey,
	}
}
