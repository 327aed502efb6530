package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/walletledger/internal/domain"
)

const operationKeyPrefix = "walletledger:op:"

// OperationCache implements usecase.OperationCache using Redis.
// Operation records are immutable, so entries are never invalidated, only expired.
type OperationCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewOperationCache creates a new OperationCache.
func NewOperationCache(client redis.UniversalClient, ttl time.Duration) *OperationCache {
	return &OperationCache{
		client: client,
		ttl:    ttl,
	}
}

type cachedOperation struct {
	CreatedAt       time.Time `json:"created_at"`
	ID              string    `json:"id"`
	WalletID        string    `json:"wallet_id"`
	IdempotencyKey  string    `json:"idempotency_key"`
	Kind            string    `json:"kind"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	Amount          int64     `json:"amount"`
	BalanceBefore   int64     `json:"balance_before"`
	BalanceAfter    int64     `json:"balance_after"`
	Version         int64     `json:"version"`
}

// Get returns the cached record, or (nil, nil) on a miss.
func (c *OperationCache) Get(ctx context.Context, walletID, key string) (*domain.Operation, error) {
	data, err := c.client.Get(ctx, operationKey(walletID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cached cachedOperation
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("decode cached operation: %w", err)
	}

	return &domain.Operation{
		CreatedAt:       cached.CreatedAt,
		ID:              cached.ID,
		WalletID:        cached.WalletID,
		IdempotencyKey:  cached.IdempotencyKey,
		Kind:            domain.OperationKind(cached.Kind),
		Status:          domain.OperationStatus(cached.Status),
		RejectionReason: cached.RejectionReason,
		Amount:          cached.Amount,
		BalanceBefore:   cached.BalanceBefore,
		BalanceAfter:    cached.BalanceAfter,
		Version:         cached.Version,
	}, nil
}

// Set stores a record under its wallet and idempotency key.
func (c *OperationCache) Set(ctx context.Context, op *domain.Operation) error {
	data, err := json.Marshal(cachedOperation{
		CreatedAt:       op.CreatedAt,
		ID:              op.ID,
		WalletID:        op.WalletID,
		IdempotencyKey:  op.IdempotencyKey,
		Kind:            string(op.Kind),
		Status:          string(op.Status),
		RejectionReason: op.RejectionReason,
		Amount:          op.Amount,
		BalanceBefore:   op.BalanceBefore,
		BalanceAfter:    op.BalanceAfter,
		Version:         op.Version,
	})
	if err != nil {
		return err
	}

	return c.client.Set(ctx, operationKey(op.WalletID, op.IdempotencyKey), data, c.ttl).Err()
}

func operationKey(walletID, key string) string {
	return operationKeyPrefix + walletID + ":" + key
}
