// Package memory implements the ledger store in process memory.
// Writes are buffered per transaction and applied atomically on commit.
package memory

import (
	"errors"
	"sync"

	"github.com/iho/walletledger/internal/domain"
)

var errWalletExists = errors.New("wallet already exists")

type opKey struct {
	walletID string
	key      string
}

// Store holds wallets and their operation logs.
type Store struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet
	order   []string
	applied map[string][]*domain.Operation
	byKey   map[opKey]*domain.Operation
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		wallets: make(map[string]*domain.Wallet),
		applied: make(map[string][]*domain.Operation),
		byKey:   make(map[opKey]*domain.Operation),
	}
}

func copyWallet(w *domain.Wallet) *domain.Wallet {
	c := *w
	return &c
}

func copyOperation(op *domain.Operation) *domain.Operation {
	c := *op
	return &c
}
