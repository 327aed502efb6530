// Package walletlock provides process-local, per-wallet mutual exclusion with
// first-come first-served hand-off.
package walletlock

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLockTimeout is returned when a wallet lock could not be acquired within the wait timeout.
var ErrLockTimeout = errors.New("wallet lock wait timed out")

type entry struct {
	held    bool
	waiters *list.List // of chan struct{}
}

// Manager hands out exclusive locks keyed by wallet ID.
// The zero value is not usable; use New.
type Manager struct {
	mu          sync.Mutex
	locks       map[string]*entry
	waitTimeout time.Duration
}

// New creates a Manager. A positive waitTimeout bounds how long Acquire waits
// in addition to the caller's context.
func New(waitTimeout time.Duration) *Manager {
	return &Manager{
		locks:       make(map[string]*entry),
		waitTimeout: waitTimeout,
	}
}

// Acquire blocks until the caller owns the lock for walletID or ctx is done.
// Waiters are granted the lock in arrival order.
func (m *Manager) Acquire(ctx context.Context, walletID string) error {
	m.mu.Lock()
	e, ok := m.locks[walletID]
	if !ok {
		e = &entry{waiters: list.New()}
		m.locks[walletID] = e
	}
	if !e.held {
		e.held = true
		m.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	elem := e.waiters.PushBack(ready)
	m.mu.Unlock()

	if m.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, m.waitTimeout, ErrLockTimeout)
		defer cancel()
	}

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
	}

	m.mu.Lock()
	select {
	case <-ready:
		// Ownership was handed to us while we were giving up; pass it on.
		m.mu.Unlock()
		m.Release(walletID)
	default:
		e.waiters.Remove(elem)
		m.mu.Unlock()
	}

	if cause := context.Cause(ctx); errors.Is(cause, ErrLockTimeout) {
		return fmt.Errorf("%w: wallet %s", ErrLockTimeout, walletID)
	}
	return ctx.Err()
}

// Release transfers the lock for walletID to the next waiter, or frees it.
// Releasing a lock that is not held is a no-op.
func (m *Manager) Release(walletID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.locks[walletID]
	if !ok || !e.held {
		return
	}

	if front := e.waiters.Front(); front != nil {
		e.waiters.Remove(front)
		close(front.Value.(chan struct{}))
		return
	}

	delete(m.locks, walletID)
}

// Len returns the number of wallets with a held lock.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
