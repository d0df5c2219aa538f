// Package syncutil holds small concurrency helpers.
package syncutil

import (
	"context"
	"sync"
)

// ContextMutex is a mutex that supports context cancellation while
// waiting to acquire. It serializes the backend wallet's transaction
// submissions: nonce fetch and broadcast must not interleave across
// goroutines or two transactions end up with the same nonce.
type ContextMutex struct {
	once sync.Once
	ch   chan struct{}
}

func (m *ContextMutex) init() {
	m.once.Do(func() {
		m.ch = make(chan struct{}, 1)
		m.ch <- struct{}{} // start unlocked
	})
}

// LockContext acquires the mutex, respecting context cancellation.
// On success it returns an unlock function that the caller MUST call.
// On cancellation it returns nil and the context error.
func (m *ContextMutex) LockContext(ctx context.Context) (func(), error) {
	m.init()
	select {
	case <-m.ch:
		return func() { m.ch <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
