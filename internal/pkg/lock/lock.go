// Package lock provides per-account locking for concurrent economy operations.
// Accounts are keyed by (user_id, chat_id); the same user in two chats
// holds two independent locks.
package lock

import (
	"context"
	"sync"
	"time"
)

// Key identifies one account's lock.
type Key struct {
	UserID int64
	ChatID int64
}

// keyMutex wraps a mutex with reference counting for pooling.
type keyMutex struct {
	mu       sync.Mutex
	refCount int
}

// AccountLock provides per-account locking to prevent race conditions
// during rating and star mutations.
type AccountLock struct {
	locks sync.Map // map[Key]*keyMutex
	pool  sync.Pool
}

// New creates a new AccountLock instance.
func New() *AccountLock {
	return &AccountLock{
		pool: sync.Pool{
			New: func() any {
				return &keyMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given key.
func (al *AccountLock) getLock(key Key) *keyMutex {
	if v, ok := al.locks.Load(key); ok {
		return v.(*keyMutex)
	}

	newLock := al.pool.Get().(*keyMutex)
	newLock.refCount = 0

	actual, loaded := al.locks.LoadOrStore(key, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool
		al.pool.Put(newLock)
	}
	return actual.(*keyMutex)
}

// Lock acquires the lock for an account.
func (al *AccountLock) Lock(key Key) {
	lock := al.getLock(key)
	lock.mu.Lock()
	lock.refCount++
}

// Unlock releases the lock for an account.
func (al *AccountLock) Unlock(key Key) {
	if v, ok := al.locks.Load(key); ok {
		lock := v.(*keyMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
func (al *AccountLock) TryLock(key Key) bool {
	lock := al.getLock(key)
	if lock.mu.TryLock() {
		lock.refCount++
		return true
	}
	return false
}

// LockWithTimeout attempts to acquire the lock within the timeout.
// Returns true if the lock was acquired.
func (al *AccountLock) LockWithTimeout(ctx context.Context, key Key, timeout time.Duration) bool {
	lock := al.getLock(key)

	done := make(chan struct{})
	go func() {
		lock.mu.Lock()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		lock.refCount++
		return true
	case <-timeoutCtx.Done():
		// The waiting goroutine will eventually acquire the mutex;
		// release it again so the lock is not leaked.
		go func() {
			<-done
			lock.mu.Unlock()
		}()
		return false
	}
}

// WithLock executes fn while holding the account's lock.
func (al *AccountLock) WithLock(key Key, fn func() error) error {
	al.Lock(key)
	defer al.Unlock(key)
	return fn()
}

// WithPairLock executes fn while holding both accounts' locks.
// Locks are always acquired in ascending user_id order so concurrent
// duels on the same pair cannot deadlock.
func (al *AccountLock) WithPairLock(a, b Key, fn func() error) error {
	first, second := a, b
	if second.UserID < first.UserID {
		first, second = second, first
	}
	al.Lock(first)
	defer al.Unlock(first)
	if first != second {
		al.Lock(second)
		defer al.Unlock(second)
	}
	return fn()
}

// IsLocked checks if an account's lock is currently held.
// Point-in-time check, may change immediately after.
func (al *AccountLock) IsLocked(key Key) bool {
	if v, ok := al.locks.Load(key); ok {
		lock := v.(*keyMutex)
		if lock.mu.TryLock() {
			lock.mu.Unlock()
			return false
		}
		return true
	}
	return false
}
