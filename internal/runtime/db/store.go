// Package db provides storage capability backends for guest invocations.
package db

import (
	"sync"

	"github.com/CosmWasm/wasm2vm/types"
)

// SyncStore guards a KVStore that concurrent invocations share. Reads take
// the shared lock.
type SyncStore struct {
	mu    sync.RWMutex
	inner types.KVStore
}

var _ types.KVStore = (*SyncStore)(nil)

func Synchronized(inner types.KVStore) *SyncStore {
	return &SyncStore{inner: inner}
}

func (s *SyncStore) Get(key []byte) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Get(key)
}

func (s *SyncStore) Set(key, value []byte) {
	s.mu.Lock()
	s.inner.Set(key, value)
	s.mu.Unlock()
}

func (s *SyncStore) Delete(key []byte) {
	s.mu.Lock()
	s.inner.Delete(key)
	s.mu.Unlock()
}
