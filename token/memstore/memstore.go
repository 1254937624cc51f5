package memstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/medihelp-client/token"
)

var _ token.Store = (*MemStore)(nil)

// MemStore keeps tokens for the life of the process only
type MemStore struct {
	items map[string]string
	lock  sync.RWMutex
}

func New() *MemStore {
	return &MemStore{
		items: make(map[string]string),
	}
}

func (s *MemStore) Get(_ context.Context, key string) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.items[key], nil
}

func (s *MemStore) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.items[key] = value
	return nil
}

func (s *MemStore) Remove(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.items, key)
	return nil
}

// Len is the number of stored keys
func (s *MemStore) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.items)
}
