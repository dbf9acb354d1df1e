// Package memkv is an in-memory durable-store stand-in. It backs the
// "memory" storage driver and lets tests inject faults and latency.
package memkv

import (
	"context"
	"sync"

	"hotelstay/internal/adapters/observability"
)

type Store struct {
	mu   sync.RWMutex
	data map[string]string

	// Optional hooks. A non-nil error aborts the operation.
	GetErr    func(key string) error
	SetErr    func(key, value string) error
	DelErr    func(key string) error
	BeforeSet func(key, value string) // called outside the lock, may block
}

func New() *Store { return &Store{data: map[string]string{}} }

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	if s.GetErr != nil {
		if err := s.GetErr(key); err != nil {
			observability.ObserveStorage("memory", "error")
			return "", false, err
		}
	}
	s.mu.RLock()
	v, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		observability.ObserveStorage("memory", "miss")
		return "", false, nil
	}
	observability.ObserveStorage("memory", "hit")
	return v, true, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	if s.BeforeSet != nil {
		s.BeforeSet(key, value)
	}
	if s.SetErr != nil {
		if err := s.SetErr(key, value); err != nil {
			observability.ObserveStorage("memory", "error")
			return err
		}
	}
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	observability.ObserveStorage("memory", "set")
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	if s.DelErr != nil {
		if err := s.DelErr(key); err != nil {
			observability.ObserveStorage("memory", "error")
			return err
		}
	}
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	observability.ObserveStorage("memory", "del")
	return nil
}

// Raw returns the stored value without going through hooks.
func (s *Store) Raw(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Put writes directly, bypassing hooks. Handy for seeding corrupt payloads.
func (s *Store) Put(key, value string) {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
