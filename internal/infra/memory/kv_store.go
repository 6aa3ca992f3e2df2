package memory

import (
	"context"
	"fmt"
	"sync"

	"timed-quiz/internal/domain"
)

// KeyValueStore is an in-memory implementation of app.KeyValueStore.
// A positive quota caps the total bytes of all stored values, which lets tests
// and demos exercise quota handling.
type KeyValueStore struct {
	mu       sync.RWMutex
	values   map[string]string
	quota    int
	disabled bool
}

func NewKeyValueStore() *KeyValueStore {
	return NewKeyValueStoreWithQuota(0)
}

// NewKeyValueStoreWithQuota caps stored bytes at quota; zero means unlimited.
func NewKeyValueStoreWithQuota(quota int) *KeyValueStore {
	return &KeyValueStore{
		values: make(map[string]string),
		quota:  quota,
	}
}

// SetDisabled makes every call fail with domain.ErrStorageUnavailable.
func (s *KeyValueStore) SetDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = disabled
}

func (s *KeyValueStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.disabled {
		return "", false, domain.ErrStorageUnavailable
	}
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *KeyValueStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return domain.ErrStorageUnavailable
	}
	if s.quota > 0 {
		used := len(value)
		for k, v := range s.values {
			if k != key {
				used += len(v)
			}
		}
		if used > s.quota {
			return fmt.Errorf("%w: %d bytes over a %d byte quota", domain.ErrQuotaExceeded, used, s.quota)
		}
	}
	s.values[key] = value
	return nil
}

func (s *KeyValueStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return domain.ErrStorageUnavailable
	}
	delete(s.values, key)
	return nil
}
