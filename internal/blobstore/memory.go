package blobstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store for tests. Refs use a mem:// scheme so
// ref opacity is still exercised.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[name] = cp
	return "mem://" + name, nil
}

func (s *MemoryStore) Get(_ context.Context, ref string) ([]byte, error) {
	name, ok := cutMemScheme(ref)
	if !ok {
		return nil, fmt.Errorf("not a mem:// ref: %q", ref)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("object %s not found", name)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func cutMemScheme(ref string) (string, bool) {
	const scheme = "mem://"
	if len(ref) <= len(scheme) || ref[:len(scheme)] != scheme {
		return "", false
	}
	return ref[len(scheme):], true
}
