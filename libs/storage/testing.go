package storage

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// TestStore is an in-memory Store and Sizer for tests.
type TestStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewTestStore returns a store preloaded with the provided objects.
func NewTestStore(objects map[string][]byte) *TestStore {
	if objects == nil {
		objects = make(map[string][]byte)
	}
	return &TestStore{objects: objects}
}

func (s *TestStore) Put(name string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = data
	return name, nil
}

func (s *TestStore) GetReader(id string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[id]
	if !ok {
		return nil, ErrNoObject
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *TestStore) Size(id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[id]
	if !ok {
		return 0, ErrNoObject
	}
	return int64(len(data)), nil
}

func (s *TestStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, id)
	return nil
}

func (s *TestStore) ExpiringURL(id string, expiration time.Duration) (string, error) {
	return fmt.Sprintf("https://test-store.invalid/%s", id), nil
}
