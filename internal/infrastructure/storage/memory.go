package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryObjectStorage keeps objects in process memory. It backs local
// development without an object store and tests.
type MemoryObjectStorage struct {
	// BaseURL prefixes generated download URLs
	BaseURL string

	mu      sync.Mutex
	objects map[string]Object
}

// Object is a stored blob
type Object struct {
	Data        []byte
	ContentType string
}

// NewMemoryObjectStorage creates a new MemoryObjectStorage
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	return &MemoryObjectStorage{BaseURL: baseURL, objects: make(map[string]Object)}
}

// Upload stores a copy of data under the key
func (s *MemoryObjectStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

// GenerateDownloadURL returns a URL for a stored object
func (s *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[storageKey]; !ok {
		return "", time.Time{}, errors.New("object not found")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/" + storageKey + "?expires=" + expiresAt.UTC().Format(time.RFC3339), expiresAt, nil
}

// Get returns a stored object
func (s *MemoryObjectStorage) Get(storageKey string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[storageKey]
	return o, ok
}
