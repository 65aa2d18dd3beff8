package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"listings_backend/pkg/utils/validation"
)

// MemoryStore keeps uploads in process memory, unprocessed. Used when no bucket is
// configured and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(ctx context.Context, file *multipart.FileHeader, folder string) (UploadResult, error) {
	if err := validation.ValidateImage(file); err != nil {
		return UploadResult{}, err
	}

	src, err := file.Open()
	if err != nil {
		return UploadResult{}, fmt.Errorf("could not open file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return UploadResult{}, fmt.Errorf("could not read file: %w", err)
	}

	key := ObjectKey(folder, strings.ToLower(filepath.Ext(file.Filename)))

	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()

	return UploadResult{URL: "memory://" + key, ExternalID: key}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, externalID string) error {
	s.mu.Lock()
	delete(s.objects, externalID)
	s.mu.Unlock()
	return nil
}

// Keys returns the stored object keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *MemoryStore) Has(externalID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[externalID]
	return ok
}
