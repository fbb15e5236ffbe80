package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	consts "github.com/cybershikshax/shiksha-cli/internal/shared/constants"
	sharedErrors "github.com/cybershikshax/shiksha-cli/internal/shared/errors"
	"github.com/cybershikshax/shiksha-cli/internal/shared/security"
)

// LocalStorage is a durable key/value store kept as a single JSON document,
// the on-disk counterpart of browser local storage.
type LocalStorage struct {
	path  string
	mu    sync.RWMutex
	items map[string]string
}

// NewLocalStorage opens (or creates) the storage file inside dataDir.
// An unreadable or malformed document starts the store empty.
func NewLocalStorage(dataDir string) (*LocalStorage, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if err := os.MkdirAll(dataDir, consts.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path, err := security.FileWithin(dataDir, consts.LocalStorageFile)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}

	s := &LocalStorage{path: path, items: map[string]string{}}
	if items, err := s.load(); err == nil {
		s.items = items
	}
	return s, nil
}

// Path returns the backing file.
func (s *LocalStorage) Path() string {
	return s.path
}

// GetItem returns the value stored under key.
func (s *LocalStorage) GetItem(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	return v, ok, nil
}

// SetItem stores value under key and flushes the document to disk.
func (s *LocalStorage) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyItems()
	next[key] = value
	if err := s.flush(next); err != nil {
		return err
	}
	s.items = next
	return nil
}

// RemoveItem deletes key. Removing an absent key is a no-op.
func (s *LocalStorage) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; !ok {
		return nil
	}
	next := s.copyItems()
	delete(next, key)
	if err := s.flush(next); err != nil {
		return err
	}
	s.items = next
	return nil
}

// Helper methods

func (s *LocalStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	items := map[string]string{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrDeserializationFailed, err)
	}
	if items == nil {
		items = map[string]string{}
	}
	return items, nil
}

func (s *LocalStorage) flush(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".local-storage-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Chmod(consts.DefaultFilePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set storage permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to save storage: %w", err)
	}
	return nil
}

func (s *LocalStorage) copyItems() map[string]string {
	out := make(map[string]string, len(s.items)+1)
	for k, v := range s.items {
		out[k] = v
	}
	return out
}
