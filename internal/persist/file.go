package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a Store that mirrors its key/value map to a single JSON file.
// Reads are served from memory; every Set rewrites the file. A missing or
// corrupt file on open is treated as an empty store.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// OpenFileStore loads (or initializes) a file-backed store at path.
func OpenFileStore(path string) (*FileStore, error) {
	st := &FileStore{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read state file: %w", err)
		}
		return st, nil
	}

	if err := json.Unmarshal(data, &st.values); err != nil {
		// Corrupt state files are recoverable: start fresh.
		slog.Warn("persist: corrupt state file, starting empty", "path", path, "error", err)
		st.values = make(map[string]string)
	}

	return st, nil
}

// Get returns the stored value for key.
func (f *FileStore) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

// Set stores value under key and rewrites the backing file.
func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[key] = value

	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}
