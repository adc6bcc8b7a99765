package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileStore persists the record as a JSON file. It is the durable store:
// a session survives process restarts, like browser local storage did.
// The file is written via a temp file and rename so a crash mid-write
// never leaves a torn record.
type fileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a Store backed by the file at path. The parent
// directory is created if needed.
func NewFileStore(path string) (Store, error) {
	if path == "" {
		return nil, errors.New("'path' must be set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &fileStore{path: path}, nil
}

func (f *fileStore) Put(rec *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o600); err != nil {
		return fmt.Errorf("failed to write session record: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to persist session record: %w", err)
	}
	return nil
}

func (f *fileStore) Get() (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(buf, &rec); err != nil {
		// A corrupt record is unusable; report it as absent so the caller
		// falls into the anonymous path instead of erroring forever.
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (f *fileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session record: %w", err)
	}
	return nil
}
