package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/exam-archive/backend/internal/models"
)

// ErrNoChange may be returned by an Update callback to skip the save.
var ErrNoChange = errors.New("no change")

// Index defines the metadata index operations the managers rely on.
type Index interface {
	Load() (models.Index, error)
	Save(idx models.Index) error
	Update(fn func(idx models.Index) error) error
}

// IndexStore persists the metadata index as one JSON document.
// Update serializes read-modify-write cycles within the process.
type IndexStore struct {
	mu   sync.Mutex
	path string
}

// NewIndexStore creates an IndexStore backed by the document at path.
func NewIndexStore(path string) *IndexStore {
	return &IndexStore{path: path}
}

// Path returns the location of the metadata document.
func (s *IndexStore) Path() string {
	return s.path
}

// Load reads the whole index. A missing document is an empty index.
func (s *IndexStore) Load() (models.Index, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Index{}, nil
		}
		return nil, &models.StorageReadError{Path: s.path, Err: err}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &models.StorageReadError{Path: s.path, Err: errors.New("empty document")}
	}

	var idx models.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, &models.StorageReadError{Path: s.path, Err: err}
	}
	if idx == nil {
		idx = models.Index{}
	}
	for id, g := range idx {
		if g == nil {
			idx[id] = &models.Group{}
		}
	}

	return idx, nil
}

// Save overwrites the document with idx. The write goes to a temp file that is renamed into place.
func (s *IndexStore) Save(idx models.Index) error {
	for _, g := range idx {
		if g != nil && g.Files == nil {
			g.Files = []models.FileRecord{}
		}
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return &models.StorageWriteError{Path: s.path, Err: fmt.Errorf("marshaling index: %w", err)}
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return &models.StorageWriteError{Path: s.path, Err: err}
	}

	return nil
}

// Update loads the index, applies fn and saves the result while holding the store lock.
// If fn returns an error nothing is saved; ErrNoChange is swallowed.
func (s *IndexStore) Update(fn func(idx models.Index) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.Load()
	if err != nil {
		return err
	}

	if err := fn(idx); err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}

	return s.Save(idx)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
