// failing_index.go - Fault-injecting metadata index for testing rollbacks
package testutil

import (
	"errors"
	"sync"

	"github.com/exam-archive/backend/internal/models"
	"github.com/exam-archive/backend/internal/storage"
)

// ErrInjected is the cause carried by every injected failure.
var ErrInjected = errors.New("injected failure")

// FailingIndex wraps a real storage.Index and fails writes or reads on demand.
type FailingIndex struct {
	inner storage.Index

	mu         sync.Mutex
	failWrites int // remaining writes to fail, negative means always
	failReads  bool
	updates    int
}

var _ storage.Index = (*FailingIndex)(nil)

// NewFailingIndex wraps inner; it behaves like inner until armed.
func NewFailingIndex(inner storage.Index) *FailingIndex {
	return &FailingIndex{inner: inner}
}

// FailWrites makes the next n writes fail; n < 0 fails every write.
func (f *FailingIndex) FailWrites(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = n
}

// FailReads makes every load fail while on is true.
func (f *FailingIndex) FailReads(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads = on
}

// Updates returns how many times Update was called.
func (f *FailingIndex) Updates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

func (f *FailingIndex) Load() (models.Index, error) {
	f.mu.Lock()
	failing := f.failReads
	f.mu.Unlock()

	if failing {
		return nil, &models.StorageReadError{Path: "test", Err: ErrInjected}
	}
	return f.inner.Load()
}

func (f *FailingIndex) Save(idx models.Index) error {
	if f.consumeWrite() {
		return &models.StorageWriteError{Path: "test", Err: ErrInjected}
	}
	return f.inner.Save(idx)
}

// Update runs fn against a fresh load and then fails the write if armed, so callers see
// exactly what a full disk would produce.
func (f *FailingIndex) Update(fn func(idx models.Index) error) error {
	f.mu.Lock()
	f.updates++
	failing := f.failReads
	f.mu.Unlock()

	if failing {
		return &models.StorageReadError{Path: "test", Err: ErrInjected}
	}
	if !f.consumeWrite() {
		return f.inner.Update(fn)
	}

	idx, err := f.Load()
	if err != nil {
		return err
	}
	if err := fn(idx); err != nil {
		if errors.Is(err, storage.ErrNoChange) {
			return nil
		}
		return err
	}
	return &models.StorageWriteError{Path: "test", Err: ErrInjected}
}

func (f *FailingIndex) consumeWrite() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.failWrites < 0:
		return true
	case f.failWrites > 0:
		f.failWrites--
		return true
	}
	return false
}
