// Package upload implements the file side of an exam group: accepting uploads into the
// group directory and keeping the group's file list in the metadata index in sync.
package upload

import (
	"context"
	"io"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/exam-archive/backend/internal/logging"
	"github.com/exam-archive/backend/internal/models"
	"github.com/exam-archive/backend/internal/storage"
)

// File is one uploaded file as received from the client.
type File struct {
	Name    string // original client-side name
	Content io.Reader
}

// Manager stores uploaded files and records them in the index.
type Manager struct {
	store storage.Store
	index storage.Index
	locks *storage.KeyedMutex
	log   *logging.Logger
	now   func() time.Time
}

// NewManager creates a new upload manager.
func NewManager(store storage.Store, index storage.Index, locks *storage.KeyedMutex, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	if locks == nil {
		locks = &storage.KeyedMutex{}
	}
	return &Manager{
		store: store,
		index: index,
		locks: locks,
		log:   log,
		now:   time.Now,
	}
}

// Batch is a set of files written to a group directory but not yet recorded in the index.
type Batch struct {
	Records []models.FileRecord
	Skipped []string

	groupID string
	store   storage.Store
}

// Discard removes every file of the batch from disk.
func (b *Batch) Discard() error {
	var err error
	for _, rec := range b.Records {
		err = multierr.Append(err, b.store.RemoveFile(b.groupID, rec.Name))
	}
	return err
}

// Store writes every allowed file into the group directory, in order, without touching the
// index. Files with a disallowed extension or a name that sanitizes to nothing are skipped.
// If a write fails, the files already written by this call are removed.
// The caller must hold the group lock.
func (m *Manager) Store(ctx context.Context, groupID string, files []File) (*Batch, error) {
	batch := &Batch{groupID: groupID, store: m.store}

	for _, f := range files {
		rec, err := m.storeOne(ctx, groupID, f)
		if err != nil {
			return nil, multierr.Append(err, batch.Discard())
		}
		if rec == nil {
			batch.Skipped = append(batch.Skipped, f.Name)
			continue
		}
		batch.Records = append(batch.Records, *rec)
	}

	return batch, nil
}

func (m *Manager) storeOne(ctx context.Context, groupID string, f File) (*models.FileRecord, error) {
	if f.Content == nil {
		return nil, nil
	}
	if !storage.AllowedFile(f.Name) {
		m.log.Info(ctx, "file skipped", zap.String("group", groupID), zap.String("file", f.Name), zap.String("reason", "extension"))
		return nil, nil
	}

	name := storage.SecureFilename(f.Name)
	if name == "" {
		m.log.Info(ctx, "file skipped", zap.String("group", groupID), zap.String("file", f.Name), zap.String("reason", "name"))
		return nil, nil
	}

	stored, size, err := m.store.SaveFile(groupID, name, f.Content)
	if err != nil {
		return nil, err
	}

	rec := models.NewFileRecord(stored, size, m.now())
	m.log.Debug(ctx, "file stored", zap.String("group", groupID), zap.String("file", stored), zap.Int64("size", size))

	return &rec, nil
}

// commit appends the batch to the group's file list; if the index cannot be written the
// batch files are removed again.
func (m *Manager) commit(ctx context.Context, groupID string, batch *Batch) error {
	if len(batch.Records) == 0 {
		return nil
	}

	err := m.index.Update(func(idx models.Index) error {
		g, ok := idx[groupID]
		if !ok {
			// Directory without an index entry: the entry is created with the files only.
			g = &models.Group{}
			idx[groupID] = g
		}
		g.Files = append(g.Files, batch.Records...)
		return nil
	})
	if err != nil {
		if rbErr := batch.Discard(); rbErr != nil {
			m.log.Error(ctx, "rollback failed, stored files are orphaned", zap.String("group", groupID), zap.Error(rbErr))
			return multierr.Append(err, rbErr)
		}
		m.log.Warn(ctx, "index write failed, stored files removed", zap.String("group", groupID), zap.Error(err))
		return err
	}

	return nil
}

// Accept stores a single file and records it. It returns nil, nil if the file was skipped.
func (m *Manager) Accept(ctx context.Context, groupID string, f File) (*models.FileRecord, error) {
	if !m.store.FolderExists(groupID) {
		return nil, models.GroupNotFound(groupID)
	}

	unlock := m.locks.Lock(groupID)
	defer unlock()

	batch, err := m.Store(ctx, groupID, []File{f})
	if err != nil {
		return nil, err
	}
	if err := m.commit(ctx, groupID, batch); err != nil {
		return nil, err
	}
	if len(batch.Records) == 0 {
		return nil, nil
	}

	return &batch.Records[0], nil
}

// Upload accepts each file in order and returns how many were actually stored.
func (m *Manager) Upload(ctx context.Context, groupID string, files []File) (int, error) {
	if groupID == "" {
		return 0, &models.ValidationError{Field: "folder_name"}
	}
	if len(files) == 0 || files[0].Name == "" {
		return 0, &models.ValidationError{Field: "files"}
	}
	if !m.store.FolderExists(groupID) {
		return 0, models.GroupNotFound(groupID)
	}

	unlock := m.locks.Lock(groupID)
	defer unlock()

	batch, err := m.Store(ctx, groupID, files)
	if err != nil {
		return 0, err
	}
	if err := m.commit(ctx, groupID, batch); err != nil {
		return 0, err
	}

	m.log.Info(ctx, "files uploaded",
		zap.String("group", groupID),
		zap.Int("uploaded", len(batch.Records)),
		zap.Int("skipped", len(batch.Skipped)),
	)

	return len(batch.Records), nil
}

// Delete removes a stored file and its entry in the group's file list.
// The file is moved to the trash first and moved back if the index cannot be written.
func (m *Manager) Delete(ctx context.Context, groupID, filename string) error {
	unlock := m.locks.Lock(groupID)
	defer unlock()

	if !m.store.FileExists(groupID, filename) {
		return models.FileNotFound(filename)
	}

	ts, err := m.store.BuryFile(groupID, filename)
	if err != nil {
		return err
	}

	err = m.index.Update(func(idx models.Index) error {
		g, ok := idx[groupID]
		if !ok {
			return storage.ErrNoChange
		}
		g.RemoveFile(filename)
		return nil
	})
	if err != nil {
		if rbErr := ts.Restore(); rbErr != nil {
			m.log.Error(ctx, "rollback failed, file removed but still listed", zap.String("group", groupID), zap.String("file", filename), zap.Error(rbErr))
			return multierr.Append(err, rbErr)
		}
		m.log.Warn(ctx, "index write failed, file restored", zap.String("group", groupID), zap.String("file", filename), zap.Error(err))
		return err
	}

	if err := ts.Purge(); err != nil {
		m.log.Warn(ctx, "purging deleted file", zap.String("group", groupID), zap.String("file", filename), zap.Error(err))
	}
	m.log.Info(ctx, "file deleted", zap.String("group", groupID), zap.String("file", filename))

	return nil
}

// Download returns the on-disk path of a stored file.
func (m *Manager) Download(ctx context.Context, groupID, filename string) (string, error) {
	if !m.store.FileExists(groupID, filename) {
		return "", models.FileNotFound(filename)
	}
	return m.store.FilePath(groupID, filename), nil
}
