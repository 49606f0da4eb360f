// Package groups manages exam groups: one directory per group plus its record in the
// metadata index.
package groups

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/exam-archive/backend/internal/logging"
	"github.com/exam-archive/backend/internal/models"
	"github.com/exam-archive/backend/internal/storage"
	"github.com/exam-archive/backend/internal/upload"
)

// Manager creates, reads, updates and deletes exam groups.
type Manager struct {
	store   storage.Store
	index   storage.Index
	uploads *upload.Manager
	locks   *storage.KeyedMutex
	log     *logging.Logger
	now     func() time.Time
}

// NewManager creates a new group manager. locks must be the same instance the upload
// manager uses so both serialize on the same group.
func NewManager(store storage.Store, index storage.Index, uploads *upload.Manager, locks *storage.KeyedMutex, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	if locks == nil {
		locks = &storage.KeyedMutex{}
	}
	return &Manager{
		store:   store,
		index:   index,
		uploads: uploads,
		locks:   locks,
		log:     log,
		now:     time.Now,
	}
}

// CreateRequest holds the fields of a new group.
type CreateRequest struct {
	CompanyName string
	ExamDate    string
	Notes       string
	Files       []upload.File
}

// Create makes the group directory, stores the accepted initial files and writes the index
// entry, in that order. Any failure removes the directory again.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (string, error) {
	company := strings.TrimSpace(req.CompanyName)
	date := strings.TrimSpace(req.ExamDate)
	notes := strings.TrimSpace(req.Notes)

	if company == "" {
		return "", &models.ValidationError{Field: "company_name"}
	}
	if date == "" {
		return "", &models.ValidationError{Field: "exam_date"}
	}

	id := storage.GroupIdentifier(company, date)
	if !m.store.ValidName(id) {
		return "", &models.ValidationError{Field: "company_name"}
	}

	unlock := m.locks.Lock(id)
	defer unlock()

	if err := m.store.CreateFolder(id); err != nil {
		return "", err
	}

	var records []models.FileRecord
	if len(req.Files) > 0 && req.Files[0].Name != "" {
		batch, err := m.uploads.Store(ctx, id, req.Files)
		if err != nil {
			return "", m.abandon(ctx, id, err)
		}
		records = batch.Records
	}
	if records == nil {
		records = []models.FileRecord{}
	}

	err := m.index.Update(func(idx models.Index) error {
		idx[id] = &models.Group{
			CompanyName: company,
			ExamDate:    date,
			Notes:       notes,
			CreatedAt:   m.now().Format(models.TimestampLayout),
			Files:       records,
		}
		return nil
	})
	if err != nil {
		return "", m.abandon(ctx, id, err)
	}

	m.log.Info(ctx, "group created", zap.String("group", id), zap.Int("files", len(records)))
	return id, nil
}

// abandon removes a half-created group directory and returns cause, joined with the
// cleanup error if there is one.
func (m *Manager) abandon(ctx context.Context, id string, cause error) error {
	if err := m.store.RemoveFolder(id); err != nil {
		m.log.Error(ctx, "rollback failed, group directory is orphaned", zap.String("group", id), zap.Error(err))
		return multierr.Append(cause, err)
	}
	m.log.Warn(ctx, "group creation rolled back", zap.String("group", id), zap.Error(cause))
	return cause
}

// List returns every group that has both an index entry and a directory, newest exam date
// first. Dates compare as strings; ties are ordered by identifier.
func (m *Manager) List(ctx context.Context) ([]models.FolderSummary, error) {
	idx, err := m.index.Load()
	if err != nil {
		return nil, err
	}

	folders := make([]models.FolderSummary, 0, len(idx))
	for id, g := range idx {
		if !m.store.FolderExists(id) {
			continue
		}
		folders = append(folders, g.Summary(id))
	}

	sort.Slice(folders, func(i, j int) bool {
		if folders[i].ExamDate != folders[j].ExamDate {
			return folders[i].ExamDate > folders[j].ExamDate
		}
		return folders[i].Name < folders[j].Name
	})

	return folders, nil
}

// Get returns a copy of the group record. ok is false if the index has no such entry.
func (m *Manager) Get(ctx context.Context, id string) (*models.Group, bool, error) {
	idx, err := m.index.Load()
	if err != nil {
		return nil, false, err
	}

	g, ok := idx[id]
	if !ok {
		return nil, false, nil
	}
	g = g.Clone()
	if g.Files == nil {
		g.Files = []models.FileRecord{}
	}

	return g, true, nil
}

// Files returns the group's file list in listing form; a missing group has no files.
func (m *Manager) Files(ctx context.Context, id string) ([]models.FileView, error) {
	g, _, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	views := []models.FileView{}
	if g != nil {
		for _, f := range g.Files {
			views = append(views, f.View())
		}
	}

	return views, nil
}

// UpdateRequest holds the editable fields of a group.
type UpdateRequest struct {
	ID          string
	CompanyName string
	ExamDate    string
	Notes       string
}

// Update overwrites company name, exam date and notes. The identifier, creation time and
// file list never change.
func (m *Manager) Update(ctx context.Context, req UpdateRequest) error {
	err := m.index.Update(func(idx models.Index) error {
		g, ok := idx[req.ID]
		if !ok {
			return models.GroupNotFound(req.ID)
		}
		g.CompanyName = req.CompanyName
		g.ExamDate = req.ExamDate
		g.Notes = req.Notes
		return nil
	})
	if err != nil {
		return err
	}

	m.log.Info(ctx, "group updated", zap.String("group", req.ID))
	return nil
}

// Delete removes the group directory with all its files and then the index entry.
// The directory is moved to the trash first and moved back if the index cannot be written.
func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock := m.locks.Lock(id)
	defer unlock()

	if !m.store.FolderExists(id) {
		return models.GroupNotFound(id)
	}

	ts, err := m.store.BuryFolder(id)
	if err != nil {
		return err
	}

	err = m.index.Update(func(idx models.Index) error {
		if _, ok := idx[id]; !ok {
			return storage.ErrNoChange
		}
		delete(idx, id)
		return nil
	})
	if err != nil {
		if rbErr := ts.Restore(); rbErr != nil {
			m.log.Error(ctx, "rollback failed, group removed but still indexed", zap.String("group", id), zap.Error(rbErr))
			return multierr.Append(err, rbErr)
		}
		m.log.Warn(ctx, "index write failed, group restored", zap.String("group", id), zap.Error(err))
		return err
	}

	if err := ts.Purge(); err != nil {
		m.log.Warn(ctx, "purging deleted group", zap.String("group", id), zap.Error(err))
	}
	m.log.Info(ctx, "group deleted", zap.String("group", id))

	return nil
}
