package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exam-archive/backend/internal/models"
)

func newTestIndex(t *testing.T) *IndexStore {
	t.Helper()
	return NewIndexStore(filepath.Join(t.TempDir(), "metadata.json"))
}

func TestIndexStore_Load(t *testing.T) {
	t.Run("missing document is empty", func(t *testing.T) {
		idx, err := newTestIndex(t).Load()
		require.NoError(t, err)
		assert.Empty(t, idx)
		assert.NotNil(t, idx)
	})

	t.Run("malformed document is surfaced", func(t *testing.T) {
		s := newTestIndex(t)
		require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0644))

		_, err := s.Load()
		var readErr *models.StorageReadError
		require.ErrorAs(t, err, &readErr)
		assert.Equal(t, s.Path(), readErr.Path)
	})

	t.Run("zero-length document is malformed", func(t *testing.T) {
		s := newTestIndex(t)
		require.NoError(t, os.WriteFile(s.Path(), nil, 0644))

		_, err := s.Load()
		var readErr *models.StorageReadError
		assert.ErrorAs(t, err, &readErr)
	})

	t.Run("null document is empty", func(t *testing.T) {
		s := newTestIndex(t)
		require.NoError(t, os.WriteFile(s.Path(), []byte("null"), 0644))

		idx, err := s.Load()
		require.NoError(t, err)
		assert.Empty(t, idx)
	})

	t.Run("reads documents written by earlier deployments", func(t *testing.T) {
		s := newTestIndex(t)
		doc := `{
  "C_ng_ty_A_2024-01-01": {
    "company_name": "Công ty A",
    "exam_date": "2024-01-01",
    "notes": "",
    "created_at": "2024-01-01 08:00:00",
    "files": [
      {"name": "ds.xlsx", "size": 2048, "upload_time": "2024-01-01 08:01:00", "description": ""}
    ]
  },
  "partial": {"files": [{"name": "a.pdf", "size": 1}]}
}`
		require.NoError(t, os.WriteFile(s.Path(), []byte(doc), 0644))

		idx, err := s.Load()
		require.NoError(t, err)
		require.Len(t, idx, 2)
		g := idx["C_ng_ty_A_2024-01-01"]
		assert.Equal(t, "Công ty A", g.CompanyName)
		assert.Equal(t, int64(2048), g.Files[0].Size)
		assert.Equal(t, "", idx["partial"].CompanyName)
	})
}

func TestIndexStore_SaveLoad(t *testing.T) {
	s := newTestIndex(t)
	idx := models.Index{
		"Acme_2024-01-01": {CompanyName: "Acme", ExamDate: "2024-01-01", CreatedAt: "2024-01-01 10:00:00"},
	}

	require.NoError(t, s.Save(idx))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Contains(t, loaded, "Acme_2024-01-01")
	assert.Equal(t, "Acme", loaded["Acme_2024-01-01"].CompanyName)
	assert.NotNil(t, loaded["Acme_2024-01-01"].Files)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"files": []`)

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestIndexStore_SaveWritesEveryField(t *testing.T) {
	s := newTestIndex(t)

	// An entry created by an upload into a directory the index did not know about.
	idx := models.Index{"stray": {Files: []models.FileRecord{{Name: "a.pdf", Size: 1}}}}
	require.NoError(t, s.Save(idx))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	for _, key := range []string{`"company_name": ""`, `"exam_date": ""`, `"notes": ""`, `"created_at": ""`} {
		assert.Contains(t, string(data), key)
	}
}

func TestIndexStore_SaveFailure(t *testing.T) {
	s := NewIndexStore(filepath.Join(t.TempDir(), "missing-dir", "metadata.json"))

	err := s.Save(models.Index{})
	var writeErr *models.StorageWriteError
	assert.ErrorAs(t, err, &writeErr)
}

func TestIndexStore_Update(t *testing.T) {
	t.Run("callback error skips the save", func(t *testing.T) {
		s := newTestIndex(t)
		boom := errors.New("boom")

		err := s.Update(func(idx models.Index) error {
			idx["x"] = &models.Group{}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, statErr := os.Stat(s.Path())
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("ErrNoChange is not an error", func(t *testing.T) {
		s := newTestIndex(t)
		assert.NoError(t, s.Update(func(models.Index) error { return ErrNoChange }))
	})

	t.Run("concurrent updates do not lose writes", func(t *testing.T) {
		s := newTestIndex(t)
		require.NoError(t, s.Save(models.Index{"g": {}}))

		const writers = 20
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Update(func(idx models.Index) error {
					idx["g"].Files = append(idx["g"].Files, models.FileRecord{Name: "f"})
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		idx, err := s.Load()
		require.NoError(t, err)
		assert.Len(t, idx["g"].Files, writers)
	})
}
