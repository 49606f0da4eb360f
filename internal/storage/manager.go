package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/exam-archive/backend/internal/models"
)

// TrashDirName is the root-level directory holding tombstones of pending deletions.
const TrashDirName = ".trash"

// maxNameAttempts bounds the collision-suffix search in SaveFile.
const maxNameAttempts = 10000

// Store defines the filesystem side of the archive: one directory per group under a root.
type Store interface {
	ValidName(name string) bool
	FolderExists(id string) bool
	CreateFolder(id string) error
	RemoveFolder(id string) error
	ListFolders() ([]string, error)
	FileExists(id, name string) bool
	FilePath(id, name string) string
	SaveFile(id, name string, r io.Reader) (string, int64, error)
	RemoveFile(id, name string) error
	BuryFolder(id string) (*Tombstone, error)
	BuryFile(id, name string) (*Tombstone, error)
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	root     string
	reserved map[string]struct{}
}

// NewLocalStore creates a new LocalStore rooted at root.
// Reserved names (the metadata document, typically) can never be used as group identifiers.
func NewLocalStore(root string, reserved ...string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}

	s := &LocalStore{
		root:     root,
		reserved: make(map[string]struct{}, len(reserved)),
	}
	for _, name := range reserved {
		s.reserved[name] = struct{}{}
	}

	return s, nil
}

// Root returns the storage root directory.
func (s *LocalStore) Root() string {
	return s.root
}

// ValidName reports whether name can be used as a single path segment under the root:
// non-empty, no separators, not "." or "..", no leading dot, not reserved.
func (s *LocalStore) ValidName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	_, reserved := s.reserved[name]
	return !reserved
}

// FolderPath returns the directory of a group.
func (s *LocalStore) FolderPath(id string) string {
	return filepath.Join(s.root, id)
}

// FolderExists reports whether the group directory exists.
func (s *LocalStore) FolderExists(id string) bool {
	if !s.ValidName(id) {
		return false
	}
	st, err := os.Stat(s.FolderPath(id))
	return err == nil && st.IsDir()
}

// CreateFolder creates the group directory, failing with DuplicateGroupError if anything
// already occupies that path.
func (s *LocalStore) CreateFolder(id string) error {
	if !s.ValidName(id) {
		return &models.ValidationError{Field: "folder_name"}
	}

	if err := os.Mkdir(s.FolderPath(id), 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &models.DuplicateGroupError{ID: id}
		}
		return fmt.Errorf("creating folder: %w", err)
	}

	return nil
}

// RemoveFolder recursively deletes the group directory.
func (s *LocalStore) RemoveFolder(id string) error {
	if !s.ValidName(id) {
		return models.GroupNotFound(id)
	}
	if err := os.RemoveAll(s.FolderPath(id)); err != nil {
		return fmt.Errorf("removing folder: %w", err)
	}
	return nil
}

// ListFolders returns the names of all group directories, sorted.
func (s *LocalStore) ListFolders() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading root directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() && s.ValidName(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)

	return ids, nil
}

// FilePath returns the on-disk path of a stored file.
func (s *LocalStore) FilePath(id, name string) string {
	return filepath.Join(s.root, id, name)
}

// FileExists reports whether a regular file of that name exists in the group directory.
func (s *LocalStore) FileExists(id, name string) bool {
	if !s.ValidName(id) || !s.ValidName(name) {
		return false
	}
	st, err := os.Stat(s.FilePath(id, name))
	return err == nil && st.Mode().IsRegular()
}

// SaveFile writes r into the group directory under name, or under name_1, name_2, ...
// (suffix before the extension) if name is taken. It returns the stored name and the size
// read back from disk.
func (s *LocalStore) SaveFile(id, name string, r io.Reader) (string, int64, error) {
	if !s.ValidName(id) {
		return "", 0, models.GroupNotFound(id)
	}
	if !s.ValidName(name) {
		return "", 0, fmt.Errorf("invalid file name: %q", name)
	}

	f, stored, err := s.createUnique(id, name)
	if err != nil {
		return "", 0, err
	}
	path := s.FilePath(id, stored)

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", 0, fmt.Errorf("writing file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("closing file: %w", err)
	}

	st, err := os.Stat(path)
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("stat stored file: %w", err)
	}

	return stored, st.Size(), nil
}

// createUnique creates the first free candidate name with O_EXCL so that two writers can never
// claim the same name.
func (s *LocalStore) createUnique(id, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := name
	for i := 1; i <= maxNameAttempts; i++ {
		f, err := os.OpenFile(s.FilePath(id, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, "", models.GroupNotFound(id)
			}
			return nil, "", fmt.Errorf("creating file: %w", err)
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}

	return nil, "", fmt.Errorf("no free name for %s after %d attempts", name, maxNameAttempts)
}

// RemoveFile deletes a stored file.
func (s *LocalStore) RemoveFile(id, name string) error {
	if !s.FileExists(id, name) {
		return models.FileNotFound(name)
	}
	if err := os.Remove(s.FilePath(id, name)); err != nil {
		return fmt.Errorf("removing file: %w", err)
	}
	return nil
}

// BuryFolder moves a group directory into the trash so the removal can still be undone.
func (s *LocalStore) BuryFolder(id string) (*Tombstone, error) {
	if !s.FolderExists(id) {
		return nil, models.GroupNotFound(id)
	}
	return s.bury(s.FolderPath(id))
}

// BuryFile moves a stored file into the trash so the removal can still be undone.
func (s *LocalStore) BuryFile(id, name string) (*Tombstone, error) {
	if !s.FileExists(id, name) {
		return nil, models.FileNotFound(name)
	}
	return s.bury(s.FilePath(id, name))
}

func (s *LocalStore) bury(origin string) (*Tombstone, error) {
	trash := filepath.Join(s.root, TrashDirName)
	if err := os.MkdirAll(trash, 0755); err != nil {
		return nil, fmt.Errorf("creating trash directory: %w", err)
	}

	t := &Tombstone{origin: origin, path: filepath.Join(trash, uuid.New().String())}
	if err := os.Rename(origin, t.path); err != nil {
		return nil, fmt.Errorf("moving %s to trash: %w", filepath.Base(origin), err)
	}

	return t, nil
}

// Tombstone is a file or directory moved aside pending deletion.
type Tombstone struct {
	origin string
	path   string
}

// Restore moves the entry back to where it was buried from.
func (t *Tombstone) Restore() error {
	if err := os.Rename(t.path, t.origin); err != nil {
		return fmt.Errorf("restoring %s: %w", filepath.Base(t.origin), err)
	}
	return nil
}

// Purge deletes the buried entry for good.
func (t *Tombstone) Purge() error {
	if err := os.RemoveAll(t.path); err != nil {
		return fmt.Errorf("purging %s: %w", filepath.Base(t.origin), err)
	}
	return nil
}
