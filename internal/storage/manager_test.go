// manager_test.go - Tests for the folder/file layer
package storage

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/exam-archive/backend/internal/models"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), "metadata.json")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates root directory", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "clinic_uploads")

		store, err := NewLocalStore(root)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		if _, err := os.Stat(root); os.IsNotExist(err) {
			t.Error("Expected root directory to be created")
		}
		if store.Root() != root {
			t.Errorf("Expected root %s, got %s", root, store.Root())
		}
	})
}

func TestLocalStore_ValidName(t *testing.T) {
	store := createTestStore(t)

	valid := []string{"Acme_2024-01-01", "report.pdf", "a..b"}
	invalid := []string{"", ".", "..", ".trash", ".hidden", "a/b", `a\b`, "metadata.json"}

	for _, name := range valid {
		if !store.ValidName(name) {
			t.Errorf("Expected %q to be valid", name)
		}
	}
	for _, name := range invalid {
		if store.ValidName(name) {
			t.Errorf("Expected %q to be invalid", name)
		}
	}
}

func TestLocalStore_CreateFolder(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		store := createTestStore(t)

		if err := store.CreateFolder("Acme_2024-01-01"); err != nil {
			t.Fatalf("Failed to create folder: %v", err)
		}
		if !store.FolderExists("Acme_2024-01-01") {
			t.Error("Expected folder to exist")
		}
	})

	t.Run("refuses existing directory", func(t *testing.T) {
		store := createTestStore(t)
		if err := store.CreateFolder("Acme_2024-01-01"); err != nil {
			t.Fatalf("Failed to create folder: %v", err)
		}

		err := store.CreateFolder("Acme_2024-01-01")
		if _, ok := err.(*models.DuplicateGroupError); !ok {
			t.Errorf("Expected DuplicateGroupError, got %T (%v)", err, err)
		}
	})

	t.Run("refuses reserved name", func(t *testing.T) {
		store := createTestStore(t)

		err := store.CreateFolder("metadata.json")
		if _, ok := err.(*models.ValidationError); !ok {
			t.Errorf("Expected ValidationError, got %T (%v)", err, err)
		}
	})
}

func TestLocalStore_ListFolders(t *testing.T) {
	store := createTestStore(t)
	for _, id := range []string{"b_group", "a_group"} {
		if err := store.CreateFolder(id); err != nil {
			t.Fatalf("Failed to create folder: %v", err)
		}
	}
	// Neither a plain file nor the trash directory is a group.
	os.WriteFile(filepath.Join(store.Root(), "metadata.json"), []byte("{}"), 0644)
	os.MkdirAll(filepath.Join(store.Root(), TrashDirName), 0755)

	ids, err := store.ListFolders()
	if err != nil {
		t.Fatalf("Failed to list folders: %v", err)
	}

	if strings.Join(ids, ",") != "a_group,b_group" {
		t.Errorf("Expected [a_group b_group], got %v", ids)
	}
}

func TestLocalStore_SaveFile(t *testing.T) {
	t.Run("saves file and reads size back", func(t *testing.T) {
		store := createTestStore(t)
		store.CreateFolder("g")

		content := "Hello, World!"
		name, size, err := store.SaveFile("g", "report.pdf", strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if name != "report.pdf" {
			t.Errorf("Expected name 'report.pdf', got %v", name)
		}
		if size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), size)
		}

		data, err := os.ReadFile(store.FilePath("g", name))
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected content '%s', got '%s'", content, string(data))
		}
	})

	t.Run("suffixes colliding names", func(t *testing.T) {
		store := createTestStore(t)
		store.CreateFolder("g")

		want := []string{"report.pdf", "report_1.pdf", "report_2.pdf"}
		for i, w := range want {
			name, size, err := store.SaveFile("g", "report.pdf", strings.NewReader(strings.Repeat("x", i+1)))
			if err != nil {
				t.Fatalf("Failed to save file: %v", err)
			}
			if name != w {
				t.Errorf("Expected name %s, got %s", w, name)
			}
			if size != int64(i+1) {
				t.Errorf("Expected size %d, got %d", i+1, size)
			}
		}
	})

	t.Run("suffixes names without extension", func(t *testing.T) {
		store := createTestStore(t)
		store.CreateFolder("g")

		store.SaveFile("g", "pdf", strings.NewReader("a"))
		name, _, err := store.SaveFile("g", "pdf", strings.NewReader("b"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
		if name != "pdf_1" {
			t.Errorf("Expected name pdf_1, got %s", name)
		}
	})

	t.Run("concurrent saves never share a name", func(t *testing.T) {
		store := createTestStore(t)
		store.CreateFolder("g")

		const writers = 16
		var wg sync.WaitGroup
		names := make(chan string, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				name, _, err := store.SaveFile("g", "scan.pdf", strings.NewReader("data"))
				if err != nil {
					t.Errorf("Failed to save file: %v", err)
					return
				}
				names <- name
			}()
		}
		wg.Wait()
		close(names)

		seen := make(map[string]bool)
		for name := range names {
			if seen[name] {
				t.Errorf("Name %s handed out twice", name)
			}
			seen[name] = true
		}
		if len(seen) != writers {
			t.Errorf("Expected %d distinct names, got %d", writers, len(seen))
		}
	})

	t.Run("missing group", func(t *testing.T) {
		store := createTestStore(t)

		_, _, err := store.SaveFile("nope", "report.pdf", strings.NewReader("x"))
		if !models.IsNotFound(err, models.ResourceGroup) {
			t.Errorf("Expected group not found, got %v", err)
		}
	})
}

func TestLocalStore_RemoveFile(t *testing.T) {
	store := createTestStore(t)
	store.CreateFolder("g")
	store.SaveFile("g", "scan.pdf", strings.NewReader("x"))

	if err := store.RemoveFile("g", "scan.pdf"); err != nil {
		t.Fatalf("Failed to remove file: %v", err)
	}
	if store.FileExists("g", "scan.pdf") {
		t.Error("Expected file to be gone")
	}

	if err := store.RemoveFile("g", "scan.pdf"); !models.IsNotFound(err, models.ResourceFile) {
		t.Errorf("Expected file not found, got %v", err)
	}
}

func TestLocalStore_Tombstones(t *testing.T) {
	t.Run("restore folder", func(t *testing.T) {
		store := createTestStore(t)
		store.CreateFolder("g")
		store.SaveFile("g", "scan.pdf", strings.NewReader("x"))

		ts, err := store.BuryFolder("g")
		if err != nil {
			t.Fatalf("Failed to bury folder: %v", err)
		}
		if store.FolderExists("g") {
			t.Error("Expected folder to be moved away")
		}

		if err := ts.Restore(); err != nil {
			t.Fatalf("Failed to restore: %v", err)
		}
		if !store.FileExists("g", "scan.pdf") {
			t.Error("Expected file to be back after restore")
		}
	})

	t.Run("purge file", func(t *testing.T) {
		store := createTestStore(t)
		store.CreateFolder("g")
		store.SaveFile("g", "scan.pdf", strings.NewReader("x"))

		ts, err := store.BuryFile("g", "scan.pdf")
		if err != nil {
			t.Fatalf("Failed to bury file: %v", err)
		}
		if err := ts.Purge(); err != nil {
			t.Fatalf("Failed to purge: %v", err)
		}

		if store.FileExists("g", "scan.pdf") {
			t.Error("Expected file to be gone")
		}
		entries, _ := os.ReadDir(filepath.Join(store.Root(), TrashDirName))
		if len(entries) != 0 {
			t.Errorf("Expected empty trash, got %d entries", len(entries))
		}
	})

	t.Run("bury missing entries", func(t *testing.T) {
		store := createTestStore(t)

		if _, err := store.BuryFolder("nope"); !models.IsNotFound(err, models.ResourceGroup) {
			t.Errorf("Expected group not found, got %v", err)
		}
		if _, err := store.BuryFile("nope", "a.pdf"); !models.IsNotFound(err, models.ResourceFile) {
			t.Errorf("Expected file not found, got %v", err)
		}
	})
}
