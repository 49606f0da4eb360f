package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exam-archive/backend/internal/groups"
)

// writeConfig creates a config file pointing at a fresh storage root.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	t.Setenv("PORT", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("LOG_LEVEL", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "exam-archive.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  root_directory: data\nlogging:\n  level: error\n"), 0644))

	return path, filepath.Join(dir, "data")
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheck(t *testing.T) {
	path, root := writeConfig(t)

	out, err := runCmd(t, "check", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	a, err := loadApp(path)
	require.NoError(t, err)
	id, err := a.groups.Create(context.Background(), groups.CreateRequest{CompanyName: "Acme", ExamDate: "2024-01-01"})
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(root, "stray"), 0755))
	require.NoError(t, os.RemoveAll(filepath.Join(root, id)))

	out, err = runCmd(t, "check", "--config", path)
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.Contains(t, out, "directory without index entry: stray")
	assert.Contains(t, out, "index entry without directory: "+id)

	out, err = runCmd(t, "check", "--config", path, "--json")
	assert.ErrorIs(t, err, ErrInconsistent)
	var report groups.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{"stray"}, report.OrphanDirs)
	assert.Equal(t, []string{id}, report.OrphanEntries)

	// check never repairs anything
	assert.DirExists(t, filepath.Join(root, "stray"))
}

func TestLoadApp_CreatesDefaultConfig(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("LOG_LEVEL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "exam-archive.yaml")

	a, err := loadApp(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.DirExists(t, filepath.Join(dir, "clinic_uploads"))
	assert.Equal(t, 5000, a.cfg.Server.Port)
}

func TestServe_StopsOnCancel(t *testing.T) {
	path, _ := writeConfig(t)
	t.Setenv("PORT", "0")

	a, err := loadApp(path)
	require.Error(t, err, "port 0 is rejected by validation")
	assert.Nil(t, a)

	t.Setenv("PORT", "")
	a, err = loadApp(path)
	require.NoError(t, err)
	a.cfg.Server.BindAddress = "127.0.0.1"
	a.cfg.Server.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, serve(ctx, a, "test"))
}
