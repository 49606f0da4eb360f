package groups

import (
	"context"
	"sort"
)

// Report lists disagreements between the index and the directories on disk.
type Report struct {
	OrphanDirs    []string `json:"orphan_dirs"`    // directory without index entry
	OrphanEntries []string `json:"orphan_entries"` // index entry without directory
}

// Clean reports whether index and disk agree.
func (r *Report) Clean() bool {
	return len(r.OrphanDirs) == 0 && len(r.OrphanEntries) == 0
}

// Audit compares the index with the group directories. It never modifies either side.
func (m *Manager) Audit(ctx context.Context) (*Report, error) {
	idx, err := m.index.Load()
	if err != nil {
		return nil, err
	}
	dirs, err := m.store.ListFolders()
	if err != nil {
		return nil, err
	}

	report := &Report{OrphanDirs: []string{}, OrphanEntries: []string{}}

	onDisk := make(map[string]bool, len(dirs))
	for _, id := range dirs {
		onDisk[id] = true
		if _, ok := idx[id]; !ok {
			report.OrphanDirs = append(report.OrphanDirs, id)
		}
	}
	for id := range idx {
		if !onDisk[id] {
			report.OrphanEntries = append(report.OrphanEntries, id)
		}
	}
	sort.Strings(report.OrphanEntries)

	return report, nil
}
