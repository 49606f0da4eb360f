package models

import "fmt"

// Group is one exam group as recorded in the metadata index.
// The identifier is the index key and the directory name, so it is not part of the record.
type Group struct {
	CompanyName string       `json:"company_name"`
	ExamDate    string       `json:"exam_date"`
	Notes       string       `json:"notes"`
	CreatedAt   string       `json:"created_at"`
	Files       []FileRecord `json:"files"`
}

// Index maps group identifier to group record.
type Index map[string]*Group

// Clone returns a deep copy so callers cannot mutate a loaded index by accident.
func (g *Group) Clone() *Group {
	c := *g
	c.Files = append([]FileRecord{}, g.Files...)
	return &c
}

// TotalSize sums the recorded sizes of all files.
func (g *Group) TotalSize() int64 {
	var total int64
	for _, f := range g.Files {
		total += f.Size
	}
	return total
}

// HasFile reports whether a file of that name is listed.
func (g *Group) HasFile(name string) bool {
	for _, f := range g.Files {
		if f.Name == name {
			return true
		}
	}
	return false
}

// RemoveFile drops every listed file of that name and reports how many were removed.
func (g *Group) RemoveFile(name string) int {
	kept := g.Files[:0]
	removed := 0
	for _, f := range g.Files {
		if f.Name == name {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	g.Files = kept
	return removed
}

// FolderSummary is one row of the group listing.
type FolderSummary struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	ExamDate    string `json:"exam_date"`
	Notes       string `json:"notes"`
	FileCount   int    `json:"file_count"`
	TotalSize   string `json:"total_size"`
}

// Summary builds the listing row for the group stored under id.
func (g *Group) Summary(id string) FolderSummary {
	display := g.CompanyName
	if display == "" {
		display = id
	}
	return FolderSummary{
		Name:        id,
		DisplayName: display,
		ExamDate:    g.ExamDate,
		Notes:       g.Notes,
		FileCount:   len(g.Files),
		TotalSize:   FormatSize(g.TotalSize()),
	}
}

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders a byte count using binary units with two decimals, e.g. "2.00 KB".
func FormatSize(size int64) string {
	if size == 0 {
		return "0 B"
	}
	value := float64(size)
	i := 0
	for value >= 1024 && i < len(sizeUnits)-1 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", value, sizeUnits[i])
}
