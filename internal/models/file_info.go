package models

import "time"

// TimestampLayout is the server-local layout used for created_at and upload_time.
const TimestampLayout = "2006-01-02 15:04:05"

// FileRecord represents metadata about a file stored in an exam group.
type FileRecord struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	UploadTime  string `json:"upload_time"`
	Description string `json:"description"` // reserved, always empty
}

// NewFileRecord builds the record for a file that was just written to disk.
func NewFileRecord(name string, size int64, at time.Time) FileRecord {
	return FileRecord{
		Name:       name,
		Size:       size,
		UploadTime: at.Format(TimestampLayout),
	}
}

// FileView is the listing form of a FileRecord with a human-readable size.
type FileView struct {
	Name        string `json:"name"`
	Size        string `json:"size"`
	UploadTime  string `json:"upload_time"`
	Description string `json:"description"`
}

// View converts the record for the file listing endpoint.
func (f FileRecord) View() FileView {
	return FileView{
		Name:        f.Name,
		Size:        FormatSize(f.Size),
		UploadTime:  f.UploadTime,
		Description: f.Description,
	}
}
