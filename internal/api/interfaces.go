// interfaces.go - Handler and service interface definitions
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/exam-archive/backend/internal/groups"
	"github.com/exam-archive/backend/internal/models"
	"github.com/exam-archive/backend/internal/upload"
)

// GroupHandler handles exam group operations
type GroupHandler interface {
	HandleCreateFolder(c echo.Context) error
	HandleGetFolders(c echo.Context) error
	HandleGetFolderInfo(c echo.Context) error
	HandleUpdateFolder(c echo.Context) error
	HandleDeleteFolder(c echo.Context) error
	HandleGetFiles(c echo.Context) error
}

// FileHandler handles file operations inside a group
type FileHandler interface {
	HandleUpload(c echo.Context) error
	HandleDownload(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// GroupService defines the group lifecycle used by the handlers.
// This allows mocking in tests
type GroupService interface {
	Create(ctx context.Context, req groups.CreateRequest) (string, error)
	List(ctx context.Context) ([]models.FolderSummary, error)
	Get(ctx context.Context, id string) (*models.Group, bool, error)
	Files(ctx context.Context, id string) ([]models.FileView, error)
	Update(ctx context.Context, req groups.UpdateRequest) error
	Delete(ctx context.Context, id string) error
}

// FileService defines the per-group file operations used by the handlers
type FileService interface {
	Upload(ctx context.Context, groupID string, files []upload.File) (int, error)
	Download(ctx context.Context, groupID, filename string) (string, error)
	Delete(ctx context.Context, groupID, filename string) error
}

var (
	_ GroupService = (*groups.Manager)(nil)
	_ FileService  = (*upload.Manager)(nil)
)
