// handlers_files.go - File upload, download and delete handlers
package api

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/exam-archive/backend/internal/models"
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	files FileService
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(svc FileService) FileHandler {
	return &FileHandlerImpl{files: svc}
}

// HandleUpload adds the submitted files to an existing group
func (h *FileHandlerImpl) HandleUpload(c echo.Context) error {
	form, err := parseForm(c)
	if err != nil {
		return err
	}
	if form != nil {
		defer form.RemoveAll()
	}

	opened, err := openFiles(form)
	if err != nil {
		return err
	}
	defer opened.Close()

	n, err := h.files.Upload(c.Request().Context(), c.FormValue("folder_name"), opened.files)
	if err != nil {
		return FromError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  fmt.Sprintf("Upload thành công %d file", n),
		"uploaded": n,
	})
}

// HandleDownload streams a stored file as an attachment
func (h *FileHandlerImpl) HandleDownload(c echo.Context) error {
	name := pathParam(c, "filename")
	path, err := h.files.Download(c.Request().Context(), pathParam(c, "id"), name)
	if err != nil {
		return FromError(err)
	}

	// The file may be deleted between the lookup and the open
	if err := c.Attachment(path, name); err != nil {
		if errors.Is(err, echo.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return FromError(models.FileNotFound(name))
		}
		return err
	}

	return nil
}

// HandleDeleteFile removes one file from a group
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	err := h.files.Delete(c.Request().Context(), pathParam(c, "id"), pathParam(c, "filename"))
	if err != nil {
		return FromError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Xóa file thành công",
	})
}
