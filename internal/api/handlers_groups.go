// handlers_groups.go - Exam group handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/exam-archive/backend/internal/groups"
	"github.com/exam-archive/backend/internal/models"
)

// GroupHandlerImpl implements the GroupHandler interface
type GroupHandlerImpl struct {
	groups GroupService
}

// NewGroupHandler creates a new group handler instance
func NewGroupHandler(svc GroupService) GroupHandler {
	return &GroupHandlerImpl{groups: svc}
}

// HandleCreateFolder creates a group from a multipart form with optional initial files
func (h *GroupHandlerImpl) HandleCreateFolder(c echo.Context) error {
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

	id, err := h.groups.Create(c.Request().Context(), groups.CreateRequest{
		CompanyName: c.FormValue("company_name"),
		ExamDate:    c.FormValue("exam_date"),
		Notes:       c.FormValue("notes"),
		Files:       opened.files,
	})
	if err != nil {
		return FromError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"folder_name": id,
	})
}

// HandleGetFolders lists all groups, newest exam date first
func (h *GroupHandlerImpl) HandleGetFolders(c echo.Context) error {
	folders, err := h.groups.List(c.Request().Context())
	if err != nil {
		return FromError(err).WithList("folders")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"folders": folders,
	})
}

// HandleGetFolderInfo returns the group record; an unknown group yields an empty info object
func (h *GroupHandlerImpl) HandleGetFolderInfo(c echo.Context) error {
	g, ok, err := h.groups.Get(c.Request().Context(), pathParam(c, "id"))
	if err != nil {
		return FromError(err)
	}

	var info interface{} = struct{}{}
	if ok {
		info = g
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"info":    info,
	})
}

// updateFolderRequest is the JSON body of update_folder
type updateFolderRequest struct {
	FolderName  string `json:"folder_name"`
	CompanyName string `json:"company_name"`
	ExamDate    string `json:"exam_date"`
	Notes       string `json:"notes"`
}

// validate rejects a request without a target group
func (r *updateFolderRequest) validate() error {
	if r.FolderName == "" {
		return models.GroupNotFound(r.FolderName)
	}
	return nil
}

// HandleUpdateFolder overwrites the editable fields of a group
func (h *GroupHandlerImpl) HandleUpdateFolder(c echo.Context) error {
	var req updateFolderRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError(err)
	}

	if err := req.validate(); err != nil {
		return FromError(err)
	}

	err := h.groups.Update(c.Request().Context(), groups.UpdateRequest{
		ID:          req.FolderName,
		CompanyName: req.CompanyName,
		ExamDate:    req.ExamDate,
		Notes:       req.Notes,
	})
	if err != nil {
		return FromError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

// HandleDeleteFolder removes a group with all its files
func (h *GroupHandlerImpl) HandleDeleteFolder(c echo.Context) error {
	if err := h.groups.Delete(c.Request().Context(), pathParam(c, "id")); err != nil {
		return FromError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

// HandleGetFiles lists the files of a group with human-readable sizes
func (h *GroupHandlerImpl) HandleGetFiles(c echo.Context) error {
	files, err := h.groups.Files(c.Request().Context(), pathParam(c, "id"))
	if err != nil {
		return FromError(err).WithList("files")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"files":   files,
	})
}
