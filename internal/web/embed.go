// Package web provides the embedded single-page UI.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed dist/*
var staticFiles embed.FS

// GetFileSystem returns the embedded filesystem with the dist folder as root.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "dist")
}

// RegisterRoutes serves the UI document at the site root.
// The API routes are registered separately; only "/" belongs to the UI.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", HandleIndex)
}

// HandleIndex serves index.html
func HandleIndex(c echo.Context) error {
	content, err := staticFiles.ReadFile("dist/index.html")
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "index.html not found")
	}
	return c.HTMLBlob(http.StatusOK, content)
}

// HasEmbeddedFiles returns true if the UI document is embedded.
func HasEmbeddedFiles() bool {
	_, err := fs.Stat(staticFiles, "dist/index.html")
	return err == nil
}
