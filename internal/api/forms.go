// forms.go - Multipart form helpers
package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/multierr"

	"github.com/exam-archive/backend/internal/upload"
)

// filesField is the multipart field carrying uploaded files
const filesField = "files"

// parseForm parses a multipart body. A non-multipart body yields a nil form so callers can
// still read url-encoded fields through c.FormValue.
func parseForm(c echo.Context) (*multipart.Form, error) {
	form, err := c.MultipartForm()
	if err == nil {
		return form, nil
	}
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return nil, httpErr
	}
	return nil, NewBadRequestError(err)
}

// openedFiles holds the open parts of one request
type openedFiles struct {
	files   []upload.File
	closers []multipart.File
}

// openFiles opens every file part of the form in submission order
func openFiles(form *multipart.Form) (*openedFiles, error) {
	opened := &openedFiles{}
	if form == nil {
		return opened, nil
	}

	for _, fh := range form.File[filesField] {
		src, err := fh.Open()
		if err != nil {
			return nil, multierr.Append(err, opened.Close())
		}
		opened.closers = append(opened.closers, src)
		opened.files = append(opened.files, upload.File{Name: fh.Filename, Content: src})
	}

	return opened, nil
}

// Close closes every opened part
func (o *openedFiles) Close() error {
	var err error
	for _, c := range o.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// pathParam returns the unescaped value of a path parameter
func pathParam(c echo.Context, name string) string {
	raw := c.Param(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
