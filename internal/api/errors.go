// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/exam-archive/backend/internal/logging"
	"github.com/exam-archive/backend/internal/models"
)

// User-facing messages. The UI shows them verbatim as notifications.
const (
	MsgMissingFields  = "Vui lòng nhập đầy đủ thông tin"
	MsgNoGroup        = "Chưa chọn đoàn khám"
	MsgNoFiles        = "Chưa chọn file"
	MsgDuplicateGroup = "Đoàn khám này đã tồn tại"
	MsgGroupNotFound  = "Đoàn khám không tồn tại"
	MsgFileNotFound   = "File không tồn tại"
	MsgReadFailed     = "Không thể đọc dữ liệu đoàn khám"
	MsgWriteFailed    = "Không thể lưu dữ liệu đoàn khám"
	MsgUnexpected     = "Đã xảy ra lỗi, vui lòng thử lại"
	MsgTooLarge       = "Dung lượng tải lên vượt quá giới hạn cho phép"
	MsgNoRoute        = "Không tìm thấy đường dẫn yêu cầu"
	MsgBadMethod      = "Phương thức không được hỗ trợ"
	MsgBadRequest     = "Dữ liệu gửi lên không hợp lệ"
)

// APIError represents a failed request. Domain failures use HTTP 200 and the
// {success:false, message} envelope; framework failures keep their status.
type APIError struct {
	Status  int
	Code    string
	Message string
	// List names an empty array added to the envelope, for the listing endpoints.
	List  string
	cause error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// WithList returns a copy of e whose envelope carries key: [].
func (e *APIError) WithList(key string) *APIError {
	c := *e
	c.List = key
	return &c
}

// Envelope renders the JSON body of the error response.
func (e *APIError) Envelope() map[string]interface{} {
	body := map[string]interface{}{
		"success": false,
		"message": e.Message,
	}
	if e.List != "" {
		body[e.List] = []struct{}{}
	}
	return body
}

func newAPIError(code, message string, cause error) *APIError {
	return &APIError{
		Status:  http.StatusOK,
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// NewBadRequestError reports an unreadable request body
func NewBadRequestError(cause error) *APIError {
	return newAPIError("BAD_REQUEST", MsgBadRequest, cause)
}

// FromError classifies err into the response the client sees.
func FromError(err error) *APIError {
	var (
		apiErr   *APIError
		httpErr  *echo.HTTPError
		valErr   *models.ValidationError
		dupErr   *models.DuplicateGroupError
		nfErr    *models.NotFoundError
		readErr  *models.StorageReadError
		writeErr *models.StorageWriteError
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &httpErr):
		return fromHTTPError(httpErr)
	case errors.As(err, &valErr):
		switch valErr.Field {
		case "folder_name":
			return newAPIError("VALIDATION_ERROR", MsgNoGroup, err)
		case "files":
			return newAPIError("VALIDATION_ERROR", MsgNoFiles, err)
		default:
			return newAPIError("VALIDATION_ERROR", MsgMissingFields, err)
		}
	case errors.As(err, &dupErr):
		return newAPIError("CONFLICT", MsgDuplicateGroup, err)
	case errors.As(err, &nfErr):
		if nfErr.Resource == models.ResourceFile {
			return newAPIError("NOT_FOUND", MsgFileNotFound, err)
		}
		return newAPIError("NOT_FOUND", MsgGroupNotFound, err)
	case errors.As(err, &readErr):
		return newAPIError("STORAGE_READ", MsgReadFailed, err)
	case errors.As(err, &writeErr):
		return newAPIError("STORAGE_WRITE", MsgWriteFailed, err)
	}

	return newAPIError("UNKNOWN_ERROR", MsgUnexpected, err)
}

func fromHTTPError(e *echo.HTTPError) *APIError {
	msg := MsgUnexpected
	switch e.Code {
	case http.StatusRequestEntityTooLarge:
		msg = MsgTooLarge
	case http.StatusNotFound:
		msg = MsgNoRoute
	case http.StatusMethodNotAllowed:
		msg = MsgBadMethod
	case http.StatusBadRequest:
		msg = MsgBadRequest
	}
	return &APIError{
		Status:  e.Code,
		Code:    "HTTP_ERROR",
		Message: msg,
		cause:   e,
	}
}

// ErrorHandler renders every error as the uniform envelope.
// Usage: e.HTTPErrorHandler = api.ErrorHandler(log)
func ErrorHandler(log *logging.Logger) echo.HTTPErrorHandler {
	if log == nil {
		log = logging.Nop()
	}

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		apiErr := FromError(err)
		ctx := c.Request().Context()
		switch apiErr.Code {
		case "UNKNOWN_ERROR", "STORAGE_READ", "STORAGE_WRITE":
			log.Error(ctx, "request failed", zap.String("code", apiErr.Code), zap.Error(err))
		default:
			log.Debug(ctx, "request rejected", zap.String("code", apiErr.Code), zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(apiErr.Status)
		} else {
			err = c.JSON(apiErr.Status, apiErr.Envelope())
		}
		if err != nil {
			log.Error(ctx, "writing error response", zap.Error(err))
		}
	}
}
