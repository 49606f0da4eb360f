package testutil

import (
	"bytes"
	"mime/multipart"
)

// FormFile is one file part of a multipart body.
type FormFile struct {
	Field   string
	Name    string
	Content []byte
}

// MultipartBody encodes fields and files as multipart/form-data and returns the body with
// its content type.
func MultipartBody(fields map[string]string, files ...FormFile) (*bytes.Buffer, string) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		writer.WriteField(k, v)
	}
	for _, f := range files {
		field := f.Field
		if field == "" {
			field = "files"
		}
		part, _ := writer.CreateFormFile(field, f.Name)
		part.Write(f.Content)
	}
	writer.Close()

	return body, writer.FormDataContentType()
}
