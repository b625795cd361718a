package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"
)

type multipartForm struct {
	buf    *bytes.Buffer
	writer *multipart.Writer
}

func newMultipartForm() *multipartForm {
	buf := &bytes.Buffer{}
	return &multipartForm{buf: buf, writer: multipart.NewWriter(buf)}
}

// jsonPart adds a JSON document as a part with its own content type, the
// way a browser appends a Blob to FormData.
func (f *multipartForm) jsonPart(field string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="blob"`, field))
	h.Set("Content-Type", "application/json")
	part, err := f.writer.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	_, err = part.Write(data)
	return err
}

func (f *multipartForm) file(field string, up Upload) error {
	if up.Reader == nil {
		return fmt.Errorf("upload %s: missing content", field)
	}
	name := filepath.Base(strings.TrimSpace(up.Filename))
	if name == "" || name == "." {
		name = "upload"
	}
	contentType := up.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	h.Set("Content-Type", contentType)
	part, err := f.writer.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	if _, err := io.Copy(part, up.Reader); err != nil {
		return fmt.Errorf("copy %s: %w", field, err)
	}
	return nil
}

func (f *multipartForm) finish() (io.Reader, string, error) {
	if err := f.writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return f.buf, f.writer.FormDataContentType(), nil
}
