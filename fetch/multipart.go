package fetch

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// MultipartBody is a multipart/form-data request body. Assign it to
// Request.Body and the client encodes the parts and sets the boundary-
// carrying Content-Type header.
type MultipartBody struct {
	// Fields are plain form fields.
	Fields map[string]string
	// Files are file-upload parts.
	Files []FilePart
}

// FilePart is one uploaded file in a multipart body.
type FilePart struct {
	// FieldName is the form field name.
	FieldName string
	// FileName is the file name presented to the server.
	FileName string
	// ContentType is the part's MIME type. Empty means
	// application/octet-stream.
	ContentType string
	// Data is the file content when Reader is nil.
	Data []byte
	// Reader streams the file content instead of Data.
	Reader io.Reader
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// encode builds the multipart payload and its Content-Type.
func (m *MultipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range m.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	for _, f := range m.Files {
		part, err := m.createPart(w, f)
		if err != nil {
			return nil, "", err
		}
		switch {
		case f.Data != nil:
			_, err = part.Write(f.Data)
		case f.Reader != nil:
			_, err = io.Copy(part, f.Reader)
		}
		if err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// createPart opens a part for one file, honoring a custom content type.
func (m *MultipartBody) createPart(w *multipart.Writer, f FilePart) (io.Writer, error) {
	if f.ContentType == "" {
		return w.CreateFormFile(f.FieldName, f.FileName)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(f.FieldName), quoteEscaper.Replace(f.FileName)))
	header.Set("Content-Type", f.ContentType)
	return w.CreatePart(header)
}
