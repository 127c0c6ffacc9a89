package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMultipartBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("purpose"); got != "transcription" {
			t.Errorf("purpose = %q", got)
		}

		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		if header.Filename != "sample.wav" {
			t.Errorf("Filename = %q", header.Filename)
		}
		if got := header.Header.Get("Content-Type"); got != "audio/wav" {
			t.Errorf("part Content-Type = %q", got)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "RIFFdata" {
			t.Errorf("file content = %q", data)
		}
	}))
	defer srv.Close()

	f := newFetcher(t, Config{BaseURL: srv.URL})
	_, err := f.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/upload",
		Body: &MultipartBody{
			Fields: map[string]string{"purpose": "transcription"},
			Files: []FilePart{{
				FieldName:   "audio",
				FileName:    "sample.wav",
				ContentType: "audio/wav",
				Data:        []byte("RIFFdata"),
			}},
		},
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
}

func TestMultipartBodyFromReader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("doc")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "streamed" {
			t.Errorf("file content = %q", data)
		}
	}))
	defer srv.Close()

	f := newFetcher(t, Config{BaseURL: srv.URL})
	_, err := f.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/upload",
		Body: &MultipartBody{
			Files: []FilePart{{
				FieldName: "doc",
				FileName:  "doc.txt",
				Reader:    strings.NewReader("streamed"),
			}},
		},
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
}

func TestMultipartEncodeContentType(t *testing.T) {
	body := &MultipartBody{Fields: map[string]string{"k": "v"}}
	r, ct, err := body.encode()
	if err != nil {
		t.Fatalf("encode() error = %v", err)
	}
	if !strings.HasPrefix(ct, "multipart/form-data; boundary=") {
		t.Errorf("content type = %q", ct)
	}
	data, _ := io.ReadAll(r)
	if !bytes.Contains(data, []byte(`name="k"`)) {
		t.Errorf("payload missing field part: %q", data)
	}
}
