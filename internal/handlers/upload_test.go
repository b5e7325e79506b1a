package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func multipartUpload(t *testing.T, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	return multipartUploadNamed(t, "photo.png", contentType, payload)
}

func multipartUploadNamed(t *testing.T, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, mw.FormDataContentType()
}

func TestUploadStoresFile(t *testing.T) {
	dir := t.TempDir()
	h := NewUploadHandler(dir, "http://localhost:8080")

	body, ct := multipartUpload(t, "image/png", []byte("pngdata"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	req = asCustomer(req, 7)
	w := httptest.NewRecorder()
	h.Upload(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var out struct {
		URL  string `json:"url"`
		Path string `json:"path"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(out.Path, "customer-7/") || !strings.HasSuffix(out.Path, ".png") {
		t.Fatalf("unexpected stored path %q", out.Path)
	}
	if !strings.HasPrefix(out.URL, "http://localhost:8080/uploads/") {
		t.Fatalf("unexpected url %q", out.URL)
	}
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(out.Path)))
	if err != nil {
		t.Fatalf("stored file: %v", err)
	}
	if string(data) != "pngdata" {
		t.Fatalf("stored content mismatch: %q", data)
	}
}

func TestUploadIgnoresNonImageFilenameExtension(t *testing.T) {
	dir := t.TempDir()
	h := NewUploadHandler(dir, "http://localhost:8080")

	// A declared image type with a hostile filename must not produce a
	// stored .html the file server would hand back as text/html.
	body, ct := multipartUploadNamed(t, "evil.html", "image/png", []byte("<script>alert(1)</script>"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	req = asCustomer(req, 7)
	w := httptest.NewRecorder()
	h.Upload(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var out struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasSuffix(out.Path, ".png") {
		t.Fatalf("expected .png suffix, got %q", out.Path)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(out.Path))); err != nil {
		t.Fatalf("stored file: %v", err)
	}
}

func TestUploadKeepsImageFilenameExtension(t *testing.T) {
	h := NewUploadHandler(t.TempDir(), "http://localhost:8080")

	body, ct := multipartUploadNamed(t, "PHOTO.JPEG", "image/jpeg", []byte("jpegdata"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	req = asCustomer(req, 7)
	w := httptest.NewRecorder()
	h.Upload(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasSuffix(out.Path, ".jpeg") {
		t.Fatalf("expected .jpeg suffix, got %q", out.Path)
	}
}

func TestUploadRejectsUnknownType(t *testing.T) {
	h := NewUploadHandler(t.TempDir(), "http://localhost:8080")

	body, ct := multipartUpload(t, "application/pdf", []byte("%PDF-"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	req = asCustomer(req, 1)
	w := httptest.NewRecorder()
	h.Upload(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_file_type") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestUploadRejectsOversize(t *testing.T) {
	h := NewUploadHandler(t.TempDir(), "http://localhost:8080")

	big := bytes.Repeat([]byte("a"), 5<<20+1)
	body, ct := multipartUpload(t, "image/jpeg", big)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	req = asCustomer(req, 1)
	w := httptest.NewRecorder()
	h.Upload(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "file_too_large") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestUploadRequiresAuth(t *testing.T) {
	h := NewUploadHandler(t.TempDir(), "http://localhost:8080")

	body, ct := multipartUpload(t, "image/png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.Upload(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
}
