package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/vastralaya/storefront/internal/auth"
	"github.com/vastralaya/storefront/internal/httpx"
)

// maxUploadSize caps image uploads at 5 MB.
const maxUploadSize = 5 << 20

var allowedUploadTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UploadHandler buffers one multipart image, validates type and size
// synchronously, and stores it under a per-uploader directory. Both
// customers (payment screenshots) and the retailer (product images)
// use it.
type UploadHandler struct {
	Dir     string
	BaseURL string
}

func NewUploadHandler(dir, baseURL string) *UploadHandler {
	return &UploadHandler{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uploader := uploaderScope(r)
	if uploader == "" {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+4096)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "file_too_large", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "no_file_provided", nil)
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		httpx.JSONError(w, http.StatusBadRequest, "file_too_large", nil)
		return
	}
	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedUploadTypes[contentType]
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_file_type", map[string]string{"content_type": contentType})
		return
	}
	// Keep the client's extension only when it is itself an image one.
	// Anything else (.html, .svg, ...) would change how the file server
	// sniffs the stored file, so the validated type wins.
	if e := strings.ToLower(filepath.Ext(header.Filename)); imageExts[e] {
		ext = e
	}

	relPath := filepath.Join(uploader, uuid.NewString()+ext)
	dst := filepath.Join(h.Dir, relPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "upload_failed", nil)
		return
	}
	out, err := os.Create(dst)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "upload_failed", nil)
		return
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		os.Remove(dst)
		httpx.JSONError(w, http.StatusInternalServerError, "upload_failed", nil)
		return
	}

	urlPath := filepath.ToSlash(relPath)
	httpx.JSON(w, http.StatusOK, map[string]string{
		"url":  fmt.Sprintf("%s/uploads/%s", h.BaseURL, urlPath),
		"path": urlPath,
	})
}

// Serve exposes stored files under /uploads/.
func (h *UploadHandler) Serve() http.Handler {
	return http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.Dir)))
}

func uploaderScope(r *http.Request) string {
	if id, ok := auth.CustomerIDFromContext(r.Context()); ok && id != 0 {
		return "customer-" + strconv.FormatUint(uint64(id), 10)
	}
	if _, ok := auth.RetailerFromRequest(r); ok {
		return "retailer"
	}
	return ""
}
