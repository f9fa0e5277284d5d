package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/empdesk/apiserver/internal/services"
	"github.com/empdesk/apiserver/internal/storage"
	"github.com/go-chi/chi/v5"
)

// ObjectReader opens stored uploads by key.
type ObjectReader interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// FileHandler serves previously uploaded files.
type FileHandler struct {
	objects ObjectReader
	logger  *slog.Logger
}

func NewFileHandler(objects ObjectReader, logger *slog.Logger) *FileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileHandler{objects: objects, logger: logger}
}

// FileRouter registers read-only routes for uploaded files. There is no
// listing route.
func FileRouter(r chi.Router, objects ObjectReader, logger *slog.Logger) {
	handler := NewFileHandler(objects, logger)

	r.Get("/{filename}", handler.ServeFile)
}

func (h *FileHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if !storage.ValidKey(name) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	rc, err := h.objects.Get(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		h.logger.Error("failed to open upload", "filename", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", services.ContentTypeFor(name))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if rs, ok := rc.(io.ReadSeeker); ok {
		var modTime time.Time
		if f, ok := rc.(*os.File); ok {
			if info, err := f.Stat(); err == nil {
				modTime = info.ModTime()
			}
		}
		http.ServeContent(w, r, name, modTime, rs)
		return
	}

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream upload", "filename", name, "error", err)
	}
}
