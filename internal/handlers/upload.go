package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/empdesk/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

const (
	formFieldImage = "image"
	// multipartOverhead bounds the bytes a request may carry beyond the file
	// itself: boundaries, part headers and small text fields.
	multipartOverhead = 64 << 10
)

// UploadResponse is returned after a successful image upload.
type UploadResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
}

// UploadHandler accepts image uploads.
type UploadHandler struct {
	uploadService *services.UploadService
	logger        *slog.Logger
}

func NewUploadHandler(uploadService *services.UploadService, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{
		uploadService: uploadService,
		logger:        logger,
	}
}

// UploadRouter registers the upload route on the given router.
func UploadRouter(r chi.Router, uploadService *services.UploadService, logger *slog.Logger) {
	handler := NewUploadHandler(uploadService, logger)

	r.Post("/", handler.UploadImage)
}

type imageFile struct {
	Filename string
	Data     []byte
}

// UploadImage streams the multipart body, keeps the single "image" part in
// memory (bounded by the size limit) and stores it once the whole request
// has been read.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.uploadService.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	image, err := readImagePart(reader, maxBytes)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.Is(err, services.ErrFileTooLarge), errors.As(err, &maxBytesErr):
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	if image == nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	saved, err := h.uploadService.Save(r.Context(), image.Filename, bytes.NewReader(image.Data))
	if err != nil {
		if errors.Is(err, services.ErrFileTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		h.logger.Error("failed to store image", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	h.logger.Info("image uploaded", "filename", saved.Filename, "bytes", saved.Size)
	writeJSON(w, http.StatusOK, UploadResponse{Success: true, ImageURL: saved.URL})
}

// readImagePart returns the only file sent under the image field, or nil if
// there is none. Other parts are discarded.
func readImagePart(reader *multipart.Reader, maxBytes int64) (*imageFile, error) {
	var image *imageFile
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return image, nil
		}
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				return nil, err
			}
			return nil, errors.New("invalid multipart form")
		}

		if part.FormName() != formFieldImage || part.FileName() == "" {
			_, err := io.Copy(io.Discard, part)
			_ = part.Close()
			if err != nil {
				return nil, err
			}
			continue
		}

		if image != nil {
			_ = part.Close()
			return nil, errors.New("only one image file is allowed")
		}

		data, err := readFileLimited(part, maxBytes)
		_ = part.Close()
		if err != nil {
			return nil, err
		}
		image = &imageFile{Filename: part.FileName(), Data: data}
	}
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, services.ErrFileTooLarge
	}
	return data, nil
}
