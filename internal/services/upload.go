package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/empdesk/apiserver/types"
)

const (
	maxRandomSuffix    = 1_000_000_000
	maxExtensionLength = 16
)

// ErrFileTooLarge is returned when an upload exceeds the configured limit.
var ErrFileTooLarge = errors.New("file too large")

// ObjectWriter stores uploaded bytes under a key.
type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// UploadedImage describes a stored upload.
type UploadedImage struct {
	Filename string
	Size     int64
	URL      string
}

// UploadService names and stores uploaded images.
type UploadService struct {
	storage  ObjectWriter
	baseURL  string
	maxBytes int64
	events   *EventEmitter
	now      func() time.Time
	randInt  func(n int64) int64
}

// NewUploadService returns a service that writes to storage and builds URLs
// below baseURL + "/uploads/".
func NewUploadService(storage ObjectWriter, baseURL string, maxBytes int64, events *EventEmitter) *UploadService {
	return &UploadService{
		storage:  storage,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		events:   events,
		now:      time.Now,
		randInt:  rand.Int64N,
	}
}

// MaxBytes returns the per-file size limit.
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// Save reads at most MaxBytes from r and stores it under a generated name.
// Nothing is written when the content exceeds the limit.
func (s *UploadService) Save(ctx context.Context, originalName string, r io.Reader) (UploadedImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return UploadedImage{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return UploadedImage{}, ErrFileTooLarge
	}

	filename := s.GenerateFilename(originalName)
	if err := s.storage.Put(ctx, filename, bytes.NewReader(data), int64(len(data)), ContentTypeFor(filename)); err != nil {
		return UploadedImage{}, fmt.Errorf("store upload: %w", err)
	}

	image := UploadedImage{
		Filename: filename,
		Size:     int64(len(data)),
		URL:      s.URLFor(filename),
	}
	s.events.Emit(ctx, types.Event{
		Type:     types.EventImageUploaded,
		ImageURL: image.URL,
	})
	return image, nil
}

// GenerateFilename returns "<unix-millis>-<random>" followed by the original
// extension. Uniqueness is probabilistic.
func (s *UploadService) GenerateFilename(originalName string) string {
	return fmt.Sprintf("%d-%d%s", s.now().UnixMilli(), s.randInt(maxRandomSuffix), safeExtension(originalName))
}

// URLFor returns the public URL of a stored upload.
func (s *UploadService) URLFor(filename string) string {
	return s.baseURL + "/uploads/" + filename
}

// ContentTypeFor infers a content type from the file extension.
func ContentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// safeExtension keeps the client's extension only when it is short and
// alphanumeric, so it can never introduce path elements.
func safeExtension(name string) string {
	ext := filepath.Ext(filepath.Base(strings.ReplaceAll(name, `\`, "/")))
	if len(ext) < 2 || len(ext) > maxExtensionLength {
		return ""
	}
	for _, c := range ext[1:] {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return ""
		}
	}
	return ext
}
