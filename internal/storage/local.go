package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalClient stores objects as files in a directory on local disk.
type LocalClient struct {
	dir string
}

// NewLocalClient constructs a client rooted at dir.
func NewLocalClient(dir string) (*LocalClient, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload directory is required")
	}
	return &LocalClient{dir: filepath.Clean(dir)}, nil
}

// EnsureBucket creates the upload directory if it is missing.
func (l *LocalClient) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(l.dir, 0o755)
}

// Put writes the object to a temporary file and renames it into place so
// readers never observe a partial file.
func (l *LocalClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	dst, err := l.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}

// Get opens the object file. The returned reader is an *os.File.
func (l *LocalClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, ErrNotFound
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

// Bucket returns the upload directory.
func (l *LocalClient) Bucket() string {
	return l.dir
}

func (l *LocalClient) path(key string) (string, error) {
	if !ValidKey(key) {
		return "", errors.New("invalid object key")
	}
	return filepath.Join(l.dir, key), nil
}

// ValidKey reports whether key is a plain file name: non-empty, no path
// separators, not a dot entry and not hidden.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return false
	}
	return !strings.HasPrefix(key, ".")
}
