package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"woundtrack-backend/internal/shared/storage/object"
)

// Store keeps photos on the local filesystem under baseDir.
type Store struct {
	baseDir string
	now     func() time.Time
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

// Save writes the photo to a temp file and renames it into place once complete.
func (s *Store) Save(ctx context.Context, owner string, fileName string, r io.Reader) (object.Stored, error) {
	key, err := object.PhotoKey(owner, fileName, s.now())
	if err != nil {
		return object.Stored{}, err
	}
	if err := ctx.Err(); err != nil {
		return object.Stored{}, err
	}
	contentType, body, err := object.Sniff(r)
	if err != nil {
		return object.Stored{}, err
	}

	dst := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return object.Stored{}, fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return object.Stored{}, fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return object.Stored{}, fmt.Errorf("write photo: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return object.Stored{}, fmt.Errorf("commit photo: %w", err)
	}
	return object.Stored{Key: key, SizeBytes: size, ContentType: contentType}, nil
}

// Open opens a stored photo for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid storage key %q", key)
	}
	f, err := os.Open(filepath.Join(s.baseDir, clean))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", object.ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

var _ object.Store = (*Store)(nil)
