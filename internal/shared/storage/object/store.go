package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"

	"woundtrack-backend/internal/shared/util"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Stored describes an object written by a Store.
type Stored struct {
	Key         string
	SizeBytes   int64
	ContentType string
}

// Store defines the contract for saving and retrieving wound photos.
type Store interface {
	Save(ctx context.Context, owner string, fileName string, r io.Reader) (Stored, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// PhotoKey builds "<owner hash>/<yyyy-mm>/<uuid>_<name>" for a new photo.
func PhotoKey(owner, fileName string, at time.Time) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(util.OwnerKey(owner), at.UTC().Format("2006-01"), uuid.NewString()+"_"+name), nil
}

// Sniff detects the content type from the first 512 bytes and returns a reader
// that still yields the whole stream.
func Sniff(r io.Reader) (string, io.Reader, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	return http.DetectContentType(head[:n]), io.MultiReader(bytes.NewReader(head[:n]), r), nil
}

// CountingReader counts bytes read through it.
type CountingReader struct {
	R io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)
	return n, err
}
