package media

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/nextslide/deckengine/pkg/errs"
)

// ObjectStore durably persists processed media bytes and returns a URL a
// client can fetch them from. The object store used in production (e.g. an
// S3-compatible bucket) is an external collaborator named only by this
// interface; LocalDiskStore is the development/test implementation.
type ObjectStore interface {
	Upload(ctx context.Context, filename string, data []byte, contentType string) (string, error)
}

// LocalDiskStore writes uploaded media under a root directory and serves
// URLs relative to a configured base URL, for local development and tests
// where no real object storage is configured.
type LocalDiskStore struct {
	root    string
	baseURL string
}

// NewLocalDiskStore builds a LocalDiskStore rooted at dir, producing URLs
// of the form baseURL+"/"+filename.
func NewLocalDiskStore(dir, baseURL string) *LocalDiskStore {
	return &LocalDiskStore{root: dir, baseURL: baseURL}
}

// Upload writes data to <root>/<filename> and returns its served URL.
func (s *LocalDiskStore) Upload(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", errs.New(errs.KindMediaUpload, fmt.Errorf("create media root: %w", err))
	}
	dest := filepath.Join(s.root, filepath.Base(filename))
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", errs.New(errs.KindMediaUpload, fmt.Errorf("write media file: %w", err))
	}
	u := url.URL{Path: s.baseURL + "/" + filepath.Base(filename)}
	return u.String(), nil
}
