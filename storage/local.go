// Package storage is the photo-proof object store: flat paths in, public
// URLs out. The backing implementation is a directory on disk served as
// static files, which keeps the upload/getPublicUrl/remove contract without
// an external object store.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// URLPrefix is the route prefix the photo directory is served under.
const URLPrefix = "/photos"

var ErrUnsupportedContentType = errors.New("unsupported content type")

// PhotoStore stores photo objects addressed by bucket-relative paths.
type PhotoStore interface {
	// Save writes the object at path. Only image/jpeg is accepted.
	Save(path string, data []byte, contentType string) error

	// PublicURL returns the URL the object is reachable at after Save.
	PublicURL(path string) string

	// PathFromURL maps a public URL back to its storage path. Returns
	// false for URLs this store did not issue.
	PathFromURL(url string) (string, bool)

	// Remove deletes the given objects. All paths are attempted; the
	// first error is returned.
	Remove(paths []string) error
}

// ProofPath builds the canonical storage path for a completion photo.
func ProofPath(userID string) string {
	return fmt.Sprintf("proofs/%s-%d.jpg", userID, time.Now().UnixMilli())
}

// LocalStore keeps objects under a root directory.
type LocalStore struct {
	root    string
	baseURL string
}

var _ PhotoStore = (*LocalStore)(nil)

// NewLocalStore creates the root directory if needed. baseURL is the
// externally visible server address, without trailing slash.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Root returns the directory objects are stored under, for static serving.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Save(path string, data []byte, contentType string) error {
	if contentType != "image/jpeg" {
		return fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}

	full, err := s.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0700); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0600); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	return nil
}

func (s *LocalStore) PublicURL(path string) string {
	return s.baseURL + URLPrefix + "/" + strings.TrimLeft(path, "/")
}

func (s *LocalStore) PathFromURL(url string) (string, bool) {
	prefix := s.baseURL + URLPrefix + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (s *LocalStore) Remove(paths []string) error {
	var firstErr error
	for _, p := range paths {
		full, err := s.fullPath(p)
		if err == nil {
			err = os.Remove(full)
		}
		if err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// fullPath resolves a storage path inside the root, rejecting traversal.
func (s *LocalStore) fullPath(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if clean == "/" {
		return "", fmt.Errorf("empty object path")
	}
	return filepath.Join(s.root, clean), nil
}
