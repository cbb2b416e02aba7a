// Package blob implements the filesystem blob store that holds encoded
// image bytes. Blobs are addressed by generated, date-bucketed keys such as
// photos/2026/08/foto-5f3a....jpg, so concurrent writers never collide.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates that no blob exists under the requested key.
var ErrNotFound = errors.New("blob: not found")

// Store persists blobs under a root directory on the local filesystem.
type Store struct {
	root string
}

// NewStore initialises a blob store rooted at dir, creating it if necessary.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob: root directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root: %w", err)
	}
	return &Store{root: dir}, nil
}

// NewKey generates a globally-unique storage key for a photo uploaded at now,
// preserving the original file extension.
func NewKey(now time.Time, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	return fmt.Sprintf("photos/%s/foto-%s.%s", now.Format("2006/01"), uuid.NewString(), ext)
}

// Put writes data under key, creating intermediate directories as needed.
func (s *Store) Put(key string, data []byte) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("blob: put %s: %w", key, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("blob: put %s: %w", key, err)
	}
	return nil
}

// Open returns a reader over the blob stored under key. The caller must close
// the returned reader.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob: open %s: %w", key, err)
	}
	return f, nil
}

// Exists reports whether a blob is stored under key.
func (s *Store) Exists(key string) bool {
	full, err := s.resolve(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// Delete removes the blob stored under key. Deleting a missing blob returns
// ErrNotFound.
func (s *Store) Delete(key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("blob: delete %s: %w", key, err)
	}
	return nil
}

// resolve maps a key onto the filesystem, rejecting anything that would
// escape the root directory.
func (s *Store) resolve(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("blob: empty key")
	}

	clean := path.Clean(key)
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", fmt.Errorf("blob: invalid key %q", key)
	}

	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
