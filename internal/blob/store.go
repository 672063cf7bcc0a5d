// Package blob stores media bytes as flat "<identifier>.<extension>" files
// under one configured root.
//
// File presence is itself protocol state: an existing path means that
// rendition has been produced (or, for originals, that the content is
// already ingested). There is no sidecar metadata and no sharding; the
// public filesystem layout is part of the system's contract.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound reports a probe for a blob that has not been produced.
	// Callers polling for renditions must treat it as "not yet", not as a
	// hard failure.
	ErrNotFound = errors.New("blob not found")
	// ErrAlreadyExists reports a Put against an existing blob; it is the
	// deduplication gate, not a fault.
	ErrAlreadyExists = errors.New("blob already exists")
	// ErrInvalidName reports an identifier or extension that would escape
	// the storage root.
	ErrInvalidName = errors.New("invalid blob name")
)

// Store is a content store rooted at a single directory.
type Store struct {
	root string
}

// NewStore creates the storage root if needed and returns a store over it.
func NewStore(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("blob: storage root must be set")
	}
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// FileName composes the storage name for an (identifier, extension) pair.
func FileName(identifier, ext string) string {
	return identifier + "." + ext
}

// Path returns the absolute path a blob would occupy.
func (s *Store) Path(identifier, ext string) (string, error) {
	if err := validateComponent(identifier); err != nil {
		return "", err
	}
	if err := validateComponent(ext); err != nil {
		return "", err
	}
	return filepath.Join(s.root, FileName(identifier, ext)), nil
}

// Exists reports whether the blob has been stored.
func (s *Store) Exists(identifier, ext string) (bool, error) {
	path, err := s.Path(identifier, ext)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", FileName(identifier, ext), err)
	}
	return true, nil
}

// Put streams src into a new blob and returns its path. It fails with
// ErrAlreadyExists when the target is present; callers rely on that as the
// dedup gate. Seekable sources are rewound first so a spooled download is
// copied from the start rather than from its write cursor.
func (s *Store) Put(identifier, ext string, src io.Reader) (string, error) {
	path, err := s.Path(identifier, ext)
	if err != nil {
		return "", err
	}

	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("rewind source: %w", err)
		}
	}

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%s: %w", FileName(identifier, ext), ErrAlreadyExists)
		}
		return "", fmt.Errorf("create %s: %w", FileName(identifier, ext), err)
	}

	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", FileName(identifier, ext), err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close %s: %w", FileName(identifier, ext), err)
	}
	return path, nil
}

// SizeOf returns the byte size of a stored blob, or ErrNotFound when the
// rendition has not been produced.
func (s *Store) SizeOf(identifier, ext string) (int64, error) {
	path, err := s.Path(identifier, ext)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("%s: %w", FileName(identifier, ext), ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", FileName(identifier, ext), err)
	}
	return info.Size(), nil
}

// Delete removes a blob. Absence of the target is not an error.
func (s *Store) Delete(identifier, ext string) error {
	path, err := s.Path(identifier, ext)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", FileName(identifier, ext), err)
	}
	return nil
}

// Open returns a reader over a stored blob.
func (s *Store) Open(identifier, ext string) (io.ReadCloser, error) {
	path, err := s.Path(identifier, ext)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", FileName(identifier, ext), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", FileName(identifier, ext), err)
	}
	return f, nil
}

func validateComponent(value string) error {
	if value == "" {
		return fmt.Errorf("empty component: %w", ErrInvalidName)
	}
	if strings.ContainsAny(value, "/\\") || strings.Contains(value, "..") {
		return fmt.Errorf("%q: %w", value, ErrInvalidName)
	}
	return nil
}
