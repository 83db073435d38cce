package infra

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrEmptyFilename is returned when the uploaded file has no usable name.
	ErrEmptyFilename = errors.New("empty file name")
	// ErrInvalidFilename is returned for names that would escape the upload dir.
	ErrInvalidFilename = errors.New("invalid file name")
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// FileStore keeps uploaded product images on local disk.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted at it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir is the directory served under /uploads.
func (s *FileStore) Dir() string { return s.dir }

// Save writes r under a collision-resistant name of the form
// "<32 hex chars>_<sanitised original name>" and returns that name.
func (s *FileStore) Save(r io.Reader, originalName string) (string, error) {
	clean := SanitizeFilename(originalName)
	if clean == "" {
		return "", ErrEmptyFilename
	}
	stored := strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + clean

	f, err := os.OpenFile(filepath.Join(s.dir, stored), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return stored, nil
}

// Remove deletes a stored file. Removing a file that is already gone is not
// an error.
func (s *FileStore) Remove(name string) error {
	if !validStoredName(name) {
		return ErrInvalidFilename
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Exists reports whether a stored file is present.
func (s *FileStore) Exists(name string) bool {
	if !validStoredName(name) {
		return false
	}
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}

// StoredFile is one file of the upload directory.
type StoredFile struct {
	Name    string
	ModTime time.Time
}

// List returns the regular files in the store. Names the store could not
// have produced are skipped.
func (s *FileStore) List() ([]StoredFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	files := make([]StoredFile, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !validStoredName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed concurrently
		}
		files = append(files, StoredFile{Name: e.Name(), ModTime: info.ModTime()})
	}
	return files, nil
}

// SanitizeFilename keeps only the base name and replaces anything outside
// [A-Za-z0-9_.-] with "_". Leading dots are stripped so the result can never
// be "." / ".." or a hidden file.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	name = strings.TrimLeft(name, ".")
	return name
}

func validStoredName(name string) bool {
	return name != "" &&
		!strings.ContainsAny(name, `/\`) &&
		name == SanitizeFilename(name)
}
