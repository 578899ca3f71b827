// Package staging keeps rendered export files on local disk between creation
// and delivery, and purges them afterwards.
package staging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ArtifactStore = (*Store)(nil)

// ErrInvalidName is returned for file names that are not a single path element.
var ErrInvalidName = errors.New("invalid staged file name")

// Store is a directory of staged export files shared by concurrent exports.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates the staging directory if needed, readable by the owner only.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir %s: %w", dir, err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the staging directory.
func (s *Store) Dir() string {
	return s.dir
}

// Stage writes content to filename atomically: readers never observe a
// partially written file.
func (s *Store) Stage(ctx context.Context, filename string, content []byte) (string, error) {
	path, err := s.path(filename)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return "", fmt.Errorf("stage %s: %w", filename, err)
	}
	return path, nil
}

// Open returns the staged file and its size.
func (s *Store) Open(filename string) (io.ReadSeekCloser, int64, error) {
	path, err := s.path(filename)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, fmt.Errorf("%s: %w", filename, driven.ErrArtifactNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", filename, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat %s: %w", filename, err)
	}

	return f, info.Size(), nil
}

// Remove deletes a staged file. A file that is already gone is not an error.
func (s *Store) Remove(filename string) error {
	path, err := s.path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", filename, err)
	}
	return nil
}

// RemoveOlderThan deletes every regular file last modified more than age ago
// and returns how many were removed.
func (s *Store) RemoveOlderThan(age time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read staging dir: %w", err)
	}

	cutoff := s.now().Add(-age)
	removed := 0
	var errs []error

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}

func (s *Store) path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) ||
		strings.HasPrefix(filename, ".") || strings.ContainsAny(filename, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}
	return filepath.Join(s.dir, filename), nil
}
