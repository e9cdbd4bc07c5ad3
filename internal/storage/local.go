package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrExists      = errors.New("resume already stored")
	ErrNotFound    = errors.New("resume not found")
	ErrInvalidPath = errors.New("invalid resume reference")
)

// LocalStore keeps resume binaries on disk. Files are written once and never
// replaced; a reference is the file name relative to the store root.
type LocalStore struct {
	dir    string
	logger *zap.Logger
}

func NewLocalStore(dir string, logger *zap.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: abs, logger: logger}, nil
}

// Save writes data under name. It fails with ErrExists rather than replacing
// an existing file. A partially written file is removed.
func (s *LocalStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, name)
		}
		return "", fmt.Errorf("create resume file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write resume file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close resume file: %w", err)
	}

	s.logger.Debug("resume stored", zap.String("ref", name), zap.Int("size", len(data)))
	return name, nil
}

// Open returns a reader for a stored resume and its size.
func (s *LocalStore) Open(ref string) (io.ReadSeekCloser, int64, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, 0, fmt.Errorf("open resume file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat resume file: %w", err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return f, info.Size(), nil
}

// Delete removes a stored resume. Missing files are not an error.
func (s *LocalStore) Delete(ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete resume file: %w", err)
	}
	return nil
}

func (s *LocalStore) resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref != filepath.Base(ref) || ref == "." || ref == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, ref)
	}
	return filepath.Join(s.dir, ref), nil
}
