package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const tempDirName = ".tmp"

// LocalStorage implements the Storage interface for local file system.
// Temp files live in a hidden directory under basePath on the same
// filesystem so the final rename is atomic.
type LocalStorage struct {
	basePath string
	tempPath string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	tempPath := filepath.Join(basePath, tempDirName)

	// Ensure base and temp paths exist
	if err := os.MkdirAll(tempPath, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, tempPath: tempPath}, nil
}

// WriteTemp streams content into a fresh temp file and fsyncs it.
func (s *LocalStorage) WriteTemp(ctx context.Context, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := os.CreateTemp(s.tempPath, "upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := file.Name()

	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write file content: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	return filepath.Base(tmpName), nil
}

// Move renames the temp file onto its final key.
func (s *LocalStorage) Move(ctx context.Context, tempHandle, key string) error {
	tmpFull, err := s.tempFullPath(tempHandle)
	if err != nil {
		return err
	}

	fullPath, err := s.fullPath(key)
	if err != nil {
		os.Remove(tmpFull)
		return err
	}

	if err := ctx.Err(); err != nil {
		os.Remove(tmpFull)
		return err
	}

	if err := os.Rename(tmpFull, fullPath); err != nil {
		os.Remove(tmpFull)
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	// The rename is only durable once the directory entry is on disk.
	if err := syncDir(s.basePath); err != nil {
		return fmt.Errorf("failed to sync storage directory: %w", err)
	}
	return nil
}

// Open retrieves a file from the local file system.
func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Exists checks whether a file is stored under key.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullPath)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
}

// Remove removes a file from the local file system.
func (s *LocalStorage) Remove(ctx context.Context, key string) error {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// fullPath resolves a key to a path directly under basePath. Keys are flat
// names: no separators, no leading dot.
func (s *LocalStorage) fullPath(key string) (string, error) {
	if !validName(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.basePath, key), nil
}

func (s *LocalStorage) tempFullPath(handle string) (string, error) {
	if !validName(handle) {
		return "", fmt.Errorf("%w: temp handle %q", ErrInvalidKey, handle)
	}
	return filepath.Join(s.tempPath, handle), nil
}

func syncDir(path string) error {
	dir, err := os.Open(path)
	if err != nil {
		return err
	}
	if err := dir.Sync(); err != nil {
		dir.Close()
		return err
	}
	return dir.Close()
}

func validName(name string) bool {
	return name != "" &&
		!strings.HasPrefix(name, ".") &&
		!strings.ContainsAny(name, `/\`) &&
		filepath.Base(name) == name
}
