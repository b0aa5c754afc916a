package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage writes files under root in year/month/day directories.
type LocalStorage struct {
	root      string
	urlPrefix string
	now       func() time.Time
}

func NewLocalStorage(root, urlPrefix string) *LocalStorage {
	if root == "" {
		root = "uploads/screenshots"
	}
	return &LocalStorage{root: root, urlPrefix: urlPrefix, now: time.Now}
}

// Root is the directory served for local files.
func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) Save(_ context.Context, r io.Reader, ext string) (string, error) {
	now := s.now()
	datePath := filepath.Join(now.Format("2006"), now.Format("01"), now.Format("02"))
	fullDir := filepath.Join(s.root, datePath)

	if err := os.MkdirAll(fullDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := uuid.New().String() + strings.ToLower(ext)
	dst := filepath.Join(fullDir, name)

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filepath.ToSlash(filepath.Join(datePath, name)), nil
}

// Remove deletes the file. A file that is already gone is not an error.
func (s *LocalStorage) Remove(_ context.Context, path string) error {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func (s *LocalStorage) URL(path string) string {
	return s.urlPrefix + path
}
