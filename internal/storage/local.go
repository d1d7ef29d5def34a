package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalArchiver copies captures into a directory on the local filesystem
type LocalArchiver struct {
	dir string
}

// NewLocalArchiver creates dir if needed.
func NewLocalArchiver(dir string) (*LocalArchiver, error) {
	if dir == "" {
		return nil, errors.New("archive directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalArchiver{dir: dir}, nil
}

// Archive copies localPath into the archive directory
func (a *LocalArchiver) Archive(ctx context.Context, localPath string) (string, error) {
	dst := filepath.Join(a.dir, filepath.Base(localPath))
	if sameFile(localPath, dst) {
		return dst, nil
	}
	if err := copyFile(localPath, dst); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", localPath, err)
	}
	return dst, nil
}

// Fetch copies an archived file back out
func (a *LocalArchiver) Fetch(ctx context.Context, location, destPath string) error {
	if err := copyFile(location, destPath); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", location, err)
	}
	return nil
}

func sameFile(a, b string) bool {
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(sa, sb)
}
