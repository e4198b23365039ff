package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kursadbilgin/freight-etl/internal/domain"
)

// FilesystemStore implements ObjectStore on a local directory tree.
// Containers are top-level directories under the root; keys map to
// relative file paths.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FilesystemStore{root: root}, nil
}

func (s *FilesystemStore) Upload(ctx context.Context, container, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.objectPath(container, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write object %s/%s: %w", container, key, err)
	}
	return nil
}

func (s *FilesystemStore) Download(ctx context.Context, container, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.objectPath(container, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: object %s/%s", domain.ErrNotFound, container, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", container, key, err)
	}
	return data, nil
}

func (s *FilesystemStore) List(ctx context.Context, container, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	containerPath := filepath.Join(s.root, container)
	if _, err := os.Stat(containerPath); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var keys []string
	err := filepath.WalkDir(containerPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(containerPath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects in %s: %w", container, err)
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *FilesystemStore) CreateContainer(ctx context.Context, container string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(container) == "" {
		return fmt.Errorf("container name is required")
	}
	if err := os.MkdirAll(filepath.Join(s.root, container), 0o755); err != nil {
		return fmt.Errorf("failed to create container %s: %w", container, err)
	}
	return nil
}

func (s *FilesystemStore) objectPath(container, key string) (string, error) {
	if strings.TrimSpace(container) == "" {
		return "", fmt.Errorf("container name is required")
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("object key is required")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("object key must not contain path traversal: %q", key)
	}
	return filepath.Join(s.root, container, filepath.FromSlash(key)), nil
}
