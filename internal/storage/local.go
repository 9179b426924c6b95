package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// LocalStorageClient publishes artifacts into a directory tree
type LocalStorageClient struct {
	baseDir string
}

// NewLocalStorageClient creates a new local storage client
func NewLocalStorageClient(baseDir string) (*LocalStorageClient, error) {
	if baseDir == "" {
		baseDir = "published"
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory %s: %w", baseDir, err)
	}

	return &LocalStorageClient{
		baseDir: baseDir,
	}, nil
}

// Close is a no-op for local storage
func (l *LocalStorageClient) Close() error {
	return nil
}

func (l *LocalStorageClient) path(objectPath string) string {
	return filepath.Join(l.baseDir, filepath.FromSlash(objectPath))
}

// StoreFile writes data below the base directory, creating parent directories
func (l *LocalStorageClient) StoreFile(ctx context.Context, objectPath string, data []byte) (string, error) {
	filePath := l.path(objectPath)

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", filePath, err)
	}

	return filePath, nil
}

// GetFile reads an object from local storage
func (l *LocalStorageClient) GetFile(ctx context.Context, objectPath string) ([]byte, error) {
	data, err := os.ReadFile(l.path(objectPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", objectPath, err)
	}
	return data, nil
}

// ListDir walks prefix and returns slash separated object paths in lexical order
func (l *LocalStorageClient) ListDir(ctx context.Context, prefix string) ([]string, error) {
	root := l.path(prefix)

	var objects []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.baseDir, path)
		if err != nil {
			return err
		}
		objects = append(objects, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(objects)
	return objects, nil
}

// FileExists checks if an object exists in local storage
func (l *LocalStorageClient) FileExists(ctx context.Context, objectPath string) (bool, error) {
	_, err := os.Stat(l.path(objectPath))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
