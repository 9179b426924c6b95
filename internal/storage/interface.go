package storage

import (
	"context"
)

// StorageClient defines the interface for publishing batch artifacts
type StorageClient interface {
	// Close closes the storage client
	Close() error

	// StoreFile stores data at objectPath and returns its location
	StoreFile(ctx context.Context, objectPath string, data []byte) (string, error)

	// GetFile retrieves the object at objectPath
	GetFile(ctx context.Context, objectPath string) ([]byte, error)

	// ListDir lists object paths under prefix, recursively
	ListDir(ctx context.Context, prefix string) ([]string, error)

	// FileExists checks if an object exists at objectPath
	FileExists(ctx context.Context, objectPath string) (bool, error)
}
