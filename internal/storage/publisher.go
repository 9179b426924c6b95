package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"
)

// Publisher uploads the files of one batch run into a dated run folder
type Publisher struct {
	client StorageClient
	folder string
}

// NewPublisher creates a publisher writing under the run folder of started
func NewPublisher(client StorageClient, started time.Time) *Publisher {
	return &Publisher{
		client: client,
		folder: GenerateRunFolderPath(started),
	}
}

// Folder returns the object prefix of this run
func (p *Publisher) Folder() string {
	return p.folder
}

// Publish uploads localPath as <folder>/<basename> and returns the stored location
func (p *Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read artifact %s: %w", localPath, err)
	}
	return p.client.StoreFile(ctx, path.Join(p.folder, filepath.Base(localPath)), data)
}

// Close closes the underlying storage client
func (p *Publisher) Close() error {
	return p.client.Close()
}
