// Package localfs keeps rendered report artifacts on the local disk, one
// file per export job.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type ArtifactStore struct {
	basePath string
}

func New(basePath string) (*ArtifactStore, error) {
	if basePath == "" {
		basePath = "./data/exports"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &ArtifactStore{basePath: basePath}, nil
}

func (s *ArtifactStore) Save(_ context.Context, key string, data io.Reader) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

func (s *ArtifactStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}

// resolve rejects keys that would escape the artifact directory. Keys are
// generated internally (job id plus extension) so anything else is a bug.
func (s *ArtifactStore) resolve(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key != filepath.Base(key) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(s.basePath, key), nil
}
