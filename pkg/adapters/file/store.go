package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/geosolve/pkg/domain"
)

// ErrInvalidFilename is returned for names that would escape the base directory.
var ErrInvalidFilename = errors.New("invalid filename: path traversal detected")

const defaultMIME = "application/octet-stream"

// Store implements ports.ArtifactStore using the local filesystem.
// Each artifact is a file named after it in BasePath.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".geosolve/exports".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".geosolve", "exports")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." ||
		filepath.Base(filename) != filename || strings.ContainsAny(filename, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	path := filepath.Join(s.BasePath, filename)
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(s.BasePath)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return path, nil
}

// Put writes the artifact atomically: to a temporary file first, then renamed
// over the destination.
func (s *Store) Put(ctx context.Context, artifact domain.Artifact) error {
	destPath, err := s.path(artifact.Filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure export directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*-"+artifact.Filename)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(artifact.Data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename does not replace an existing file on Windows.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing export for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Get reads an artifact back.
func (s *Store) Get(ctx context.Context, filename string) (*domain.Artifact, error) {
	path, err := s.path(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	return &domain.Artifact{Filename: filename, MIME: defaultMIME, Data: data}, nil
}

// List returns the stored filenames, skipping temporary files.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "tmp-") {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}
