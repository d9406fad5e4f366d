package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/geosolve/pkg/domain"
)

// Store implements ports.ArtifactStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Artifact
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Artifact),
	}
}

// Put stores a copy of the artifact.
func (s *Store) Put(ctx context.Context, artifact domain.Artifact) error {
	artifact.Data = slices.Clone(artifact.Data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[artifact.Filename] = artifact
	return nil
}

// Get returns a copy of the stored artifact.
func (s *Store) Get(ctx context.Context, filename string) (*domain.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	art, ok := s.data[filename]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	art.Data = slices.Clone(art.Data)
	return &art, nil
}

// List returns the stored filenames in order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
