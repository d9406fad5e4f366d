package ports

import (
	"context"

	"github.com/aretw0/geosolve/pkg/domain"
)

// ArtifactStore receives exported documents.
type ArtifactStore interface {
	// Put stores the artifact under its filename, replacing any previous one.
	Put(ctx context.Context, artifact domain.Artifact) error

	// Get retrieves an artifact by filename.
	// Returns domain.ErrArtifactNotFound if it does not exist.
	Get(ctx context.Context, filename string) (*domain.Artifact, error)

	// List returns the stored filenames.
	List(ctx context.Context) ([]string, error)
}
