// Package export saves the current output document as a downloadable file.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/geosolve/internal/logging"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/aretw0/geosolve/pkg/ports"
)

// MIME is the content type of exported documents.
const MIME = "application/octet-stream"

// DefinitionSuffix is stripped from the definition name to build the filename.
const DefinitionSuffix = ".gh"

// Filename derives the download name from a definition identifier.
func Filename(definition string) string {
	return strings.TrimSuffix(definition, DefinitionSuffix) + geometry.FileExtension
}

// Artifact serializes doc into a downloadable artifact named after definition.
// It fails with domain.ErrNoDocument when doc is nil or released.
func Artifact(definition string, doc *geometry.Document) (domain.Artifact, error) {
	if doc == nil || doc.Released() {
		return domain.Artifact{}, domain.ErrNoDocument
	}
	data, err := doc.Bytes()
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("failed to serialize document: %w", err)
	}
	return domain.Artifact{
		Filename: Filename(definition),
		MIME:     MIME,
		Data:     data,
	}, nil
}

// Exporter hands artifacts to a save target.
type Exporter struct {
	store  ports.ArtifactStore
	logger *slog.Logger
}

// Option configures the Exporter.
type Option func(*Exporter)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// New creates an Exporter saving to store.
func New(store ports.ArtifactStore, opts ...Option) *Exporter {
	e := &Exporter{
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export serializes doc and saves it.
func (e *Exporter) Export(ctx context.Context, definition string, doc *geometry.Document) (domain.Artifact, error) {
	art, err := Artifact(definition, doc)
	if err != nil {
		return domain.Artifact{}, err
	}
	if err := e.store.Put(ctx, art); err != nil {
		return domain.Artifact{}, fmt.Errorf("failed to save %s: %w", art.Filename, err)
	}
	e.logger.Info("Document exported", "file", art.Filename, "size", len(art.Data), "objects", doc.Count())
	return art, nil
}

// Store returns the save target.
func (e *Exporter) Store() ports.ArtifactStore {
	return e.store
}
