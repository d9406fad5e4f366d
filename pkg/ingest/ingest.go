// Package ingest turns an uploaded model document into request geometry.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/geosolve/internal/logging"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/geometry"
)

// DefaultMaxSize bounds the size of an uploaded file.
const DefaultMaxSize = geometry.MaxDecodedSize

// Result is the outcome of ingesting one file.
type Result struct {
	// Buckets maps input names to serialized objects. Every bucket of the
	// table is present, possibly empty.
	Buckets map[string][]string
	// Objects is the number of objects in the uploaded document.
	Objects int
	// Skipped counts objects no rule matched.
	Skipped int
}

// Count returns the number of entries in a bucket.
func (r *Result) Count(bucket string) int {
	return len(r.Buckets[bucket])
}

// Ingestor reads documents and classifies their objects.
type Ingestor struct {
	table   Table
	maxSize int64
	logger  *slog.Logger
}

// Option configures the Ingestor.
type Option func(*Ingestor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Ingestor) {
		i.logger = logger
	}
}

// WithMaxSize bounds the accepted file size in bytes.
func WithMaxSize(n int64) Option {
	return func(i *Ingestor) {
		i.maxSize = n
	}
}

// New creates an Ingestor for the given classification table.
func New(table Table, opts ...Option) *Ingestor {
	i := &Ingestor{
		table:   table,
		maxSize: DefaultMaxSize,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Table returns the classification table in use.
func (i *Ingestor) Table() Table {
	return i.table
}

// Ingest reads r fully, decodes it and classifies its objects.
// Undecodable input yields domain.ErrBadInputFile.
func (i *Ingestor) Ingest(ctx context.Context, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, i.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > i.maxSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrBadInputFile, i.maxSize)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := geometry.ReadDocument(data)
	if err != nil {
		i.logger.Warn("Upload rejected", "size", len(data), "err", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrBadInputFile, err)
	}
	defer doc.Release()

	return i.Classify(doc)
}

// IngestFile opens path and ingests it.
func (i *Ingestor) IngestFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return i.Ingest(ctx, f)
}

// Classify serializes every object of doc into the buckets it matches.
func (i *Ingestor) Classify(doc *geometry.Document) (*Result, error) {
	res := &Result{Buckets: make(map[string][]string)}
	for _, name := range i.table.Buckets() {
		res.Buckets[name] = []string{}
	}

	for _, e := range doc.Entries() {
		res.Objects++
		buckets := i.table.Match(e.Geometry.Kind())
		if len(buckets) == 0 {
			res.Skipped++
			continue
		}
		data, err := geometry.Marshal(e.Geometry)
		if err != nil {
			return nil, err
		}
		for _, b := range buckets {
			res.Buckets[b] = append(res.Buckets[b], string(data))
		}
	}

	i.logger.Debug("Upload classified", "objects", res.Objects, "skipped", res.Skipped)
	return res, nil
}
