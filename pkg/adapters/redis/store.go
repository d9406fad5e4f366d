package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/geosolve/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.ArtifactStore using Redis hashes, so that every
// replica can serve a download.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for artifacts.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for artifacts.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "geosolve:artifact:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client returns the underlying Redis client.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(filename string) string {
	return s.prefix + filename
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Put stores the artifact and records it in the index.
func (s *Store) Put(ctx context.Context, artifact domain.Artifact) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(artifact.Filename))
	pipe.HSet(ctx, s.key(artifact.Filename), "mime", artifact.MIME, "data", artifact.Data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(artifact.Filename), s.ttl)
	}

	// Score is the expiry time so stale index entries can be trimmed.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: artifact.Filename})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save artifact to redis: %w", err)
	}
	return nil
}

// Get retrieves an artifact.
func (s *Store) Get(ctx context.Context, filename string) (*domain.Artifact, error) {
	fields, err := s.client.HGetAll(ctx, s.key(filename)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact from redis: %w", err)
	}
	data, ok := fields["data"]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	return &domain.Artifact{Filename: filename, MIME: fields["mime"], Data: []byte(data)}, nil
}

// List returns the filenames of artifacts that have not expired.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("failed to trim artifact index: %w", err)
	}
	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return names, nil
}
