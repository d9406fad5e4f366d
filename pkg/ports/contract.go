package ports

import (
	"context"
	"testing"

	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunArtifactStoreContract runs a suite of tests to verify that an ArtifactStore
// implementation adheres to the defined interface contract.
func RunArtifactStoreContract(t *testing.T, store ArtifactStore) {
	ctx := context.Background()

	t.Run("Put and Get", func(t *testing.T) {
		art := domain.Artifact{Filename: "contract.gdm", MIME: "application/octet-stream", Data: []byte{1, 2, 3}}
		require.NoError(t, store.Put(ctx, art), "Put should not return error")

		got, err := store.Get(ctx, "contract.gdm")
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, art.Data, got.Data)
		assert.Equal(t, "contract.gdm", got.Filename)
	})

	t.Run("Put Replaces", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, domain.Artifact{Filename: "replace.gdm", Data: []byte("old")}))
		require.NoError(t, store.Put(ctx, domain.Artifact{Filename: "replace.gdm", Data: []byte("new")}))

		got, err := store.Get(ctx, "replace.gdm")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), got.Data)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "missing.gdm")
		assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, domain.Artifact{Filename: "a.gdm", Data: []byte("a")}))
		require.NoError(t, store.Put(ctx, domain.Artifact{Filename: "b.gdm", Data: []byte("b")}))

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, "a.gdm")
		assert.Contains(t, names, "b.gdm")
	})
}
