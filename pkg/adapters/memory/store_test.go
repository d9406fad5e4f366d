package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/geosolve/pkg/adapters/memory"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunArtifactStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, domain.Artifact{Filename: "x.gdm", Data: data}))
	data[0] = 'z'

	got, err := store.Get(ctx, "x.gdm")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got.Data)

	got.Data[1] = 'z'
	again, err := store.Get(ctx, "x.gdm")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again.Data)
}
