package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/geosolve/pkg/adapters/file"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunArtifactStoreContract(t, store)
}

func TestFileStore_WritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	store := file.New(dir)

	require.NoError(t, store.Put(context.Background(), domain.Artifact{Filename: "geo_upload.gdm", Data: []byte("GDM1")}))

	data, err := os.ReadFile(filepath.Join(dir, "geo_upload.gdm"))
	require.NoError(t, err)
	assert.Equal(t, []byte("GDM1"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files should remain")
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"../escape.gdm", "a/b.gdm", "..", ""} {
		err := store.Put(ctx, domain.Artifact{Filename: name, Data: []byte("x")})
		assert.ErrorIs(t, err, file.ErrInvalidFilename, name)

		_, err = store.Get(ctx, name)
		assert.ErrorIs(t, err, file.ErrInvalidFilename, name)
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}
