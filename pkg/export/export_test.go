package export_test

import (
	"context"
	"testing"

	"github.com/aretw0/geosolve/pkg/adapters/memory"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/export"
	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	assert.Equal(t, "geo_upload.gdm", export.Filename("geo_upload.gh"))
	assert.Equal(t, "model.gdm", export.Filename("model"))
	assert.Equal(t, "a.gh.gdm", export.Filename("a.gh.gh"))
}

func TestExport_RoundTrip(t *testing.T) {
	doc := geometry.NewDocument()
	defer doc.Release()
	require.NoError(t, doc.Add(&geometry.Point{Location: geometry.Vec{1, 2, 3}}, nil))
	require.NoError(t, doc.Add(&geometry.LineCurve{To: geometry.Vec{1, 0, 0}}, nil))

	store := memory.NewStore()
	art, err := export.New(store).Export(context.Background(), "uploadmeshparam.gh", doc)
	require.NoError(t, err)
	assert.Equal(t, "uploadmeshparam.gdm", art.Filename)
	assert.Equal(t, export.MIME, art.MIME)

	saved, err := store.Get(context.Background(), "uploadmeshparam.gdm")
	require.NoError(t, err)

	again, err := geometry.ReadDocument(saved.Data)
	require.NoError(t, err)
	defer again.Release()
	assert.Equal(t, doc.Count(), again.Count())
}

func TestExport_NoDocument(t *testing.T) {
	store := memory.NewStore()
	_, err := export.New(store).Export(context.Background(), "d.gh", nil)
	assert.ErrorIs(t, err, domain.ErrNoDocument)

	doc := geometry.NewDocument()
	doc.Release()
	_, err = export.Artifact("d.gh", doc)
	assert.ErrorIs(t, err, domain.ErrNoDocument)

	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}
