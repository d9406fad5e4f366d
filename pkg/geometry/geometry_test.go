package geometry_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cube() *geometry.Brep {
	return &geometry.Brep{
		Vertices: []geometry.Vec{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
		},
		Faces: [][]int{
			{0, 3, 2, 1}, {4, 5, 6, 7},
			{0, 1, 5, 4}, {1, 2, 6, 5},
			{2, 3, 7, 6}, {3, 0, 4, 7},
		},
	}
}

func TestMarshal_CarriesDiscriminator(t *testing.T) {
	data, err := geometry.Marshal(&geometry.LineCurve{From: geometry.Vec{0, 0, 0}, To: geometry.Vec{1, 2, 3}})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "LineCurve", fields["type"])
	assert.Equal(t, []any{1.0, 2.0, 3.0}, fields["to"])
}

func TestDecode_AllKinds(t *testing.T) {
	objects := []geometry.Object{
		&geometry.Point{Location: geometry.Vec{1, 2, 3}},
		&geometry.LineCurve{From: geometry.Vec{0, 0, 0}, To: geometry.Vec{1, 0, 0}},
		&geometry.PolylineCurve{Points: []geometry.Vec{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}, Closed: true},
		&geometry.Mesh{Vertices: []geometry.Vec{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, Faces: [][3]int{{0, 1, 2}}},
		cube(),
		&geometry.Extrusion{Profile: []geometry.Vec{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, Direction: geometry.Vec{0, 0, 2}, Capped: true},
	}

	for _, obj := range objects {
		t.Run(string(obj.Kind()), func(t *testing.T) {
			data, err := geometry.Marshal(obj)
			require.NoError(t, err)

			got, err := geometry.Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, obj, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := geometry.Decode(map[string]any{"location": []any{1, 2, 3}})
	assert.ErrorIs(t, err, geometry.ErrMissingKind)

	_, err = geometry.Decode(map[string]any{"type": "NurbsSurface"})
	assert.ErrorIs(t, err, geometry.ErrUnknownKind)

	_, err = geometry.Decode(map[string]any{
		"type":     "Mesh",
		"vertices": []any{[]any{0.0, 0.0, 0.0}},
		"faces":    []any{[]any{0.0, 1.0, 2.0}},
	})
	assert.Error(t, err, "face indices out of range must be rejected")
}

func TestCompressMesh_RoundTrip(t *testing.T) {
	m := &geometry.Mesh{
		Vertices: []geometry.Vec{{0, 0, 0}, {1.5, 0, 0}, {0, 1, -2.25}},
		Faces:    [][3]int{{0, 1, 2}},
	}
	s, err := geometry.CompressMesh(m)
	require.NoError(t, err)

	got, err := geometry.DecompressMesh(s)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestDecompressMesh_PlainStrings(t *testing.T) {
	for _, s := range []string{"", "hello world", "abcd", "Zm9vYmFy"} {
		_, err := geometry.DecompressMesh(s)
		assert.ErrorIs(t, err, geometry.ErrNotCompressedMesh, "input %q", s)
	}
}

func TestTessellate(t *testing.T) {
	m, ok := geometry.Tessellate(cube())
	require.True(t, ok)
	assert.Len(t, m.Faces, 12)

	ext := &geometry.Extrusion{Profile: []geometry.Vec{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}, Direction: geometry.Vec{0, 0, 1}, Capped: true}
	m, ok = geometry.Tessellate(ext)
	require.True(t, ok)
	assert.Len(t, m.Vertices, 8)
	assert.Len(t, m.Faces, 8+2+2)

	_, ok = geometry.Tessellate(&geometry.Point{})
	assert.False(t, ok)
}

func TestPolyline_Closed(t *testing.T) {
	pts, ok := geometry.Polyline(&geometry.PolylineCurve{Points: []geometry.Vec{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}, Closed: true})
	require.True(t, ok)
	assert.Len(t, pts, 4)
	assert.Equal(t, pts[0], pts[3])
}

func TestDocument_RoundTrip(t *testing.T) {
	before := geometry.LiveDocuments()

	doc := geometry.NewDocument()
	require.NoError(t, doc.Add(&geometry.Point{Location: geometry.Vec{1, 1, 1}}, nil))
	require.NoError(t, doc.Add(cube(), &geometry.Attributes{Name: "box", Layer: "solids"}))
	require.NoError(t, doc.Add(&geometry.LineCurve{To: geometry.Vec{3, 0, 0}}, nil))

	data, err := doc.Bytes()
	require.NoError(t, err)

	again, err := geometry.ReadDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Count(), again.Count())
	assert.Equal(t, "box", again.Entries()[1].Attributes.Name)
	assert.Equal(t, int64(2), geometry.LiveDocuments()-before)

	doc.Release()
	again.Release()
	assert.Equal(t, before, geometry.LiveDocuments())
}

func TestDocument_Release(t *testing.T) {
	doc := geometry.NewDocument()
	doc.Release()
	doc.Release()

	assert.True(t, doc.Released())
	assert.Equal(t, 0, doc.Count())
	assert.ErrorIs(t, doc.Add(&geometry.Point{}, nil), geometry.ErrReleased)
	_, err := doc.Bytes()
	assert.ErrorIs(t, err, geometry.ErrReleased)
}

func TestReadDocument_Rejects(t *testing.T) {
	before := geometry.LiveDocuments()
	for _, data := range [][]byte{nil, []byte("GDM"), []byte("PK\x03\x04zipfile"), []byte("GDM1garbage")} {
		doc, err := geometry.ReadDocument(data)
		assert.Nil(t, doc)
		assert.ErrorIs(t, err, geometry.ErrNotDocument)
	}
	assert.Equal(t, before, geometry.LiveDocuments())
}

func TestDocument_BoundsSkipsHidden(t *testing.T) {
	doc := geometry.NewDocument()
	defer doc.Release()
	doc.Add(&geometry.Point{Location: geometry.Vec{1, 2, 3}}, nil)
	doc.Add(&geometry.Point{Location: geometry.Vec{100, 100, 100}}, &geometry.Attributes{Mode: geometry.ModeHidden})

	box := doc.Bounds()
	assert.Equal(t, float32(1), box.Max.X)
	assert.Equal(t, float32(3), box.Max.Z)
}

// oversized compresses one byte more than MaxDecodedSize of zeros into a
// payload of a few kilobytes.
func oversized(t *testing.T) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	packed := enc.EncodeAll(make([]byte, geometry.MaxDecodedSize+1), nil)
	require.Less(t, len(packed), 1<<20)
	return packed
}

func TestDecodedSizeIsBounded(t *testing.T) {
	packed := oversized(t)

	before := geometry.LiveDocuments()
	doc, err := geometry.ReadDocument(append([]byte("GDM1"), packed...))
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, geometry.ErrNotDocument)
	assert.Equal(t, before, geometry.LiveDocuments())

	mesh, err := geometry.DecompressMesh(base64.StdEncoding.EncodeToString(packed))
	assert.Nil(t, mesh)
	assert.ErrorIs(t, err, geometry.ErrNotCompressedMesh)
}
