package geosolve_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/geosolve"
	"github.com/aretw0/geosolve/pkg/adapters/file"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, objects ...geometry.Object) string {
	t.Helper()
	doc := geometry.NewDocument()
	defer doc.Release()
	for _, o := range objects {
		require.NoError(t, doc.Add(o, nil))
	}
	data, err := doc.Bytes()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model"+geometry.FileExtension)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// echoSolver answers every request with the uploaded curves, plus one
// compressed mesh.
func echoSolver(t *testing.T, got *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Definition string         `json:"definition"`
			Inputs     map[string]any `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		*got = body.Inputs

		var items []domain.Item
		if lines, ok := body.Inputs["Lines"].([]any); ok {
			for _, l := range lines {
				items = append(items, domain.Item{Type: "Rhino.Geometry.LineCurve", Data: l.(string)})
			}
		}
		mesh, err := geometry.CompressMesh(&geometry.Mesh{
			Vertices: []geometry.Vec{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}},
			Faces:    [][3]int{{0, 1, 2}},
		})
		require.NoError(t, err)
		quoted, err := json.Marshal(mesh)
		require.NoError(t, err)
		items = append(items, domain.Item{Type: domain.TypeString, Data: string(quoted)})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.SolveResponse{Values: []domain.Output{
			{ParamName: "RH_OUT:geo", InnerTree: map[string][]domain.Item{"{0;0}": items}},
		}})
	}))
}

func TestFacade_SolveFile(t *testing.T) {
	var inputs map[string]any
	srv := echoSolver(t, &inputs)
	defer srv.Close()

	exportDir := t.TempDir()
	eng, err := geosolve.New(srv.URL,
		geosolve.WithPreset("geo_upload"),
		geosolve.WithArtifactStore(file.New(exportDir)),
	)
	require.NoError(t, err)
	ctx := context.Background()
	defer eng.Close(ctx)

	path := writeModel(t,
		&geometry.LineCurve{To: geometry.Vec{1, 0, 0}},
		&geometry.LineCurve{To: geometry.Vec{0, 1, 0}},
		&geometry.Point{Location: geometry.Vec{1, 1, 1}},
	)
	sess, err := eng.SolveFile(ctx, path, map[string]any{"count": 4.0})
	require.NoError(t, err)

	assert.Len(t, inputs["Lines"], 2)
	assert.Len(t, inputs["Points"], 1)
	assert.Equal(t, []any{}, inputs["Breps"])
	assert.Equal(t, 4.0, inputs["count"])

	st := sess.Status()
	assert.Equal(t, "2 lines become 3!", st.Message)
	assert.True(t, st.ExportEnabled)
	assert.False(t, st.Busy)

	art, err := sess.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "geo_upload"+geometry.FileExtension, art.Filename)
	_, err = os.Stat(filepath.Join(exportDir, art.Filename))
	assert.NoError(t, err)
}

func TestFacade_Inspect(t *testing.T) {
	eng, err := geosolve.New("http://unused")
	require.NoError(t, err)

	rep, err := eng.Inspect(writeModel(t,
		&geometry.LineCurve{To: geometry.Vec{1, 2, 3}},
		&geometry.Mesh{Vertices: []geometry.Vec{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, Faces: [][3]int{{0, 1, 2}}},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Objects)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 1, rep.Buckets["Lines"])
	assert.Equal(t, 0, rep.Buckets["Breps"])
	assert.Equal(t, 1, rep.Kinds[geometry.KindMesh])
	assert.False(t, rep.Empty)
	assert.Equal(t, [3]float32{1, 2, 3}, rep.Bounds[1])

	bad := filepath.Join(t.TempDir(), "bad.gdm")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))
	_, err = eng.Inspect(bad)
	assert.ErrorIs(t, err, domain.ErrBadInputFile)
}

func TestNew_Validation(t *testing.T) {
	_, err := geosolve.New("")
	assert.Error(t, err)

	_, err = geosolve.New("http://unused", geosolve.WithPreset("nope"))
	assert.Error(t, err)
}
