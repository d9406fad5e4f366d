package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/geosolve/internal/config"
	"github.com/aretw0/geosolve/internal/logging"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoSolver(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Inputs map[string]any `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		var items []domain.Item
		if lines, ok := body.Inputs["Lines"].([]any); ok {
			for _, l := range lines {
				items = append(items, domain.Item{Type: "Rhino.Geometry.LineCurve", Data: l.(string)})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.SolveResponse{Values: []domain.Output{
			{InnerTree: map[string][]domain.Item{"{0}": items}},
		}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func modelFile(t *testing.T, objects ...geometry.Object) string {
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

func testConfig(t *testing.T, solverURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Solver.URL = solverURL
	cfg.ExportDir = t.TempDir()
	cfg.Viewport.Width, cfg.Viewport.Height = 40, 30
	cfg.Viewport.Supersample = 1
	return cfg
}

func TestParseSets(t *testing.T) {
	values, err := ParseSets([]string{"count=3", "flip=true", " name = x "})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": 3.0, "flip": true, "name": "x"}, values)

	_, err = ParseSets([]string{"novalue"})
	assert.Error(t, err)
	_, err = ParseSets([]string{"=1"})
	assert.Error(t, err)
}

func TestRun_ExportAndFrame(t *testing.T) {
	cfg := testConfig(t, echoSolver(t).URL)
	frame := filepath.Join(t.TempDir(), "frame.png")
	var out bytes.Buffer

	err := Run(context.Background(), RunOptions{
		Config: cfg,
		File:   modelFile(t, &geometry.LineCurve{To: geometry.Vec{1, 1, 0}}),
		Sets:   []string{"count=2"},
		Export: true,
		Frame:  frame,
		Out:    &out,
	}, logging.NewNop())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "1 lines become 1!")
	assert.Contains(t, out.String(), "solving")
	_, err = os.Stat(filepath.Join(cfg.ExportDir, "geo_upload"+geometry.FileExtension))
	assert.NoError(t, err)

	f, err := os.Open(frame)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
}

func TestRun_Errors(t *testing.T) {
	cfg := testConfig(t, echoSolver(t).URL)

	err := Run(context.Background(), RunOptions{Config: cfg, File: "missing.gdm", Quiet: true}, logging.NewNop())
	assert.Error(t, err)

	err = Run(context.Background(), RunOptions{Config: cfg, Sets: []string{"bad"}, Quiet: true}, logging.NewNop())
	assert.Error(t, err)

	var out bytes.Buffer
	err = Run(context.Background(), RunOptions{
		Config: cfg,
		File:   modelFile(t, &geometry.Point{}),
		Out:    &out,
	}, logging.NewNop())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No objects to load!")
}

func TestInspect_JSON(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	var out bytes.Buffer
	path := modelFile(t, &geometry.LineCurve{To: geometry.Vec{1, 0, 0}}, &geometry.Point{})
	require.NoError(t, Inspect(cfg, path, FormatJSON, &out, logging.NewNop()))

	var rep struct {
		Objects int            `json:"objects"`
		Buckets map[string]int `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, 2, rep.Objects)
	assert.Equal(t, 1, rep.Buckets["Points"])
}

func TestInspect_Mermaid(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	var out bytes.Buffer
	path := modelFile(t, &geometry.Point{})
	require.NoError(t, Inspect(cfg, path, FormatMermaid, &out, logging.NewNop()))
	assert.Contains(t, out.String(), "class kind_Point present;")
	assert.Contains(t, out.String(), "def_geo_upload_gh")
}

func TestCreateEngine_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, echoSolver(t).URL)
	cfg.Server.RedisURL = "redis://" + mr.Addr()

	engine, cleanup, err := createEngine(cfg, logging.NewNop())
	require.NoError(t, err)
	defer cleanup()
	defer engine.Close(context.Background())

	sess, err := engine.SolveFile(context.Background(), modelFile(t, &geometry.LineCurve{To: geometry.Vec{1, 0, 0}}), nil)
	require.NoError(t, err)
	_, err = sess.Export(context.Background())
	require.NoError(t, err)

	assert.True(t, mr.Exists("geosolve:artifact:geo_upload"+geometry.FileExtension))
}

func TestCreateEngine_InvalidConfig(t *testing.T) {
	cfg := testConfig(t, "")
	_, _, err := createEngine(cfg, logging.NewNop())
	assert.Error(t, err)

	cfg = testConfig(t, "http://unused")
	cfg.Server.RedisURL = "not a url"
	_, _, err = createEngine(cfg, logging.NewNop())
	assert.Error(t, err)
}
