package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/geosolve"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoSolver struct{}

func (echoSolver) Solve(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
	var items []domain.Item
	for _, data := range req.Geometry["Lines"] {
		items = append(items, domain.Item{Type: "Rhino.Geometry.LineCurve", Data: data})
	}
	return &domain.SolveResponse{Values: []domain.Output{{InnerTree: map[string][]domain.Item{"{0}": items}}}}, nil
}

func newServer(t *testing.T) *Server {
	t.Helper()
	eng, err := geosolve.New("", geosolve.WithSolver(echoSolver{}))
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close(context.Background()) })
	return NewServer(eng)
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

func TestSolveFile(t *testing.T) {
	s := newServer(t)
	path := modelFile(t, &geometry.LineCurve{To: geometry.Vec{1, 0, 0}})

	resp, err := s.handleSolveFile(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"path":   path,
		"values": `{"count": 2}`,
		"export": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "1 lines become 1!", resp.Status.Message)
	assert.Equal(t, "geo_upload"+geometry.FileExtension, resp.Artifact)
	assert.Empty(t, resp.Warning)

	ctrls, err := s.handleListControls(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"session_id": resp.Status.SessionID,
	})
	require.NoError(t, err)
	require.Len(t, ctrls.Controls, 1)
	assert.Equal(t, "count", ctrls.Controls[0].ID)
	assert.Equal(t, 2.0, ctrls.Controls[0].Value)
}

func TestSolveFile_EmptyResultIsWarning(t *testing.T) {
	s := newServer(t)
	path := modelFile(t, &geometry.Point{})

	resp, err := s.handleSolveFile(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"path": path})
	require.NoError(t, err)
	assert.Equal(t, domain.ErrEmptyResult.Error(), resp.Warning)
	assert.False(t, resp.Status.ExportEnabled)
}

func TestSolveFile_Errors(t *testing.T) {
	s := newServer(t)

	_, err := s.handleSolveFile(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
	assert.Error(t, err)

	_, err = s.handleSolveFile(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"path":   "x.gdm",
		"values": "[1,2]",
	})
	assert.Error(t, err)

	_, err = s.handleSolveFile(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "missing.gdm"),
	})
	assert.Error(t, err)
}

func TestSetInputs(t *testing.T) {
	s := newServer(t)
	path := modelFile(t, &geometry.LineCurve{To: geometry.Vec{1, 0, 0}})
	first, err := s.handleSolveFile(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"path":   path,
		"values": `{"count": 2}`,
	})
	require.NoError(t, err)
	id := first.Status.SessionID

	resp, err := s.handleSetInputs(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"session_id": id,
		"values":     `{"count": 5}`,
	})
	require.NoError(t, err)
	assert.Greater(t, resp.Status.Generation, first.Status.Generation)

	_, err = s.handleSetInputs(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"session_id": id,
		"values":     `{"unknown": 1}`,
	})
	assert.Error(t, err)

	_, err = s.handleSetInputs(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"session_id": id,
		"values":     `{"count": 9, "zzz": 1}`,
	})
	assert.Error(t, err)
	ctrls, err := s.handleListControls(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"session_id": id})
	require.NoError(t, err)
	require.Len(t, ctrls.Controls, 1)
	assert.Equal(t, 5.0, ctrls.Controls[0].Value)

	_, err = s.handleSetInputs(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"session_id": "missing",
		"values":     `{"count": 1}`,
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestParseValues(t *testing.T) {
	v, err := parseValues(nil)
	assert.NoError(t, err)
	assert.Nil(t, v)

	v, err = parseValues(map[string]any{"a": 1.0})
	assert.NoError(t, err)
	assert.Equal(t, 1.0, v["a"])

	v, err = parseValues(`{"b": true}`)
	assert.NoError(t, err)
	assert.Equal(t, true, v["b"])

	_, err = parseValues(42)
	assert.Error(t, err)
}
