package decode_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/geosolve/pkg/decode"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonString(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func meshItem(t *testing.T) domain.Item {
	t.Helper()
	s, err := geometry.CompressMesh(&geometry.Mesh{
		Vertices: []geometry.Vec{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:    [][3]int{{0, 1, 2}},
	})
	require.NoError(t, err)
	return domain.Item{Type: domain.TypeString, Data: jsonString(t, s)}
}

func objectItem(t *testing.T, obj geometry.Object) domain.Item {
	t.Helper()
	data, err := geometry.Marshal(obj)
	require.NoError(t, err)
	return domain.Item{Type: "Rhino.Geometry." + string(obj.Kind()), Data: string(data)}
}

func TestChain_StringItemUsesCompressedMesh(t *testing.T) {
	res := decode.DefaultChain().Decode(meshItem(t))
	require.NoError(t, res.Err)
	assert.Equal(t, "compressed-mesh", res.Decoder)
	assert.IsType(t, &geometry.Mesh{}, res.Object)
}

func TestChain_PlainStringSwallowed(t *testing.T) {
	res := decode.DefaultChain().Decode(domain.Item{Type: domain.TypeString, Data: `"just a label"`})
	assert.Nil(t, res.Object)
	assert.Equal(t, "compressed-mesh", res.Decoder)
	assert.ErrorIs(t, res.Err, geometry.ErrNotCompressedMesh)
}

func TestChain_StringTagNeverFallsThrough(t *testing.T) {
	// A structured payload tagged as a string goes only to the mesh stage.
	data, err := geometry.Marshal(&geometry.Point{Location: geometry.Vec{1, 2, 3}})
	require.NoError(t, err)

	res := decode.DefaultChain().Decode(domain.Item{Type: domain.TypeString, Data: string(data)})
	assert.Nil(t, res.Object)
	assert.Equal(t, "compressed-mesh", res.Decoder)
}

func TestChain_StructuredUsesGeneral(t *testing.T) {
	line := &geometry.LineCurve{From: geometry.Vec{0, 0, 0}, To: geometry.Vec{1, 1, 1}}
	res := decode.DefaultChain().Decode(objectItem(t, line))
	require.NoError(t, res.Err)
	assert.Equal(t, "general", res.Decoder)
	assert.Equal(t, line, res.Object)
}

func TestChain_GeneralFailureYieldsNil(t *testing.T) {
	res := decode.DefaultChain().Decode(domain.Item{Type: "Rhino.Geometry.NurbsSurface", Data: `{"type":"NurbsSurface"}`})
	assert.Nil(t, res.Object)
	assert.ErrorIs(t, res.Err, geometry.ErrUnknownKind)
}

func TestChain_OtherShapesYieldNil(t *testing.T) {
	for _, data := range []string{`42`, `true`, `[1,2,3]`, `"text"`, `null`} {
		res := decode.DefaultChain().Decode(domain.Item{Type: "System.Double", Data: data})
		assert.Nil(t, res.Object, data)
		assert.NoError(t, res.Err, data)
		assert.Empty(t, res.Decoder, data)
	}

	res := decode.DefaultChain().Decode(domain.Item{Type: "System.Double", Data: `{not json`})
	assert.Nil(t, res.Object)
	assert.Error(t, res.Err)
}

func TestChain_CustomOrder(t *testing.T) {
	called := []string{}
	stage := func(name string, match bool) decode.Stage {
		return decode.Stage{
			Name:  name,
			Match: func(domain.Item, any) bool { called = append(called, name); return match },
			Decode: func(any) (geometry.Object, error) {
				return nil, errors.New(name + " failed")
			},
		}
	}
	res := decode.Chain{stage("a", false), stage("b", true), stage("c", true)}.Decode(domain.Item{Data: `{}`})
	assert.Equal(t, []string{"a", "b"}, called)
	assert.Equal(t, "b", res.Decoder)
	assert.EqualError(t, res.Err, "b failed")
}

func TestCollect_TwoItems(t *testing.T) {
	resp := &domain.SolveResponse{Values: []domain.Output{{
		ParamName: "RH_OUT:geometry",
		InnerTree: map[string][]domain.Item{
			"{0;0}": {meshItem(t), objectItem(t, &geometry.Point{Location: geometry.Vec{1, 1, 1}})},
		},
	}}}

	var events []*domain.ItemEvent
	c := decode.NewCollector(decode.WithLifecycleHooks(domain.LifecycleHooks{
		OnItemDecode: func(_ context.Context, e *domain.ItemEvent) { events = append(events, e) },
	}))

	ctx := domain.WithSessionID(context.Background(), "sess-1")
	doc, stats := c.Collect(ctx, resp)
	defer doc.Release()

	assert.Equal(t, 2, doc.Count())
	assert.Equal(t, decode.Stats{Items: 2, Decoded: 2}, stats)
	for _, e := range doc.Entries() {
		assert.Equal(t, geometry.Attributes{}, e.Attributes)
	}
	require.Len(t, events, 2)
	assert.Equal(t, "sess-1", events[0].SessionID)
	assert.True(t, events[1].Decoded)
}

func TestCollect_MixedFailures(t *testing.T) {
	resp := &domain.SolveResponse{Values: []domain.Output{
		{InnerTree: map[string][]domain.Item{
			"{1}": {{Type: domain.TypeString, Data: `"not a mesh"`}},
			"{0}": {objectItem(t, &geometry.LineCurve{To: geometry.Vec{1, 0, 0}})},
		}},
		{InnerTree: map[string][]domain.Item{
			"{0}": {{Type: "System.Int32", Data: `7`}},
		}},
	}}

	doc, stats := decode.NewCollector().Collect(context.Background(), resp)
	defer doc.Release()

	assert.Equal(t, 1, doc.Count())
	assert.Equal(t, 3, stats.Items)
	assert.Equal(t, 1, stats.Failed)
}

func TestCollect_EmptyResponse(t *testing.T) {
	doc, stats := decode.NewCollector().Collect(context.Background(), &domain.SolveResponse{
		Values: []domain.Output{{InnerTree: map[string][]domain.Item{"{0}": {}}}},
	})
	defer doc.Release()

	assert.Zero(t, doc.Count())
	assert.Zero(t, stats.Items)
}
