package session_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/geosolve/pkg/controls"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/aretw0/geosolve/pkg/ingest"
	"github.com/aretw0/geosolve/pkg/ports"
	"github.com/aretw0/geosolve/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type solverFunc func(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error)

func (f solverFunc) Solve(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
	return f(ctx, req)
}

func lineItems(t *testing.T, n int) *domain.SolveResponse {
	t.Helper()
	items := make([]domain.Item, 0, n)
	for i := 0; i < n; i++ {
		data, err := geometry.Marshal(&geometry.LineCurve{To: geometry.Vec{float64(i + 1), 1, 0}})
		require.NoError(t, err)
		items = append(items, domain.Item{Type: "Rhino.Geometry.LineCurve", Data: string(data)})
	}
	return &domain.SolveResponse{Values: []domain.Output{
		{ParamName: "RH_OUT:geo", InnerTree: map[string][]domain.Item{"{0}": items}},
	}}
}

func uploadBytes(t *testing.T, objects ...geometry.Object) []byte {
	t.Helper()
	doc := geometry.NewDocument()
	defer doc.Release()
	for _, o := range objects {
		require.NoError(t, doc.Add(o, nil))
	}
	data, err := doc.Bytes()
	require.NoError(t, err)
	return data
}

func newController(t *testing.T, solver solverFunc, opts ...session.ControllerOption) *session.Controller {
	t.Helper()
	opts = append([]session.ControllerOption{session.WithDefinition("geo_upload.gh")}, opts...)
	ctl, err := session.NewController(solver, ingest.New(ingest.GeoUploadTable()), opts...)
	require.NoError(t, err)
	return ctl
}

func sceneObjects(s *session.Session) int {
	n := 0
	for _, c := range s.Viewport().Snapshot().Children {
		if !c.IsLight() {
			n++
		}
	}
	return n
}

func TestSession_UploadSolvesAndPresents(t *testing.T) {
	var got *domain.Request
	ctl := newController(t, func(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
		got = req
		return lineItems(t, 2), nil
	})
	s := ctl.NewSession("s1")
	defer s.Close()

	data := uploadBytes(t,
		&geometry.LineCurve{To: geometry.Vec{1, 0, 0}},
		&geometry.LineCurve{To: geometry.Vec{0, 1, 0}},
		&geometry.PolylineCurve{Points: []geometry.Vec{{0, 0, 0}, {1, 1, 0}}},
	)
	require.NoError(t, s.Upload(context.Background(), bytes.NewReader(data)))

	require.NotNil(t, got)
	assert.Len(t, got.Geometry["Lines"], 3)
	assert.Empty(t, got.Geometry["Points"])
	assert.Empty(t, got.Geometry["Breps"])

	st := s.Status()
	assert.False(t, st.Busy)
	assert.True(t, st.ExportEnabled)
	assert.Equal(t, 2, st.ObjectCount)
	assert.Equal(t, "3 lines become 2!", st.Message)
	assert.Equal(t, 1, sceneObjects(s))

	art, err := s.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "geo_upload"+geometry.FileExtension, art.Filename)
	assert.NotEmpty(t, art.Data)
}

func TestSession_UploadErrors(t *testing.T) {
	calls := 0
	ctl := newController(t, func(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
		calls++
		return lineItems(t, 1), nil
	})
	s := ctl.NewSession("s1")
	defer s.Close()

	err := s.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoFile)
	assert.Equal(t, session.MessageNoFile, s.Status().Message)

	err = s.Upload(context.Background(), bytes.NewReader([]byte("not a model")))
	assert.ErrorIs(t, err, domain.ErrBadInputFile)
	assert.Equal(t, session.MessageBadFile, s.Status().Message)

	assert.Zero(t, calls)
}

func TestSession_RemoteErrorKeepsScene(t *testing.T) {
	fail := false
	ctl := newController(t, func(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
		if fail {
			return nil, &domain.RemoteComputationError{StatusCode: http.StatusInternalServerError, Status: "Internal Server Error"}
		}
		return lineItems(t, 2), nil
	})
	s := ctl.NewSession("s1")
	defer s.Close()

	require.NoError(t, s.Solve(context.Background()))
	before := s.Viewport().Snapshot()
	shown := s.Status().Message
	require.NotEmpty(t, shown)

	fail = true
	err := s.Solve(context.Background())
	var rce *domain.RemoteComputationError
	require.True(t, errors.As(err, &rce))

	st := s.Status()
	assert.False(t, st.Busy)
	assert.True(t, st.ExportEnabled)
	assert.Equal(t, shown, st.Message)
	after := s.Viewport().Snapshot()
	assert.Equal(t, before.Camera, after.Camera)
	assert.Equal(t, len(before.Children), len(after.Children))
	assert.Same(t, before.Children[len(before.Children)-1], after.Children[len(after.Children)-1])
}

func TestSession_UnpresentableResult(t *testing.T) {
	broken := false
	ctl := newController(t, func(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
		if !broken {
			return lineItems(t, 1), nil
		}
		mesh, err := geometry.CompressMesh(&geometry.Mesh{
			Vertices: []geometry.Vec{{math.NaN(), 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Faces:    [][3]int{{0, 1, 2}},
		})
		require.NoError(t, err)
		return &domain.SolveResponse{Values: []domain.Output{
			{InnerTree: map[string][]domain.Item{"{0}": {{Type: domain.TypeString, Data: strconv.Quote(mesh)}}}},
		}}, nil
	})
	s := ctl.NewSession("s1")
	defer s.Close()

	require.NoError(t, s.Solve(context.Background()))
	before := s.Viewport().Snapshot()

	broken = true
	assert.Error(t, s.Solve(context.Background()))

	st := s.Status()
	assert.False(t, st.Busy)
	assert.False(t, st.ExportEnabled)
	assert.Equal(t, session.MessageSceneFailed, st.Message)
	assert.Equal(t, before.Camera, s.Viewport().Snapshot().Camera)
	assert.Equal(t, 1, sceneObjects(s))

	_, err := s.Export(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoDocument)
}

func TestSession_EmptyResultKeepsScene(t *testing.T) {
	empty := false
	ctl := newController(t, func(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
		if empty {
			return &domain.SolveResponse{}, nil
		}
		return lineItems(t, 1), nil
	})
	s := ctl.NewSession("s1")
	defer s.Close()

	require.NoError(t, s.Solve(context.Background()))
	before := s.Viewport().Snapshot()

	empty = true
	assert.ErrorIs(t, s.Solve(context.Background()), domain.ErrEmptyResult)

	st := s.Status()
	assert.False(t, st.Busy)
	assert.False(t, st.ExportEnabled)
	assert.Equal(t, session.MessageEmptyResult, st.Message)
	assert.Equal(t, before.Camera, s.Viewport().Snapshot().Camera)
	assert.Equal(t, 1, sceneObjects(s))

	_, err := s.Export(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoDocument)
}

func TestSession_StaleResponseDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	ctl := newController(t, func(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
			return lineItems(t, 3), nil
		}
		return lineItems(t, 1), nil
	})
	s := ctl.NewSession("s1")
	defer s.Close()

	slow := make(chan error, 1)
	go func() { slow <- s.Solve(context.Background()) }()
	<-started

	require.NoError(t, s.Solve(context.Background()))
	close(release)

	select {
	case err := <-slow:
		assert.ErrorIs(t, err, domain.ErrStaleResponse)
	case <-time.After(time.Second):
		t.Fatal("stale solve did not return")
	}

	st := s.Status()
	assert.Equal(t, 1, st.ObjectCount)
	assert.Equal(t, uint64(2), st.Generation)
	assert.False(t, st.Busy)
}

func TestSession_SetInputsReplacesParams(t *testing.T) {
	var got *domain.Request
	ctl := newController(t, func(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
		got = req
		return lineItems(t, 1), nil
	}, session.WithControls([]controls.Control{
		{ID: "count", Kind: controls.KindRange, Value: 2.0},
		{ID: "flip", Kind: controls.KindCheckbox, Value: false},
	}))
	s := ctl.NewSession("s1")
	defer s.Close()

	require.NoError(t, s.SetControl("count", "5"))
	require.NoError(t, s.SetControl("flip", true))
	assert.ErrorIs(t, s.SetControl("missing", 1), controls.ErrUnknownControl)
	require.NoError(t, s.SetInputs(context.Background()))

	require.NotNil(t, got)
	assert.Equal(t, 5.0, got.Params["count"])
	assert.Equal(t, true, got.Params["flip"])
	assert.Contains(t, got.Geometry, "Lines")
}

func TestSession_StatusListener(t *testing.T) {
	var diffs []*domain.StatusDiff
	ctl := newController(t, func(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
		return lineItems(t, 1), nil
	}, session.WithStatusListener(func(ctx context.Context, st domain.Status, diff *domain.StatusDiff) {
		diffs = append(diffs, diff)
	}))
	s := ctl.NewSession("s1")
	defer s.Close()

	require.NoError(t, s.Solve(context.Background()))
	require.Len(t, diffs, 2)
	require.NotNil(t, diffs[0].Busy)
	assert.True(t, *diffs[0].Busy)
	require.NotNil(t, diffs[1].Busy)
	assert.False(t, *diffs[1].Busy)
	require.NotNil(t, diffs[1].ExportEnabled)
	assert.True(t, *diffs[1].ExportEnabled)
}

func TestSession_Hooks(t *testing.T) {
	var events []domain.EventType
	var mu sync.Mutex
	record := func(typ domain.EventType) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, typ)
	}
	hooks := domain.LifecycleHooks{
		OnSolveStart:  func(ctx context.Context, e *domain.SolveEvent) { record(e.Type) },
		OnSolveFinish: func(ctx context.Context, e *domain.SolveEvent) { record(e.Type) },
		OnItemDecode:  func(ctx context.Context, e *domain.ItemEvent) { record(e.Type) },
		OnSceneUpdate: func(ctx context.Context, e *domain.SceneEvent) { record(e.Type) },
	}
	ctl := newController(t, func(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
		return lineItems(t, 1), nil
	}, session.WithLifecycleHooks(hooks))
	s := ctl.NewSession("s1")
	defer s.Close()

	require.NoError(t, s.Solve(context.Background()))
	assert.Equal(t, []domain.EventType{
		domain.EventSolveStart,
		domain.EventSolveFinish,
		domain.EventItemDecode,
		domain.EventSceneUpdate,
	}, events)
}

func TestSession_NoDocumentLeaks(t *testing.T) {
	before := geometry.LiveDocuments()

	ctl := newController(t, func(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
		return lineItems(t, 2), nil
	})
	s := ctl.NewSession("s1")
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Solve(context.Background()))
	}
	assert.Equal(t, before+1, geometry.LiveDocuments())

	s.Close()
	assert.Equal(t, before, geometry.LiveDocuments())
	assert.ErrorIs(t, s.Solve(context.Background()), domain.ErrSessionNotFound)
}

func TestNewController_InvalidControls(t *testing.T) {
	_, err := session.NewController(nil, ingest.New(ingest.GeoUploadTable()),
		session.WithControls([]controls.Control{{ID: ""}}))
	assert.Error(t, err)
}

func TestSession_BusyIndicator(t *testing.T) {
	var (
		mu      sync.Mutex
		toggles []bool
	)
	busy := ports.BusyFunc(func(b bool) {
		mu.Lock()
		defer mu.Unlock()
		toggles = append(toggles, b)
	})
	ctl := newController(t, func(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
		return nil, &domain.RemoteComputationError{StatusCode: http.StatusBadGateway, Status: "Bad Gateway"}
	}, session.WithBusyIndicator(busy))
	s := ctl.NewSession("s1")
	defer s.Close()

	require.Error(t, s.Solve(context.Background()))
	assert.Equal(t, []bool{true, false}, toggles)
}
