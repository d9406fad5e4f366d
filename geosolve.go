package geosolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/aretw0/geosolve/internal/logging"
	"github.com/aretw0/geosolve/pkg/adapters/memory"
	"github.com/aretw0/geosolve/pkg/controls"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/export"
	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/aretw0/geosolve/pkg/ingest"
	"github.com/aretw0/geosolve/pkg/observability"
	"github.com/aretw0/geosolve/pkg/ports"
	"github.com/aretw0/geosolve/pkg/render"
	"github.com/aretw0/geosolve/pkg/scene"
	"github.com/aretw0/geosolve/pkg/session"
	"github.com/aretw0/geosolve/pkg/solve"
	"github.com/lucasb-eyer/go-colorful"
)

// Engine is the high-level entry point of the library. It wires the solver
// client, ingest, decoding, scene and export stages into a session manager.
type Engine struct {
	solver      ports.Solver
	definition  string
	table       ingest.Table
	styles      scene.StyleTable
	background  colorful.Color
	controls    []controls.Control
	width       int
	height      int
	fps         int
	supersample int
	renderLoop  bool
	store       ports.ArtifactStore
	locker      ports.DistributedLocker
	timeout     time.Duration
	solvePath   string
	hooks       domain.LifecycleHooks
	listener    session.StatusListener
	busy        ports.BusyIndicator
	logger      *slog.Logger
	err         error

	manager *session.Manager
	metrics *observability.Metrics
	loop    *render.Loop
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSolver injects a custom solver, bypassing the HTTP client.
func WithSolver(s ports.Solver) Option {
	return func(e *Engine) {
		e.solver = s
	}
}

// WithSolverTimeout bounds each solver round trip.
func WithSolverTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithSolvePath overrides the solve endpoint path.
func WithSolvePath(path string) Option {
	return func(e *Engine) {
		e.solvePath = path
	}
}

// WithDefinition sets the remote definition to solve.
func WithDefinition(definition string) Option {
	return func(e *Engine) {
		e.definition = definition
	}
}

// WithPreset selects a built-in classification table and style preset.
func WithPreset(name string) Option {
	return func(e *Engine) {
		table, err := ingest.Preset(name)
		if err != nil {
			e.err = err
			return
		}
		p, err := scene.StylePreset(name)
		if err != nil {
			e.err = err
			return
		}
		e.table = table
		e.styles = p.Styles
		e.background = p.Background
	}
}

// WithTable sets the classification table.
func WithTable(table ingest.Table) Option {
	return func(e *Engine) {
		e.table = table
	}
}

// WithStyles sets the style table and the viewport background.
func WithStyles(styles scene.StyleTable, background colorful.Color) Option {
	return func(e *Engine) {
		e.styles = styles
		e.background = background
	}
}

// WithControls sets the controls each session starts with.
func WithControls(defs []controls.Control) Option {
	return func(e *Engine) {
		e.controls = defs
	}
}

// WithViewportSize sets the pixel size of viewports.
func WithViewportSize(width, height int) Option {
	return func(e *Engine) {
		e.width, e.height = width, height
	}
}

// WithRenderLoop redraws every session viewport fps times per second once
// Start is called.
func WithRenderLoop(fps, supersample int) Option {
	return func(e *Engine) {
		e.renderLoop = true
		e.fps = fps
		e.supersample = supersample
	}
}

// WithArtifactStore sets where exports are saved. The default keeps them in memory.
func WithArtifactStore(store ports.ArtifactStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed session locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks. They run after the
// built-in logging and metrics hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithStatusListener receives every session status change.
func WithStatusListener(l session.StatusListener) Option {
	return func(e *Engine) {
		e.listener = l
	}
}

// WithBusyIndicator is toggled around every solve.
func WithBusyIndicator(ind ports.BusyIndicator) Option {
	return func(e *Engine) {
		e.busy = ind
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine solving against the server at solverURL.
// If WithSolver is provided, solverURL can be empty.
func New(solverURL string, opts ...Option) (*Engine, error) {
	eng := &Engine{
		definition: "geo_upload.gh",
		table:      ingest.GeoUploadTable(),
		styles:     scene.StyleTable{},
		width:      800,
		height:     600,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.err != nil {
		return nil, eng.err
	}

	if eng.solver == nil {
		if solverURL == "" {
			return nil, fmt.Errorf("solverURL is required when no custom solver is provided")
		}
		clientOpts := []solve.Option{solve.WithLogger(eng.logger)}
		if eng.timeout > 0 {
			clientOpts = append(clientOpts, solve.WithTimeout(eng.timeout))
		}
		if eng.solvePath != "" {
			clientOpts = append(clientOpts, solve.WithPath(eng.solvePath))
		}
		eng.solver = solve.New(solverURL, clientOpts...)
	}
	if err := eng.table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classification table: %w", err)
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	eng.metrics = observability.NewMetrics()
	hooks := observability.Combine(
		observability.LogHooks(eng.logger),
		eng.metrics.Hooks(),
		eng.hooks,
	)

	ctl, err := session.NewController(eng.solver, ingest.New(eng.table, ingest.WithLogger(eng.logger)),
		session.WithDefinition(eng.definition),
		session.WithControls(eng.controls),
		session.WithStyles(eng.styles, eng.background),
		session.WithViewportSize(eng.width, eng.height),
		session.WithExporter(export.New(eng.store, export.WithLogger(eng.logger))),
		session.WithLifecycleHooks(hooks),
		session.WithStatusListener(eng.listener),
		session.WithBusyIndicator(eng.busy),
		session.WithLogger(eng.logger),
	)
	if err != nil {
		return nil, err
	}

	mgrOpts := []session.Option{session.WithManagerLogger(eng.logger)}
	if eng.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(eng.locker))
	}
	if eng.renderLoop {
		eng.loop = render.NewLoop(
			render.WithFPS(eng.fps),
			render.WithRasterizer(render.NewRasterizer(render.WithSupersample(eng.supersample))),
			render.WithLogger(eng.logger),
		)
		mgrOpts = append(mgrOpts, session.WithRenderLoop(eng.loop))
	}
	eng.manager = session.NewManager(ctl, mgrOpts...)
	return eng, nil
}

// Manager returns the session manager.
func (e *Engine) Manager() *session.Manager {
	return e.manager
}

// Metrics returns the pipeline metrics.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

// Loop returns the render loop, or nil when none was configured.
func (e *Engine) Loop() *render.Loop {
	return e.loop
}

// Definition returns the remote definition being solved.
func (e *Engine) Definition() string {
	return e.definition
}

// Table returns the classification table.
func (e *Engine) Table() ingest.Table {
	return e.table
}

// Start begins background work such as the render loop.
func (e *Engine) Start(ctx context.Context) error {
	if e.loop == nil {
		return nil
	}
	return e.loop.Start(ctx)
}

// Close stops background work and closes every session.
func (e *Engine) Close(ctx context.Context) {
	if e.loop != nil {
		e.loop.Stop()
	}
	e.manager.Close(ctx)
}

// SolveFile runs the whole pipeline for one model file in a new session:
// upload, solve, decode and present. Values are applied to controls first,
// adding controls that were not configured. The session stays open so the
// caller can read its status, render it or export it.
func (e *Engine) SolveFile(ctx context.Context, path string, values map[string]any) (*session.Session, error) {
	sess, err := e.manager.Create(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if err := e.setValue(sess, id, values[id]); err != nil {
			return sess, err
		}
	}
	if len(values) > 0 {
		sess.SyncInputs()
	}

	var r io.Reader
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return sess, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	return sess, sess.Upload(ctx, r)
}

func (e *Engine) setValue(sess *session.Session, id string, v any) error {
	err := sess.SetControl(id, v)
	if err == nil || !errors.Is(err, controls.ErrUnknownControl) {
		return err
	}
	c := controls.Control{ID: id, Kind: controls.KindNumber}
	if _, ok := v.(bool); ok {
		c.Kind = controls.KindCheckbox
	}
	c.Value = v
	return sess.AddControl(c)
}

// Report describes a model document without solving it.
type Report struct {
	Objects int                   `json:"objects"`
	Kinds   map[geometry.Kind]int `json:"kinds"`
	Buckets map[string]int        `json:"buckets"`
	Skipped int                   `json:"skipped"`
	Bounds  [2][3]float32         `json:"bounds"`
	Empty   bool                  `json:"empty"`
}

// Inspect reads a model file and classifies its objects with the engine's table.
func (e *Engine) Inspect(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := geometry.ReadDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBadInputFile, err)
	}
	defer doc.Release()

	res, err := ingest.New(e.table).Classify(doc)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Objects: res.Objects,
		Kinds:   make(map[geometry.Kind]int),
		Buckets: make(map[string]int),
		Skipped: res.Skipped,
	}
	for _, entry := range doc.Entries() {
		rep.Kinds[entry.Geometry.Kind()]++
	}
	for name := range res.Buckets {
		rep.Buckets[name] = res.Count(name)
	}
	box := doc.Bounds()
	rep.Empty = box.IsEmpty()
	if !rep.Empty {
		rep.Bounds = [2][3]float32{{box.Min.X, box.Min.Y, box.Min.Z}, {box.Max.X, box.Max.Y, box.Max.Z}}
	}
	return rep, nil
}
