package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/geosolve/internal/logging"
	"github.com/aretw0/geosolve/pkg/adapters/memory"
	"github.com/aretw0/geosolve/pkg/controls"
	"github.com/aretw0/geosolve/pkg/decode"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/export"
	"github.com/aretw0/geosolve/pkg/ingest"
	"github.com/aretw0/geosolve/pkg/ports"
	"github.com/aretw0/geosolve/pkg/scene"
	"github.com/lucasb-eyer/go-colorful"
)

// StatusListener receives every status change of every session, with the
// diff from the previously published status.
type StatusListener func(ctx context.Context, status domain.Status, diff *domain.StatusDiff)

// Controller holds the pipeline stages shared by all sessions and creates
// sessions wired to them.
type Controller struct {
	solver     ports.Solver
	ingestor   *ingest.Ingestor
	collector  *decode.Collector
	exporter   *export.Exporter
	definition string
	controls   []controls.Control
	styles     scene.StyleTable
	background colorful.Color
	camera     scene.Camera
	width      int
	height     int
	hooks      domain.LifecycleHooks
	listener   StatusListener
	busy       ports.BusyIndicator
	logger     *slog.Logger
}

// ControllerOption configures the Controller.
type ControllerOption func(*Controller)

// WithDefinition sets the remote definition every session solves.
func WithDefinition(definition string) ControllerOption {
	return func(c *Controller) {
		c.definition = definition
	}
}

// WithControls sets the controls each new session starts with.
func WithControls(defs []controls.Control) ControllerOption {
	return func(c *Controller) {
		c.controls = defs
	}
}

// WithStyles sets the style table and background of new viewports.
func WithStyles(styles scene.StyleTable, background colorful.Color) ControllerOption {
	return func(c *Controller) {
		c.styles = styles
		c.background = background
	}
}

// WithCamera sets the initial camera of new viewports.
func WithCamera(cam scene.Camera) ControllerOption {
	return func(c *Controller) {
		c.camera = cam
	}
}

// WithViewportSize sets the pixel size of new viewports.
func WithViewportSize(width, height int) ControllerOption {
	return func(c *Controller) {
		c.width, c.height = width, height
	}
}

// WithCollector replaces the default result collector.
func WithCollector(collector *decode.Collector) ControllerOption {
	return func(c *Controller) {
		c.collector = collector
	}
}

// WithExporter sets the exporter. The default keeps exports in memory.
func WithExporter(exporter *export.Exporter) ControllerOption {
	return func(c *Controller) {
		c.exporter = exporter
	}
}

// WithLifecycleHooks registers observability hooks for solves and scene updates.
func WithLifecycleHooks(hooks domain.LifecycleHooks) ControllerOption {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithStatusListener registers a listener for status changes.
func WithStatusListener(l StatusListener) ControllerOption {
	return func(c *Controller) {
		c.listener = l
	}
}

// WithBusyIndicator toggles ind whenever a session enters or leaves a solve.
func WithBusyIndicator(ind ports.BusyIndicator) ControllerOption {
	return func(c *Controller) {
		c.busy = ind
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a Controller. It fails if the control definitions
// are invalid.
func NewController(solver ports.Solver, ingestor *ingest.Ingestor, opts ...ControllerOption) (*Controller, error) {
	c := &Controller{
		solver:   solver,
		ingestor: ingestor,
		styles:   scene.StyleTable{},
		camera:   scene.DefaultCamera(),
		width:    800,
		height:   600,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.collector == nil {
		c.collector = decode.NewCollector(decode.WithLifecycleHooks(c.hooks), decode.WithLogger(c.logger))
	}
	if c.exporter == nil {
		c.exporter = export.New(memory.NewStore(), export.WithLogger(c.logger))
	}
	if _, err := controls.NewPanel(c.controls); err != nil {
		return nil, fmt.Errorf("invalid controls: %w", err)
	}
	if err := c.styles.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Definition returns the configured definition.
func (c *Controller) Definition() string {
	return c.definition
}

// Ingestor returns the shared ingestor.
func (c *Controller) Ingestor() *ingest.Ingestor {
	return c.ingestor
}

// Exporter returns the shared exporter.
func (c *Controller) Exporter() *export.Exporter {
	return c.exporter
}

// NewSession creates a session with its own request, controls and viewport.
func (c *Controller) NewSession(id string) *Session {
	// Definitions were validated by NewController.
	panel, _ := controls.NewPanel(c.controls)

	vp := scene.NewViewport(scene.NewScene(c.background), c.camera, c.width, c.height)
	logger := c.logger.With("session_id", id)

	req := domain.NewRequest(c.definition)
	buckets := make(map[string][]string)
	for _, b := range c.ingestor.Table().Buckets() {
		buckets[b] = []string{}
	}
	req.SetGeometry(buckets)
	req.SetParams(panel.Aggregate())

	return &Session{
		id:       id,
		ctl:      c,
		request:  req,
		panel:    panel,
		viewport: vp,
		presenter: scene.NewPresenter(vp,
			scene.WithStyles(c.styles),
			scene.WithLifecycleHooks(c.hooks),
			scene.WithLogger(logger),
		),
		status: domain.Status{SessionID: id},
		logger: logger,
	}
}
