package scene

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/geosolve/internal/logging"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/geometry"
)

// Presenter turns documents into what a viewport shows.
type Presenter struct {
	viewport *Viewport
	styles   StyleTable
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// PresenterOption configures the Presenter.
type PresenterOption func(*Presenter)

// WithStyles sets the style table applied to every loaded graph.
func WithStyles(styles StyleTable) PresenterOption {
	return func(p *Presenter) {
		p.styles = styles
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) PresenterOption {
	return func(p *Presenter) {
		p.hooks = hooks
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PresenterOption {
	return func(p *Presenter) {
		p.logger = logger
	}
}

// NewPresenter creates a Presenter drawing into vp.
func NewPresenter(vp *Viewport, opts ...PresenterOption) *Presenter {
	p := &Presenter{
		viewport: vp,
		styles:   StyleTable{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Viewport returns the viewport the presenter draws into.
func (p *Presenter) Viewport() *Viewport {
	return p.viewport
}

// Present serializes doc, loads the bytes into a render graph and styles it.
// Then, in one viewport update, it removes every non-light child, inserts the
// graph, calls commit and re-frames the camera. It returns the number of
// nodes inserted. On error the viewport is untouched.
func (p *Presenter) Present(ctx context.Context, doc *geometry.Document, commit func()) (int, error) {
	data, err := doc.Bytes()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize document: %w", err)
	}
	graph, err := Load(data)
	if err != nil {
		return 0, err
	}
	styled := p.styles.Apply(graph)

	var removed int
	var distance float32
	p.viewport.Update(func(sc *Scene, cam *Camera, ctl *Controls) {
		removed = sc.Replace(graph)
		if commit != nil {
			commit()
		}
		distance = AutoFrame(sc, cam, ctl)
	})

	nodes := graph.Count()
	p.logger.Debug("Scene updated",
		"objects", doc.Count(),
		"nodes", nodes,
		"styled", styled,
		"removed", removed,
		"distance", distance,
	)
	if p.hooks.OnSceneUpdate != nil {
		p.hooks.OnSceneUpdate(ctx, &domain.SceneEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventSceneUpdate,
				SessionID: domain.SessionIDFrom(ctx),
			},
			Objects: doc.Count(),
			Nodes:   nodes,
		})
	}
	return nodes, nil
}
