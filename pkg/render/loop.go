package render

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/geosolve/internal/logging"
	"github.com/aretw0/geosolve/pkg/scene"
)

// Source is anything that can hand out a consistent viewport state.
type Source interface {
	Snapshot() scene.Snapshot
}

// Frame is one drawn image of a viewport.
type Frame struct {
	Seq   uint64
	Time  time.Time
	Image *image.NRGBA
}

// Loop redraws every attached viewport on its own ticker. It only reads
// viewport state and never blocks the pipeline.
type Loop struct {
	mu         sync.RWMutex
	rasterizer *Rasterizer
	sources    map[string]Source
	frames     map[string]Frame
	interval   time.Duration
	logger     *slog.Logger
	seq        atomic.Uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// Option configures the Loop.
type Option func(*Loop)

// WithFPS sets the redraw rate. Non-positive values keep the default.
func WithFPS(fps int) Option {
	return func(l *Loop) {
		if fps > 0 {
			l.interval = time.Second / time.Duration(fps)
		}
	}
}

// WithRasterizer sets the rasterizer used to draw frames.
func WithRasterizer(r *Rasterizer) Option {
	return func(l *Loop) {
		l.rasterizer = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a Loop. The default rate is 10 frames per second.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		rasterizer: NewRasterizer(),
		sources:    make(map[string]Source),
		frames:     make(map[string]Frame),
		interval:   100 * time.Millisecond,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Attach registers a viewport under name.
func (l *Loop) Attach(name string, src Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources[name] = src
}

// Detach removes a viewport and its last frame.
func (l *Loop) Detach(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sources, name)
	delete(l.frames, name)
}

// Frame returns the latest frame drawn for name.
func (l *Loop) Frame(name string) (Frame, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.frames[name]
	return f, ok
}

// Start begins periodic redraws.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.cancel != nil {
		l.mu.Unlock()
		return fmt.Errorf("render loop already started")
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	done := l.done
	l.mu.Unlock()

	l.logger.Debug("Render loop started", "interval", l.interval)
	l.Draw()
	go l.run(ctx, done)
	return nil
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Draw()
		}
	}
}

// Stop stops periodic redraws and waits for the loop to exit.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	l.logger.Debug("Render loop stopped", "frames", l.seq.Load())
}

// Draw redraws every attached viewport once. It returns the number drawn.
func (l *Loop) Draw() int {
	l.mu.RLock()
	sources := make(map[string]Source, len(l.sources))
	for name, src := range l.sources {
		sources[name] = src
	}
	l.mu.RUnlock()

	drawn := make(map[string]Frame, len(sources))
	for name, src := range sources {
		drawn[name] = Frame{
			Seq:   l.seq.Add(1),
			Time:  time.Now(),
			Image: l.rasterizer.Render(src.Snapshot()),
		}
	}

	l.mu.Lock()
	for name, f := range drawn {
		if _, attached := l.sources[name]; attached {
			l.frames[name] = f
		}
	}
	l.mu.Unlock()
	return len(drawn)
}
