package observability

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records pipeline activity on its own registry.
type Metrics struct {
	registry      *prometheus.Registry
	solves        *prometheus.CounterVec
	solveDuration prometheus.Histogram
	items         *prometheus.CounterVec
	sceneObjects  prometheus.Gauge
	sceneUpdates  prometheus.Counter
}

// NewMetrics creates the pipeline collectors and registers them, with the Go
// and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geosolve_solves_total",
				Help: "Total number of solver round trips by outcome",
			},
			[]string{"outcome"},
		),
		solveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "geosolve_solve_duration_seconds",
				Help:    "Duration of solver round trips",
				Buckets: prometheus.DefBuckets,
			},
		),
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geosolve_items_total",
				Help: "Total number of response items by decoder and result",
			},
			[]string{"decoder", "decoded"},
		),
		sceneObjects: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "geosolve_scene_objects",
				Help: "Number of objects in the most recently presented scene",
			},
		),
		sceneUpdates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "geosolve_scene_updates_total",
				Help: "Total number of scene rebuilds",
			},
		),
	}
	m.registry.MustRegister(
		m.solves,
		m.solveDuration,
		m.items,
		m.sceneObjects,
		m.sceneUpdates,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSolveFinish: func(ctx context.Context, e *domain.SolveEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.solves.WithLabelValues(outcome).Inc()
			m.solveDuration.Observe(e.Duration.Seconds())
		},
		OnItemDecode: func(ctx context.Context, e *domain.ItemEvent) {
			decoder := e.Decoder
			if decoder == "" {
				decoder = "none"
			}
			m.items.WithLabelValues(decoder, strconv.FormatBool(e.Decoded)).Inc()
		},
		OnSceneUpdate: func(ctx context.Context, e *domain.SceneEvent) {
			m.sceneUpdates.Inc()
			m.sceneObjects.Set(float64(e.Objects))
		},
	}
}

// LogHooks returns lifecycle hooks that log every event at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSolveStart: func(ctx context.Context, e *domain.SolveEvent) {
			logger.Debug("solve_start", "session_id", e.SessionID, "generation", e.Generation)
		},
		OnSolveFinish: func(ctx context.Context, e *domain.SolveEvent) {
			logger.Debug("solve_finish",
				"session_id", e.SessionID,
				"generation", e.Generation,
				"duration", e.Duration,
				"err", e.Err,
			)
		},
		OnItemDecode: func(ctx context.Context, e *domain.ItemEvent) {
			logger.Debug("item_decode",
				"session_id", e.SessionID,
				"path", e.Path,
				"type", e.ItemType,
				"decoder", e.Decoder,
				"decoded", e.Decoded,
			)
		},
		OnSceneUpdate: func(ctx context.Context, e *domain.SceneEvent) {
			logger.Debug("scene_update", "session_id", e.SessionID, "objects", e.Objects, "nodes", e.Nodes)
		},
	}
}

// Combine returns hooks that call every non-nil hook of each set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnSolveStart = chain(out.OnSolveStart, h.OnSolveStart)
		out.OnSolveFinish = chain(out.OnSolveFinish, h.OnSolveFinish)
		out.OnItemDecode = chain(out.OnItemDecode, h.OnItemDecode)
		out.OnSceneUpdate = chain(out.OnSceneUpdate, h.OnSceneUpdate)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
