package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/geosolve/pkg/controls"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/aretw0/geosolve/pkg/scene"
)

// Messages shown to the viewer.
const (
	MessageNoFile      = "Something went wrong..."
	MessageBadFile     = "Must be a supported file type!"
	MessageEmptyResult = "No objects to load!"
	MessageSolving     = "Solving..."
	MessageSceneFailed = "Could not display the result!"
)

// Session is one viewer: its request, the last output document, the scene it
// is rendered into and the status shown next to it.
//
// The mutex guards everything but the viewport, which carries its own lock.
// It is never held across the solver round trip.
type Session struct {
	id     string
	ctl    *Controller
	logger *slog.Logger

	mu         sync.Mutex
	request    *domain.Request
	panel      *controls.Panel
	doc        *geometry.Document
	status     domain.Status
	settled    string // last message shown while not busy
	generation uint64
	closed     bool

	viewport  *scene.Viewport
	presenter *scene.Presenter
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Viewport returns the viewport the session renders into.
func (s *Session) Viewport() *scene.Viewport {
	return s.viewport
}

// Status returns a copy of the current status.
func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Request returns a copy of the request the next solve will send.
func (s *Session) Request() *domain.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request.Clone()
}

// Controls returns the session's controls with their current values.
func (s *Session) Controls() []controls.Control {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel.Controls()
}

// AddControl registers a control that was not part of the configured set.
func (s *Session) AddControl(c controls.Control) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel.Add(c)
}

// SetControl updates one control value without solving.
func (s *Session) SetControl(id string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel.Set(id, value)
}

// SetControls updates several control values without solving. Either every
// value is applied or none is.
func (s *Session) SetControls(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel.SetAll(values)
}

// Upload ingests a model file into the request geometry and solves.
// A nil reader means no file was chosen.
func (s *Session) Upload(ctx context.Context, r io.Reader) error {
	if r == nil {
		s.setMessage(ctx, MessageNoFile)
		return domain.ErrNoFile
	}

	res, err := s.ctl.ingestor.Ingest(ctx, r)
	if err != nil {
		if errors.Is(err, domain.ErrBadInputFile) {
			s.setMessage(ctx, MessageBadFile)
		}
		return err
	}

	s.mu.Lock()
	s.request.SetGeometry(res.Buckets)
	s.mu.Unlock()

	s.logger.Info("File uploaded", "objects", res.Objects, "skipped", res.Skipped)
	return s.Solve(ctx)
}

// SetInputs replaces the scalar inputs with the aggregated control values
// and solves.
func (s *Session) SetInputs(ctx context.Context) error {
	s.SyncInputs()
	return s.Solve(ctx)
}

// SyncInputs replaces the scalar inputs with the aggregated control values
// without solving.
func (s *Session) SyncInputs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.request.SetParams(s.panel.Aggregate())
}

// Solve sends the current request and, unless a newer solve was issued in
// the meantime, replaces the scene with the result.
func (s *Session) Solve(ctx context.Context) error {
	ctx = domain.WithSessionID(ctx, s.id)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	s.generation++
	gen := s.generation
	req := s.request.Clone()
	prev := s.status
	s.status.Generation = gen
	s.status.Busy = true
	s.status.Message = MessageSolving
	s.publish(ctx, prev)
	s.mu.Unlock()

	start := time.Now()
	s.emitSolve(ctx, domain.EventSolveStart, gen, 0, nil)
	resp, err := s.ctl.solver.Solve(ctx, req)
	s.emitSolve(ctx, domain.EventSolveFinish, gen, time.Since(start), err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.closed {
		s.logger.Debug("Solve response dropped", "generation", gen, "latest", s.generation, "err", domain.ErrStaleResponse)
		return domain.ErrStaleResponse
	}

	prev = s.status
	if err != nil {
		s.logger.Error("Solve failed", "generation", gen, "err", err)
		s.status.Busy = false
		s.status.Message = s.settled
		s.publish(ctx, prev)
		return err
	}

	doc, stats := s.ctl.collector.Collect(ctx, resp)
	if s.doc != nil {
		s.doc.Release()
	}
	s.doc = doc
	s.logger.Debug("Response collected", "items", stats.Items, "decoded", stats.Decoded, "failed", stats.Failed)

	if doc.Count() == 0 {
		s.status.Busy = false
		s.status.ExportEnabled = false
		s.status.ObjectCount = 0
		s.status.Message = MessageEmptyResult
		s.publish(ctx, prev)
		return domain.ErrEmptyResult
	}

	message := s.successMessage(req, doc.Count())
	_, err = s.presenter.Present(ctx, doc, func() {
		s.status.Busy = false
		s.status.ExportEnabled = true
		s.status.ObjectCount = doc.Count()
		s.status.Message = message
	})
	if err != nil {
		s.logger.Error("Scene update failed", "generation", gen, "err", err)
		s.status.Busy = false
		s.status.ExportEnabled = false
		s.status.ObjectCount = 0
		s.status.Message = MessageSceneFailed
		s.publish(ctx, prev)
		return err
	}

	s.publish(ctx, prev)
	s.logger.Info("Solve applied", "generation", gen, "objects", doc.Count())
	return nil
}

// Export serializes the current output document and stores it.
func (s *Session) Export(ctx context.Context) (domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.status.ExportEnabled || s.doc == nil {
		return domain.Artifact{}, domain.ErrNoDocument
	}
	return s.ctl.exporter.Export(ctx, s.request.Definition, s.doc)
}

// Close releases the output document. Responses still in flight are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.doc != nil {
		s.doc.Release()
		s.doc = nil
	}
}

// successMessage reports the size of the first uploaded bucket against the
// number of objects returned.
func (s *Session) successMessage(req *domain.Request, count int) string {
	buckets := s.ctl.ingestor.Table().Buckets()
	if len(buckets) == 0 {
		return fmt.Sprintf("%d objects loaded!", count)
	}
	first := buckets[0]
	return fmt.Sprintf("%d %s become %d!", len(req.Geometry[first]), strings.ToLower(first), count)
}

func (s *Session) setMessage(ctx context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.status
	s.status.Message = message
	s.publish(ctx, prev)
}

// publish must be called with mu held.
func (s *Session) publish(ctx context.Context, prev domain.Status) {
	if !s.status.Busy {
		s.settled = s.status.Message
	}
	if s.ctl.busy != nil && prev.Busy != s.status.Busy {
		s.ctl.busy.SetBusy(s.status.Busy)
	}
	if s.ctl.listener == nil {
		return
	}
	if diff := domain.Diff(&prev, &s.status); diff != nil {
		s.ctl.listener(ctx, s.status, diff)
	}
}

func (s *Session) emitSolve(ctx context.Context, typ domain.EventType, gen uint64, d time.Duration, err error) {
	hook := s.ctl.hooks.OnSolveStart
	if typ == domain.EventSolveFinish {
		hook = s.ctl.hooks.OnSolveFinish
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.SolveEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      typ,
			SessionID: s.id,
		},
		Definition: s.ctl.definition,
		Generation: gen,
		Duration:   d,
		Err:        err,
	})
}
