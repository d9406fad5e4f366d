package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/geosolve"
	"github.com/aretw0/geosolve/internal/logging"
	"github.com/aretw0/geosolve/pkg/controls"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/render"
	"github.com/aretw0/geosolve/pkg/scene"
	"github.com/aretw0/geosolve/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxUploadSize bounds multipart upload bodies.
const MaxUploadSize = 64 << 20

// Server exposes sessions over HTTP.
type Server struct {
	Sessions   *session.Manager
	Streams    *StreamManager
	Loop       *render.Loop
	Rasterizer *render.Rasterizer
	Metrics    http.Handler
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams sets the stream manager status diffs are published to.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithRenderLoop serves frames drawn by loop instead of drawing on request.
func WithRenderLoop(loop *render.Loop) Option {
	return func(s *Server) {
		s.Loop = loop
	}
}

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the session manager.
func NewHandler(mgr *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Sessions:   mgr,
		Rasterizer: render.NewRasterizer(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/upload", s.Upload)
			r.Put("/inputs", s.SetInputs)
			r.Post("/solve", s.Solve)
			r.Get("/controls", s.ListControls)
			r.Get("/scene", s.GetScene)
			r.Get("/frame.png", s.GetFrame)
			r.Get("/events", s.SubscribeEvents)
			r.Get("/download", s.Download)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "geosolve-http",
		"version":     strings.TrimSpace(geosolve.Version),
		"api_version": apiVersion,
		"definition":  s.Sessions.Controller().Definition(),
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.Sessions.List()})
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Create(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Status())
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Status())
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload handles the POST /sessions/{id}/upload request. The model travels
// in the "file" form field.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	var file io.Reader
	if f, _, err := r.FormFile("file"); err == nil {
		defer f.Close()
		file = f
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		s.logger.Warn("Upload: Invalid form", "session_id", sess.ID(), "err", err)
	}

	s.respondSolve(w, sess, sess.Upload(r.Context(), file))
}

type inputsRequest struct {
	Values map[string]any `json:"values"`
}

// SetInputs handles the PUT /sessions/{id}/inputs request.
func (s *Server) SetInputs(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := validateBody("InputsRequest", body); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		s.logger.Warn("SetInputs: Invalid request body", "session_id", sess.ID(), "err", err)
		return
	}
	var req inputsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err = s.Sessions.WithLock(r.Context(), sess.ID(), func(ctx context.Context) error {
		return sess.SetControls(req.Values)
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.respondSolve(w, sess, sess.SetInputs(r.Context()))
}

// Solve handles the POST /sessions/{id}/solve request.
func (s *Server) Solve(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.respondSolve(w, sess, sess.Solve(r.Context()))
}

// ListControls handles the GET /sessions/{id}/controls request.
func (s *Server) ListControls(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]controls.Control{"controls": sess.Controls()})
}

type sceneObject struct {
	Name     string         `json:"name"`
	Kind     scene.NodeKind `json:"kind"`
	Source   string         `json:"source,omitempty"`
	Vertices int            `json:"vertices"`
	Faces    int            `json:"faces,omitempty"`
}

type sceneView struct {
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Camera      scene.Camera  `json:"camera"`
	Target      [3]float32    `json:"target"`
	MaxDistance float32       `json:"max_distance"`
	Lights      int           `json:"lights"`
	Objects     []sceneObject `json:"objects"`
}

// GetScene handles the GET /sessions/{id}/scene request.
func (s *Server) GetScene(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	snap := sess.Viewport().Snapshot()
	view := sceneView{
		Width:       snap.Width,
		Height:      snap.Height,
		Camera:      snap.Camera,
		Target:      [3]float32{snap.Controls.Target.X, snap.Controls.Target.Y, snap.Controls.Target.Z},
		MaxDistance: snap.Controls.MaxDistance,
		Objects:     []sceneObject{},
	}
	for _, child := range snap.Children {
		if child.IsLight() {
			view.Lights++
			continue
		}
		child.Walk(func(n *scene.Node) {
			if n.Kind == scene.NodeGroup {
				return
			}
			view.Objects = append(view.Objects, sceneObject{
				Name:     n.Name,
				Kind:     n.Kind,
				Source:   string(n.Source),
				Vertices: len(n.Vertices),
				Faces:    len(n.Faces),
			})
		})
	}
	writeJSON(w, http.StatusOK, view)
}

// GetFrame handles the GET /sessions/{id}/frame.png request.
func (s *Server) GetFrame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var (
		data []byte
		err  error
	)
	if f, ok := s.frame(sess.ID()); ok {
		data, err = render.EncodePNG(f.Image)
	} else {
		data, err = s.Rasterizer.RenderPNG(sess.Viewport().Snapshot())
	}
	if err != nil {
		http.Error(w, "Failed to encode frame", http.StatusInternalServerError)
		s.logger.Error("Frame encode failed", "session_id", sess.ID(), "err", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (s *Server) frame(id string) (render.Frame, bool) {
	if s.Loop == nil {
		return render.Frame{}, false
	}
	return s.Loop.Frame(id)
}

// Download handles the GET /sessions/{id}/download request.
func (s *Server) Download(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	art, err := sess.Export(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", art.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	w.Write(art.Data)
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sess.ID())
	ch, cancel := s.Streams.Subscribe(sess.ID())
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	// The first event carries the whole status.
	if initial, err := json.Marshal(domain.Diff(nil, ptr(sess.Status()))); err == nil {
		fmt.Fprintf(w, "data: %s\n\n", initial)
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sess.ID())
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return sess, true
}

// respondSolve writes the status after a solve. Failures the viewer already
// sees through the status message still answer 200.
func (s *Server) respondSolve(w http.ResponseWriter, sess *session.Session, err error) {
	code := http.StatusOK
	var rce *domain.RemoteComputationError
	switch {
	case err == nil,
		errors.Is(err, domain.ErrEmptyResult),
		errors.Is(err, domain.ErrStaleResponse):
	case errors.Is(err, domain.ErrNoFile), errors.Is(err, domain.ErrBadInputFile):
		code = http.StatusBadRequest
	case errors.As(err, &rce):
		code = http.StatusBadGateway
	default:
		s.fail(w, err)
		return
	}
	writeJSON(w, code, sess.Status())
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrNoDocument):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.Canceled):
		http.Error(w, err.Error(), http.StatusRequestTimeout)
	default:
		s.logger.Error("Request failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func ptr[T any](v T) *T {
	return &v
}
