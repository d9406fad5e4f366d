package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/geosolve"
	"github.com/aretw0/geosolve/internal/logging"
	"github.com/aretw0/geosolve/pkg/controls"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SolveResponse is the structured result of the solve tools.
type SolveResponse struct {
	Status   domain.Status `json:"status" jsonschema_description:"Session status after the solve"`
	Artifact string        `json:"artifact,omitempty" jsonschema_description:"Exported file name, when export was requested"`
	Warning  string        `json:"warning,omitempty" jsonschema_description:"Non-fatal outcome such as an empty result"`
}

// ControlsResponse lists the controls of a session.
type ControlsResponse struct {
	SessionID string             `json:"session_id"`
	Controls  []controls.Control `json:"controls"`
}

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    *geosolve.Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *geosolve.Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("geosolve-mcp", strings.TrimSpace(geosolve.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: solve_file
	solveTool := mcp.NewTool("solve_file",
		mcp.WithDescription("Upload a model file to the solver in a new session and load the result into its scene."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the model file to upload")),
		mcp.WithString("values", mcp.Description("JSON object of control values (optional)")),
		mcp.WithBoolean("export", mcp.Description("Export the result after solving (optional)")),
		mcp.WithOutputSchema[SolveResponse](),
	)
	s.mcpServer.AddTool(solveTool, mcp.NewStructuredToolHandler(s.handleSolveFile))

	// TOOL: set_inputs
	inputsTool := mcp.NewTool("set_inputs",
		mcp.WithDescription("Change control values of an existing session and solve again."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to update")),
		mcp.WithString("values", mcp.Required(), mcp.Description("JSON object of control values")),
		mcp.WithOutputSchema[SolveResponse](),
	)
	s.mcpServer.AddTool(inputsTool, mcp.NewStructuredToolHandler(s.handleSetInputs))

	// TOOL: list_controls
	controlsTool := mcp.NewTool("list_controls",
		mcp.WithDescription("List the controls of a session with their current values."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to inspect")),
		mcp.WithOutputSchema[ControlsResponse](),
	)
	s.mcpServer.AddTool(controlsTool, mcp.NewStructuredToolHandler(s.handleListControls))

	// TOOL: inspect_file
	s.mcpServer.AddTool(mcp.NewTool("inspect_file",
		mcp.WithDescription("Classify the objects of a model file without solving it."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the model file")),
	), s.handleInspectFile)

	// TOOL: close_session
	s.mcpServer.AddTool(mcp.NewTool("close_session",
		mcp.WithDescription("Close a session and release its documents."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to close")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.engine.Manager().Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("close failed: %v", err)), nil
		}
		return mcp.NewToolResultText("closed " + id), nil
	})
}

func (s *Server) handleSolveFile(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SolveResponse, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return SolveResponse{}, fmt.Errorf("path is required")
	}
	values, err := parseValues(args["values"])
	if err != nil {
		return SolveResponse{}, err
	}

	sess, err := s.engine.SolveFile(ctx, path, values)
	if sess == nil {
		return SolveResponse{}, fmt.Errorf("solve failed: %w", err)
	}
	resp, err := solveResult(sess, err)
	if err != nil {
		return resp, err
	}

	if export, _ := args["export"].(bool); export && resp.Status.ExportEnabled {
		art, err := sess.Export(ctx)
		if err != nil {
			return resp, fmt.Errorf("export failed: %w", err)
		}
		resp.Artifact = art.Filename
	}
	return resp, nil
}

func (s *Server) handleSetInputs(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SolveResponse, error) {
	id, _ := args["session_id"].(string)
	sess, err := s.engine.Manager().Get(id)
	if err != nil {
		return SolveResponse{}, err
	}
	values, err := parseValues(args["values"])
	if err != nil {
		return SolveResponse{}, err
	}
	if len(values) == 0 {
		return SolveResponse{}, fmt.Errorf("values must not be empty")
	}

	err = s.engine.Manager().WithLock(ctx, id, func(ctx context.Context) error {
		return sess.SetControls(values)
	})
	if err != nil {
		return SolveResponse{}, err
	}
	return solveResult(sess, sess.SetInputs(ctx))
}

func (s *Server) handleListControls(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ControlsResponse, error) {
	id, _ := args["session_id"].(string)
	sess, err := s.engine.Manager().Get(id)
	if err != nil {
		return ControlsResponse{}, err
	}
	return ControlsResponse{SessionID: id, Controls: sess.Controls()}, nil
}

func (s *Server) handleInspectFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep, err := s.engine.Inspect(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(rep)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: geosolve://sessions
	s.mcpServer.AddResource(mcp.NewResource("geosolve://sessions", "Open Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		statuses := make([]domain.Status, 0)
		for _, id := range s.engine.Manager().List() {
			if sess, err := s.engine.Manager().Get(id); err == nil {
				statuses = append(statuses, sess.Status())
			}
		}
		jsonBytes, _ := json.Marshal(statuses)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "geosolve://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

// solveResult turns outcomes the viewer only sees as a message into warnings.
func solveResult(sess *session.Session, err error) (SolveResponse, error) {
	resp := SolveResponse{Status: sess.Status()}
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrEmptyResult), errors.Is(err, domain.ErrStaleResponse):
		resp.Warning = err.Error()
	default:
		return resp, fmt.Errorf("solve failed: %w", err)
	}
	return resp, nil
}

func parseValues(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		values := make(map[string]any)
		if err := json.Unmarshal([]byte(v), &values); err != nil {
			return nil, fmt.Errorf("values must be a JSON object: %w", err)
		}
		return values, nil
	default:
		return nil, fmt.Errorf("values must be a JSON object, got %T", raw)
	}
}
