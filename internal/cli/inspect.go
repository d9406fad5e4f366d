package cli

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/aretw0/geosolve/internal/config"
	"github.com/aretw0/geosolve/internal/presentation/graph"
	"github.com/aretw0/geosolve/internal/presentation/tui"
)

// InspectFormat selects how Inspect prints its report.
type InspectFormat string

const (
	FormatMarkdown InspectFormat = "markdown"
	FormatJSON     InspectFormat = "json"
	FormatMermaid  InspectFormat = "mermaid"
)

// Inspect classifies the objects of a model file without contacting the solver.
func Inspect(cfg *config.Config, path string, format InspectFormat, out io.Writer, logger *slog.Logger) error {
	engine, cleanup, err := createEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	rep, err := engine.Inspect(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatMermaid:
		_, err := io.WriteString(out, graph.GenerateMermaid(engine.Table(), engine.Definition(), &graph.Overlay{Kinds: rep.Kinds}))
		return err
	default:
		return tui.Print(out, tui.ReportMarkdown(path, rep))
	}
}
