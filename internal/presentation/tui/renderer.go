package tui

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/aretw0/geosolve"
	"github.com/aretw0/geosolve/pkg/domain"
	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/aretw0/geosolve/pkg/ports"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Print writes markdown to w, styled when w is a terminal.
func Print(w io.Writer, markdown string) error {
	if IsTerminal(w) {
		out, err := NewRenderer()(markdown)
		if err == nil {
			markdown = out
		}
	}
	_, err := io.WriteString(w, markdown)
	return err
}

// ReportMarkdown describes an inspected model file.
func ReportMarkdown(path string, rep *geosolve.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", path)
	fmt.Fprintf(&b, "**%d** objects, **%d** not classified.\n\n", rep.Objects, rep.Skipped)

	b.WriteString("| Kind | Count |\n|---|---|\n")
	kinds := make([]geometry.Kind, 0, len(rep.Kinds))
	for k := range rep.Kinds {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		fmt.Fprintf(&b, "| %s | %d |\n", k, rep.Kinds[k])
	}

	b.WriteString("\n| Input | Objects |\n|---|---|\n")
	names := make([]string, 0, len(rep.Buckets))
	for name := range rep.Buckets {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(&b, "| %s | %d |\n", name, rep.Buckets[name])
	}

	if rep.Empty {
		b.WriteString("\nThe document has no bounds.\n")
	} else {
		lo, hi := rep.Bounds[0], rep.Bounds[1]
		fmt.Fprintf(&b, "\nBounds: `(%g, %g, %g)` to `(%g, %g, %g)`\n", lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
	}
	return b.String()
}

// StatusMarkdown summarizes a session after a solve. Empty paths are left out.
func StatusMarkdown(st domain.Status, artifact, frame string) string {
	var b strings.Builder
	message := st.Message
	if message == "" {
		message = "Solve failed."
	}
	fmt.Fprintf(&b, "## %s\n\n", message)
	fmt.Fprintf(&b, "- Session: `%s`\n", st.SessionID)
	fmt.Fprintf(&b, "- Objects: %d\n", st.ObjectCount)
	if artifact != "" {
		fmt.Fprintf(&b, "- Exported: `%s`\n", artifact)
	}
	if frame != "" {
		fmt.Fprintf(&b, "- Frame: `%s`\n", frame)
	}
	return b.String()
}

// BusyLine prints a faint progress line whenever a solve starts.
func BusyLine(w io.Writer) ports.BusyFunc {
	return func(busy bool) {
		if busy {
			fmt.Fprintln(w, termenv.String("... solving").Faint())
		}
	}
}
