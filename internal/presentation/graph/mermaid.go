package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/aretw0/geosolve/pkg/ingest"
)

// Overlay marks the object kinds present in an inspected file.
type Overlay struct {
	Kinds map[geometry.Kind]int
}

// GenerateMermaid produces a Mermaid flowchart of how object kinds reach the
// solver: kind -> input bucket -> definition.
// Shapes:
// - Kind: [Rectangle]
// - Bucket: [/Parallelogram/]
// - Definition: [[Subroutine]]
// Kinds no rule matches get a dotted edge to a skipped node.
func GenerateMermaid(table ingest.Table, definition string, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	defID := "def_" + sanitizeMermaidID(definition)
	sb.WriteString(fmt.Sprintf("    %s[[\"%s\"]]\n", defID, definition))

	for _, bucket := range table.Buckets() {
		id := "bucket_" + sanitizeMermaidID(bucket)
		sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/]\n", id, bucket))
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", id, defID))
	}

	skipped := false
	for _, kind := range geometry.Kinds() {
		id := "kind_" + sanitizeMermaidID(string(kind))
		label := string(kind)
		if overlay != nil && overlay.Kinds[kind] > 0 {
			label = fmt.Sprintf("%s <br/> x%d", kind, overlay.Kinds[kind])
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, label))

		buckets := table.Match(kind)
		if len(buckets) == 0 {
			sb.WriteString(fmt.Sprintf("    %s -.-> skipped\n", id))
			skipped = true
			continue
		}
		for _, b := range buckets {
			sb.WriteString(fmt.Sprintf("    %s --> bucket_%s\n", id, sanitizeMermaidID(b)))
		}
	}
	if skipped {
		sb.WriteString("    skipped((\"skipped\"))\n")
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef present fill:#ffeb3b,stroke:#fbc02d,stroke-width:2px,color:#000;\n")
		for _, kind := range geometry.Kinds() {
			if overlay.Kinds[kind] > 0 {
				sb.WriteString(fmt.Sprintf("    class kind_%s present;\n", sanitizeMermaidID(string(kind))))
			}
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
