package scene

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Style overrides the material of every node of one kind. Empty fields leave
// the loaded material alone.
type Style struct {
	Material  MaterialType `yaml:"material,omitempty" json:"material,omitempty"`
	Wireframe bool         `yaml:"wireframe,omitempty" json:"wireframe,omitempty"`
	Color     string       `yaml:"color,omitempty" json:"color,omitempty"`
}

// StyleTable maps node kinds to the style forced on them.
type StyleTable map[NodeKind]Style

// Validate checks kinds, materials and colors.
func (t StyleTable) Validate() error {
	for kind, st := range t {
		switch kind {
		case NodeMesh, NodeLine, NodePoints:
		default:
			return fmt.Errorf("style for %q: not a drawable node kind", kind)
		}
		switch st.Material {
		case "", MaterialBasic, MaterialNormal:
		default:
			return fmt.Errorf("style for %q: unknown material %q", kind, st.Material)
		}
		if st.Color != "" {
			if _, err := ParseColor(st.Color); err != nil {
				return fmt.Errorf("style for %q: %w", kind, err)
			}
		}
	}
	return nil
}

// Apply forces the table's styles onto the graph rooted at root and returns
// the number of nodes styled.
func (t StyleTable) Apply(root *Node) int {
	styled := 0
	root.Walk(func(n *Node) {
		st, ok := t[n.Kind]
		if !ok {
			return
		}
		if st.Material != "" {
			n.Material.Type = st.Material
		}
		n.Material.Wireframe = st.Wireframe
		if st.Color != "" {
			if c, err := ParseColor(st.Color); err == nil {
				n.Material.Color = c
			}
		}
		styled++
	})
	return styled
}

// Preset is a named deployment look: styles plus background.
type Preset struct {
	Styles     StyleTable
	Background colorful.Color
}

const (
	PresetGeoUpload       = "geo_upload"
	PresetUploadMeshParam = "uploadmeshparam"
)

// StylePreset returns a built-in preset.
//
//   - geo_upload: wireframe normal meshes, white lines, black background.
//   - uploadmeshparam: wireframe normal meshes, lines untouched, whitesmoke background.
func StylePreset(name string) (Preset, error) {
	switch name {
	case PresetGeoUpload:
		return Preset{
			Styles: StyleTable{
				NodeMesh: {Material: MaterialNormal, Wireframe: true},
				NodeLine: {Material: MaterialBasic, Color: "white"},
			},
			Background: mustColor("black"),
		}, nil
	case PresetUploadMeshParam:
		return Preset{
			Styles: StyleTable{
				NodeMesh: {Material: MaterialNormal, Wireframe: true},
			},
			Background: mustColor("whitesmoke"),
		}, nil
	default:
		return Preset{}, fmt.Errorf("unknown style preset %q", name)
	}
}

var namedColors = map[string]string{
	"black":      "#000000",
	"white":      "#ffffff",
	"whitesmoke": "#f5f5f5",
	"gray":       "#808080",
	"red":        "#ff0000",
	"green":      "#008000",
	"blue":       "#0000ff",
}

func mustColor(s string) colorful.Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseColor accepts a hex color (#rgb or #rrggbb) or one of a few CSS names.
func ParseColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}
