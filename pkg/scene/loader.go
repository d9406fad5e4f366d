package scene

import (
	"fmt"

	"cogentcore.org/core/math32"
	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/lucasb-eyer/go-colorful"
)

var defaultColor = colorful.Color{R: 0.5, G: 0.5, B: 0.5}

// Load converts serialized document bytes into a render graph: one group
// holding a node per visible object. Hidden objects are skipped.
func Load(data []byte) (*Node, error) {
	doc, err := geometry.ReadDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load render graph: %w", err)
	}
	defer doc.Release()

	root := &Node{Name: "document", Kind: NodeGroup}
	for _, e := range doc.Entries() {
		if e.Attributes.Mode == geometry.ModeHidden {
			continue
		}
		if n := nodeFor(e); n != nil {
			root.Children = append(root.Children, n)
		}
	}
	return root, nil
}

func nodeFor(e geometry.Entry) *Node {
	n := &Node{
		Name:     e.Attributes.Name,
		Source:   e.Geometry.Kind(),
		Layer:    e.Attributes.Layer,
		Material: Material{Type: MaterialBasic, Color: defaultColor},
	}
	if e.Attributes.Color != "" {
		if c, err := ParseColor(e.Attributes.Color); err == nil {
			n.Material.Color = c
		}
	}

	if p, ok := e.Geometry.(*geometry.Point); ok {
		n.Kind = NodePoints
		n.Vertices = []math32.Vector3{p.Location.V3()}
		return n
	}
	if pts, ok := geometry.Polyline(e.Geometry); ok {
		n.Kind = NodeLine
		n.Vertices = toVectors(pts)
		return n
	}
	if m, ok := geometry.Tessellate(e.Geometry); ok {
		n.Kind = NodeMesh
		n.Vertices = toVectors(m.Vertices)
		n.Faces = m.Faces
		return n
	}
	return nil
}

func toVectors(pts []geometry.Vec) []math32.Vector3 {
	out := make([]math32.Vector3, len(pts))
	for i, p := range pts {
		out[i] = p.V3()
	}
	return out
}
