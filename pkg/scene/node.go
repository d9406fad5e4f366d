package scene

import (
	"cogentcore.org/core/math32"
	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/lucasb-eyer/go-colorful"
)

// NodeKind identifies what a node draws.
type NodeKind string

const (
	NodeGroup  NodeKind = "group"
	NodeMesh   NodeKind = "mesh"
	NodeLine   NodeKind = "line"
	NodePoints NodeKind = "points"
	NodeLight  NodeKind = "light"
)

// MaterialType selects how a drawable node is shaded.
type MaterialType string

const (
	// MaterialBasic draws with a flat color.
	MaterialBasic MaterialType = "basic"
	// MaterialNormal colors each face by its normal.
	MaterialNormal MaterialType = "normal"
)

// Material is the display style of a drawable node.
type Material struct {
	Type      MaterialType
	Wireframe bool
	Color     colorful.Color
}

// LightType is the kind of a light node.
type LightType string

const (
	LightAmbient     LightType = "ambient"
	LightDirectional LightType = "directional"
)

// Light is the payload of a light node.
type Light struct {
	Type      LightType
	Intensity float32
	Color     colorful.Color
	// Position of a directional light. It shines toward the origin.
	Position math32.Vector3
}

// Node is one element of a render graph. Nodes are not modified once they
// are inserted into a Scene.
type Node struct {
	Name     string
	Kind     NodeKind
	Source   geometry.Kind
	Layer    string
	Vertices []math32.Vector3
	// Faces index Vertices for mesh nodes.
	Faces    [][3]int
	Material Material
	Light    *Light
	Children []*Node
}

// IsLight reports whether n is a light.
func (n *Node) IsLight() bool {
	return n.Kind == NodeLight
}

// Walk visits n and its descendants depth-first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) { count++ })
	return count
}

// Bounds is the union of the vertices of n and its descendants. Lights
// contribute nothing.
func (n *Node) Bounds() math32.Box3 {
	box := math32.B3Empty()
	n.Walk(func(c *Node) {
		if c.IsLight() {
			return
		}
		for _, v := range c.Vertices {
			box.ExpandByPoint(v)
		}
	})
	return box
}

// NewAmbientLight returns a white ambient light node.
func NewAmbientLight(intensity float32) *Node {
	return &Node{
		Name: "ambient",
		Kind: NodeLight,
		Light: &Light{
			Type:      LightAmbient,
			Intensity: intensity,
			Color:     colorful.Color{R: 1, G: 1, B: 1},
		},
	}
}

// NewDirectionalLight returns a white directional light node placed overhead.
func NewDirectionalLight(intensity float32) *Node {
	return &Node{
		Name: "directional",
		Kind: NodeLight,
		Light: &Light{
			Type:      LightDirectional,
			Intensity: intensity,
			Color:     colorful.Color{R: 1, G: 1, B: 1},
			Position:  math32.Vec3(0, 1, 0),
		},
	}
}
