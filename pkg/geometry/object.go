package geometry

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// Vec is a point or direction in model space. It encodes as a JSON array [x, y, z].
type Vec [3]float64

// V3 converts v to the float32 vector used by the scene graph.
func (v Vec) V3() math32.Vector3 {
	return math32.Vec3(float32(v[0]), float32(v[1]), float32(v[2]))
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec {
	return Vec{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Object is a decoded geometric entity.
type Object interface {
	Kind() Kind
	Bounds() math32.Box3
}

type validator interface {
	validate() error
}

func boundsOf(points ...Vec) math32.Box3 {
	box := math32.B3Empty()
	for _, p := range points {
		box.ExpandByPoint(p.V3())
	}
	return box
}

// Point is a single location.
type Point struct {
	Location Vec `json:"location" mapstructure:"location"`
}

func (p *Point) Kind() Kind { return KindPoint }

func (p *Point) Bounds() math32.Box3 { return boundsOf(p.Location) }

// LineCurve is a straight segment.
type LineCurve struct {
	From Vec `json:"from" mapstructure:"from"`
	To   Vec `json:"to" mapstructure:"to"`
}

func (c *LineCurve) Kind() Kind { return KindLineCurve }

func (c *LineCurve) Bounds() math32.Box3 { return boundsOf(c.From, c.To) }

// PolylineCurve is a chain of segments through Points.
type PolylineCurve struct {
	Points []Vec `json:"points" mapstructure:"points"`
	Closed bool  `json:"closed,omitempty" mapstructure:"closed"`
}

func (c *PolylineCurve) Kind() Kind { return KindPolylineCurve }

func (c *PolylineCurve) Bounds() math32.Box3 { return boundsOf(c.Points...) }

func (c *PolylineCurve) validate() error {
	if len(c.Points) < 2 {
		return fmt.Errorf("polyline needs at least 2 points, got %d", len(c.Points))
	}
	return nil
}

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Vertices []Vec    `json:"vertices" mapstructure:"vertices"`
	Faces    [][3]int `json:"faces" mapstructure:"faces"`
}

func (m *Mesh) Kind() Kind { return KindMesh }

func (m *Mesh) Bounds() math32.Box3 { return boundsOf(m.Vertices...) }

func (m *Mesh) validate() error {
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("face %d references vertex %d of %d", i, idx, len(m.Vertices))
			}
		}
	}
	return nil
}

// Brep is a boundary representation made of planar polygonal faces.
type Brep struct {
	Vertices []Vec   `json:"vertices" mapstructure:"vertices"`
	Faces    [][]int `json:"faces" mapstructure:"faces"`
}

func (b *Brep) Kind() Kind { return KindBrep }

func (b *Brep) Bounds() math32.Box3 { return boundsOf(b.Vertices...) }

func (b *Brep) validate() error {
	for i, f := range b.Faces {
		if len(f) < 3 {
			return fmt.Errorf("face %d has %d vertices", i, len(f))
		}
		for _, idx := range f {
			if idx < 0 || idx >= len(b.Vertices) {
				return fmt.Errorf("face %d references vertex %d of %d", i, idx, len(b.Vertices))
			}
		}
	}
	return nil
}

// Extrusion sweeps a closed planar Profile along Direction.
type Extrusion struct {
	Profile   []Vec `json:"profile" mapstructure:"profile"`
	Direction Vec   `json:"direction" mapstructure:"direction"`
	Capped    bool  `json:"capped,omitempty" mapstructure:"capped"`
}

func (e *Extrusion) Kind() Kind { return KindExtrusion }

func (e *Extrusion) Bounds() math32.Box3 {
	box := boundsOf(e.Profile...)
	for _, p := range e.Profile {
		box.ExpandByPoint(p.Add(e.Direction).V3())
	}
	return box
}

func (e *Extrusion) validate() error {
	if len(e.Profile) < 3 {
		return fmt.Errorf("extrusion profile needs at least 3 points, got %d", len(e.Profile))
	}
	return nil
}

// Tessellate returns a render mesh for surface-like objects.
// Curves and points have no render mesh and return false.
func Tessellate(obj Object) (*Mesh, bool) {
	switch o := obj.(type) {
	case *Mesh:
		return o, true
	case *Brep:
		m := &Mesh{Vertices: o.Vertices}
		for _, f := range o.Faces {
			m.Faces = append(m.Faces, fan(f)...)
		}
		return m, true
	case *Extrusion:
		return tessellateExtrusion(o), true
	}
	return nil, false
}

// fan triangulates a convex polygon around its first vertex.
func fan(face []int) [][3]int {
	tris := make([][3]int, 0, len(face)-2)
	for i := 1; i+1 < len(face); i++ {
		tris = append(tris, [3]int{face[0], face[i], face[i+1]})
	}
	return tris
}

func tessellateExtrusion(e *Extrusion) *Mesh {
	n := len(e.Profile)
	m := &Mesh{Vertices: make([]Vec, 0, 2*n)}
	m.Vertices = append(m.Vertices, e.Profile...)
	for _, p := range e.Profile {
		m.Vertices = append(m.Vertices, p.Add(e.Direction))
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		m.Faces = append(m.Faces, [3]int{i, j, n + j}, [3]int{i, n + j, n + i})
	}
	if e.Capped {
		bottom := make([]int, n)
		top := make([]int, n)
		for i := 0; i < n; i++ {
			bottom[n-1-i] = i
			top[i] = n + i
		}
		m.Faces = append(m.Faces, fan(bottom)...)
		m.Faces = append(m.Faces, fan(top)...)
	}
	return m
}

// Polyline returns the vertex chain of a curve-like object.
func Polyline(obj Object) ([]Vec, bool) {
	switch o := obj.(type) {
	case *LineCurve:
		return []Vec{o.From, o.To}, true
	case *PolylineCurve:
		if o.Closed && len(o.Points) > 0 {
			pts := append([]Vec{}, o.Points...)
			return append(pts, o.Points[0]), true
		}
		return o.Points, true
	}
	return nil, false
}
