package scene

import (
	"sync"

	"cogentcore.org/core/math32"
	"github.com/lucasb-eyer/go-colorful"
)

// Scene is the set of nodes shown in a viewport. Light nodes persist across
// Replace calls.
type Scene struct {
	Background colorful.Color
	children   []*Node
}

// NewScene creates a scene with the default lighting: a directional light of
// intensity 2 and an ambient light.
func NewScene(background colorful.Color) *Scene {
	sc := &Scene{Background: background}
	sc.Add(NewDirectionalLight(2))
	sc.Add(NewAmbientLight(1))
	return sc
}

// Add appends n to the scene.
func (s *Scene) Add(n *Node) {
	s.children = append(s.children, n)
}

// Children returns a copy of the top-level nodes.
func (s *Scene) Children() []*Node {
	out := make([]*Node, len(s.children))
	copy(out, s.children)
	return out
}

// Replace removes every non-light child and inserts graph. It returns the
// number of children removed.
func (s *Scene) Replace(graph *Node) int {
	kept := s.children[:0:0]
	for _, c := range s.children {
		if c.IsLight() {
			kept = append(kept, c)
		}
	}
	removed := len(s.children) - len(kept)
	if graph != nil {
		kept = append(kept, graph)
	}
	s.children = kept
	return removed
}

// Bounds is the union of the bounds of all non-light children.
func (s *Scene) Bounds() math32.Box3 {
	box := math32.B3Empty()
	for _, c := range s.children {
		if c.IsLight() {
			continue
		}
		if b := c.Bounds(); !b.IsEmpty() {
			box.ExpandByBox(b)
		}
	}
	return box
}

// Lights returns the light nodes.
func (s *Scene) Lights() []*Node {
	var out []*Node
	for _, c := range s.children {
		if c.IsLight() {
			out = append(out, c)
		}
	}
	return out
}

// Snapshot is a consistent copy of a viewport's state.
type Snapshot struct {
	Width      int
	Height     int
	Background colorful.Color
	Children   []*Node
	Camera     Camera
	Controls   Controls
}

// Viewport couples a scene with the camera looking at it. Readers such as the
// render loop see either the state before or after an Update, never a mix.
type Viewport struct {
	mu       sync.RWMutex
	scene    *Scene
	camera   Camera
	controls Controls
	width    int
	height   int
}

// NewViewport creates a viewport of the given pixel size. The camera aspect
// follows the size.
func NewViewport(sc *Scene, cam Camera, width, height int) *Viewport {
	v := &Viewport{
		scene:    sc,
		camera:   cam,
		controls: DefaultControls(),
	}
	v.resize(width, height)
	return v
}

// Resize changes the pixel size and the camera aspect.
func (v *Viewport) Resize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resize(width, height)
}

func (v *Viewport) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	v.width, v.height = width, height
	v.camera.Aspect = float32(width) / float32(height)
}

// Update runs fn with exclusive access to the scene and camera.
func (v *Viewport) Update(fn func(sc *Scene, cam *Camera, ctl *Controls)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.scene, &v.camera, &v.controls)
}

// Snapshot returns the current state. Nodes are shared, not copied.
func (v *Viewport) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Snapshot{
		Width:      v.width,
		Height:     v.height,
		Background: v.scene.Background,
		Children:   v.scene.Children(),
		Camera:     v.camera,
		Controls:   v.controls,
	}
}
