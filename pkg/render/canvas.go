package render

import (
	"image"
	"image/color"

	"cogentcore.org/core/math32"
	"github.com/aretw0/geosolve/pkg/scene"
	"github.com/disintegration/imaging"
)

// canvas is a frame being drawn with a perspective projection and a depth
// buffer.
type canvas struct {
	img   *image.NRGBA
	depth []float32
	w, h  int

	eye                 math32.Vector3
	right, up, forward  math32.Vector3
	scale, aspect, near float32
}

func newCanvas(w, h int, snap scene.Snapshot) *canvas {
	c := &canvas{
		img:   imaging.New(w, h, rgba(snap.Background)),
		depth: make([]float32, w*h),
		w:     w,
		h:     h,
		eye:   snap.Camera.Position,
	}
	for i := range c.depth {
		c.depth[i] = math32.Infinity
	}

	forward := scene.ViewVector(snap.Camera, snap.Controls)
	if forward.Length() == 0 {
		forward = math32.Vec3(0, 0, -1)
	}
	c.forward = forward.Normal()
	up := snap.Camera.Up
	if up.Length() == 0 {
		up = math32.Vec3(0, 0, 1)
	}
	c.right = c.forward.Cross(up)
	if c.right.Length() == 0 {
		c.right = c.forward.Cross(math32.Vec3(0, 1, 0))
	}
	c.right = c.right.Normal()
	c.up = c.right.Cross(c.forward)

	fov := snap.Camera.FOV
	if !(fov > 0 && fov < 180) {
		fov = 45
	}
	c.scale = 1 / math32.Tan(fov*math32.Pi/360)
	c.aspect = float32(w) / float32(h)
	c.near = snap.Camera.Near
	if !(c.near > 0) {
		c.near = 1e-4
	}
	return c
}

// project maps a world point to pixel coordinates and view depth. ok is false
// for points in front of the near plane.
func (c *canvas) project(p math32.Vector3) (x, y, z float32, ok bool) {
	d := p.Sub(c.eye)
	z = d.Dot(c.forward)
	if z < c.near {
		return 0, 0, 0, false
	}
	ndcX := d.Dot(c.right) * c.scale / (z * c.aspect)
	ndcY := d.Dot(c.up) * c.scale / z
	x = (ndcX + 1) / 2 * float32(c.w)
	y = (1 - ndcY) / 2 * float32(c.h)
	return x, y, z, true
}

func (c *canvas) plot(x, y int, z float32, col color.NRGBA) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	i := y*c.w + x
	if z > c.depth[i] {
		return
	}
	c.depth[i] = z
	c.img.SetNRGBA(x, y, col)
}

// line draws a segment with Bresenham's algorithm.
func (c *canvas) line(a, b math32.Vector3, col color.NRGBA) {
	x0f, y0f, z0, ok0 := c.project(a)
	x1f, y1f, z1, ok1 := c.project(b)
	if !ok0 || !ok1 {
		return
	}
	if offscreen(x0f, y0f) || offscreen(x1f, y1f) {
		return
	}
	x0, y0 := int(x0f), int(y0f)
	x1, y1 := int(x1f), int(y1f)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	steps := max(dx, -dy)
	err := dx + dy
	for i := 0; ; i++ {
		t := float32(0)
		if steps > 0 {
			t = float32(i) / float32(steps)
		}
		// Lines win ties against faces they lie on.
		c.plot(x0, y0, (z0+(z1-z0)*t)*0.999, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *canvas) polyline(pts []math32.Vector3, col color.NRGBA) {
	for i := 1; i < len(pts); i++ {
		c.line(pts[i-1], pts[i], col)
	}
}

func (c *canvas) point(p math32.Vector3, size int, col color.NRGBA) {
	x, y, z, ok := c.project(p)
	if !ok {
		return
	}
	half := size / 2
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			c.plot(int(x)+dx, int(y)+dy, z, col)
		}
	}
}

func (c *canvas) mesh(n *scene.Node, lights lighting) {
	for _, f := range n.Faces {
		if f[0] >= len(n.Vertices) || f[1] >= len(n.Vertices) || f[2] >= len(n.Vertices) {
			continue
		}
		a, b, v := n.Vertices[f[0]], n.Vertices[f[1]], n.Vertices[f[2]]
		normal := b.Sub(a).Cross(v.Sub(a))
		if normal.Length() > 0 {
			normal = normal.Normal()
		}

		col := rgba(n.Material.Color)
		if n.Material.Type == scene.MaterialNormal {
			col = normalColor(normal)
		}
		if n.Material.Wireframe {
			c.line(a, b, col)
			c.line(b, v, col)
			c.line(v, a, col)
			continue
		}
		if n.Material.Type != scene.MaterialNormal {
			k := lights.shade(normal)
			col = color.NRGBA{
				R: uint8(float32(col.R) * k),
				G: uint8(float32(col.G) * k),
				B: uint8(float32(col.B) * k),
				A: 255,
			}
		}
		c.triangle(a, b, v, col)
	}
}

// triangle fills a triangle with per-pixel depth testing.
func (c *canvas) triangle(a, b, v math32.Vector3, col color.NRGBA) {
	ax, ay, az, ok0 := c.project(a)
	bx, by, bz, ok1 := c.project(b)
	vx, vy, vz, ok2 := c.project(v)
	if !ok0 || !ok1 || !ok2 || offscreen(ax, ay) || offscreen(bx, by) || offscreen(vx, vy) {
		return
	}
	area := (bx-ax)*(vy-ay) - (by-ay)*(vx-ax)
	if area == 0 {
		return
	}
	minX := max(int(math32.Min(ax, math32.Min(bx, vx))), 0)
	maxX := min(int(math32.Max(ax, math32.Max(bx, vx)))+1, c.w-1)
	minY := max(int(math32.Min(ay, math32.Min(by, vy))), 0)
	maxY := min(int(math32.Max(ay, math32.Max(by, vy)))+1, c.h-1)

	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := ((bx-px)*(vy-py) - (by-py)*(vx-px)) / area
			w1 := ((vx-px)*(ay-py) - (vy-py)*(ax-px)) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			c.plot(x, y, w0*az+w1*bz+w2*vz, col)
		}
	}
}

// offscreen reports projected coordinates too large to rasterize.
func offscreen(x, y float32) bool {
	const limit = 1 << 20
	return math32.Abs(x) > limit || math32.Abs(y) > limit
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
