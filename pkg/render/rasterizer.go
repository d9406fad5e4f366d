package render

import (
	"bytes"
	"image"
	"image/color"

	"cogentcore.org/core/math32"
	"github.com/aretw0/geosolve/pkg/scene"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultSupersample is the factor frames are drawn at before being scaled
// down to the viewport size.
const DefaultSupersample = 2

// Rasterizer draws viewport snapshots to images.
type Rasterizer struct {
	supersample int
	pointSize   int
}

// RasterizerOption configures the Rasterizer.
type RasterizerOption func(*Rasterizer)

// WithSupersample sets the supersampling factor. Values below 1 disable it.
func WithSupersample(factor int) RasterizerOption {
	return func(r *Rasterizer) {
		r.supersample = max(factor, 1)
	}
}

// WithPointSize sets the side in pixels of drawn points.
func WithPointSize(px int) RasterizerOption {
	return func(r *Rasterizer) {
		r.pointSize = max(px, 1)
	}
}

// NewRasterizer creates a Rasterizer.
func NewRasterizer(opts ...RasterizerOption) *Rasterizer {
	r := &Rasterizer{
		supersample: DefaultSupersample,
		pointSize:   3,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws snap at its viewport size.
func (r *Rasterizer) Render(snap scene.Snapshot) *image.NRGBA {
	w, h := snap.Width, snap.Height
	if w <= 0 || h <= 0 {
		w, h = 1, 1
	}
	ss := r.supersample
	c := newCanvas(w*ss, h*ss, snap)
	lights := collectLights(snap.Children)

	for _, child := range snap.Children {
		child.Walk(func(n *scene.Node) {
			switch n.Kind {
			case scene.NodeLine:
				c.polyline(n.Vertices, rgba(n.Material.Color))
			case scene.NodePoints:
				for _, v := range n.Vertices {
					c.point(v, r.pointSize*ss, rgba(n.Material.Color))
				}
			case scene.NodeMesh:
				c.mesh(n, lights)
			}
		})
	}

	if ss == 1 {
		return c.img
	}
	return imaging.Resize(c.img, w, h, imaging.Lanczos)
}

// RenderPNG draws snap and encodes it as PNG.
func (r *Rasterizer) RenderPNG(snap scene.Snapshot) ([]byte, error) {
	return EncodePNG(r.Render(snap))
}

// EncodePNG encodes a drawn frame.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rgba(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// normalColor maps a unit normal to a color the way a normal material does.
func normalColor(n math32.Vector3) color.NRGBA {
	return rgba(colorful.Color{
		R: float64(n.X*0.5 + 0.5),
		G: float64(n.Y*0.5 + 0.5),
		B: float64(n.Z*0.5 + 0.5),
	})
}

type lighting struct {
	ambient     float32
	directional []math32.Vector3 // toward the light, scaled by intensity
}

func collectLights(children []*scene.Node) lighting {
	var l lighting
	for _, c := range children {
		if !c.IsLight() || c.Light == nil {
			continue
		}
		switch c.Light.Type {
		case scene.LightAmbient:
			l.ambient += c.Light.Intensity
		case scene.LightDirectional:
			if c.Light.Position.Length() > 0 {
				l.directional = append(l.directional, c.Light.Position.Normal().MulScalar(c.Light.Intensity))
			}
		}
	}
	return l
}

// shade returns the light factor for a face with unit normal n.
func (l lighting) shade(n math32.Vector3) float32 {
	f := l.ambient
	for _, d := range l.directional {
		f += math32.Abs(n.Dot(d))
	}
	return math32.Min(f*0.5, 1)
}
