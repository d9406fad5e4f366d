package render_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/aretw0/geosolve/pkg/geometry"
	"github.com/aretw0/geosolve/pkg/render"
	"github.com/aretw0/geosolve/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func presentedViewport(t *testing.T, styles scene.StyleTable) *scene.Viewport {
	t.Helper()
	bg, err := scene.ParseColor("black")
	require.NoError(t, err)
	vp := scene.NewViewport(scene.NewScene(bg), scene.DefaultCamera(), 64, 48)

	doc := geometry.NewDocument()
	defer doc.Release()
	require.NoError(t, doc.Add(&geometry.Brep{
		Vertices: []geometry.Vec{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
		},
		Faces: [][]int{
			{0, 3, 2, 1}, {4, 5, 6, 7},
			{0, 1, 5, 4}, {1, 2, 6, 5},
			{2, 3, 7, 6}, {3, 0, 4, 7},
		},
	}, nil))
	require.NoError(t, doc.Add(&geometry.LineCurve{From: geometry.Vec{0, 0, 0}, To: geometry.Vec{1, 1, 1}}, nil))

	_, err = scene.NewPresenter(vp, scene.WithStyles(styles)).Present(context.Background(), doc, nil)
	require.NoError(t, err)
	return vp
}

func litPixels(img *image.NRGBA) int {
	n := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 16 || img.Pix[i+1] > 16 || img.Pix[i+2] > 16 {
			n++
		}
	}
	return n
}

func TestRasterizer_EmptyScene(t *testing.T) {
	bg, err := scene.ParseColor("whitesmoke")
	require.NoError(t, err)
	vp := scene.NewViewport(scene.NewScene(bg), scene.DefaultCamera(), 32, 16)

	img := render.NewRasterizer().Render(vp.Snapshot())
	assert.Equal(t, image.Rect(0, 0, 32, 16), img.Bounds())
	c := img.NRGBAAt(5, 5)
	assert.Equal(t, uint8(245), c.R)
	assert.Equal(t, uint8(255), c.A)
}

func TestRasterizer_DrawsGeometry(t *testing.T) {
	preset, err := scene.StylePreset(scene.PresetGeoUpload)
	require.NoError(t, err)

	for name, styles := range map[string]scene.StyleTable{
		"wireframe": preset.Styles,
		"shaded":    {},
	} {
		t.Run(name, func(t *testing.T) {
			vp := presentedViewport(t, styles)
			img := render.NewRasterizer(render.WithSupersample(1)).Render(vp.Snapshot())
			assert.Equal(t, 64, img.Bounds().Dx())
			assert.Greater(t, litPixels(img), 20)
		})
	}
}

func TestRasterizer_PNG(t *testing.T) {
	vp := presentedViewport(t, scene.StyleTable{})
	data, err := render.NewRasterizer().RenderPNG(vp.Snapshot())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
}

func TestLoop_RedrawsAttachedViewports(t *testing.T) {
	loop := render.NewLoop(render.WithFPS(100))
	loop.Attach("a", presentedViewport(t, scene.StyleTable{}))
	loop.Attach("b", presentedViewport(t, scene.StyleTable{}))

	require.NoError(t, loop.Start(context.Background()))
	assert.Error(t, loop.Start(context.Background()))

	first, ok := loop.Frame("a")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		f, ok := loop.Frame("a")
		return ok && f.Seq > first.Seq
	}, time.Second, 5*time.Millisecond)

	loop.Stop()
	loop.Stop()

	loop.Detach("b")
	_, ok = loop.Frame("b")
	assert.False(t, ok)
	assert.Equal(t, 1, loop.Draw())
}
