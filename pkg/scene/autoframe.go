package scene

import (
	"cogentcore.org/core/math32"
)

const (
	// FitOffset is the margin applied to the fitted camera distance.
	FitOffset = 1.2

	// MinFitSize is the smallest extent framed. Empty or coincident geometry
	// is framed as if it had this size.
	MinFitSize = 1e-3
)

var defaultDirection = ViewVector(DefaultCamera(), DefaultControls())

func finite(x float32) bool {
	return !math32.IsNaN(x) && !math32.IsInf(x, 0)
}

func finiteVec(v math32.Vector3) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

// AutoFrame points the camera at the center of the scene's non-light bounds
// from far enough away to fit them, keeping the current view direction. It
// sets the clip planes and the orbit limit from the fitted distance, which it
// returns.
func AutoFrame(sc *Scene, cam *Camera, ctl *Controls) float32 {
	var center math32.Vector3
	maxSize := float32(0)

	box := sc.Bounds()
	if !box.IsEmpty() {
		center = box.Center()
		size := box.Size()
		maxSize = math32.Max(size.X, math32.Max(size.Y, size.Z))
	}
	if !finiteVec(center) {
		center = math32.Vector3{}
	}
	if !finite(maxSize) || maxSize < MinFitSize {
		maxSize = MinFitSize
	}

	fov := cam.FOV
	if !(fov > 0 && fov < 180) {
		fov = DefaultCamera().FOV
	}
	aspect := cam.Aspect
	if !(aspect > 0) || !finite(aspect) {
		aspect = 1
	}

	fitHeight := maxSize / (2 * math32.Atan(math32.Pi*fov/360))
	fitWidth := fitHeight / aspect
	distance := FitOffset * math32.Max(fitHeight, fitWidth)

	dir := ViewVector(*cam, *ctl)
	if l := dir.Length(); !(l > 0) || !finite(l) {
		dir = defaultDirection
	}
	dir = dir.Normal().MulScalar(distance)

	ctl.MaxDistance = distance * 10
	ctl.Target = center

	cam.Near = distance / 100
	cam.Far = distance * 100
	cam.Position = center.Sub(dir)
	return distance
}
