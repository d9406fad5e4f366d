package scene

import (
	"cogentcore.org/core/math32"
)

// Camera is a perspective camera.
type Camera struct {
	// FOV is the vertical field of view in degrees.
	FOV float32
	// Aspect is width / height.
	Aspect   float32
	Near     float32
	Far      float32
	Position math32.Vector3
	Up       math32.Vector3
}

// DefaultCamera looks at the origin from (1, -1, 1) with Z up, like a
// perspective view in a CAD tool.
func DefaultCamera() Camera {
	return Camera{
		FOV:      45,
		Aspect:   1,
		Near:     1,
		Far:      1000,
		Position: math32.Vec3(1, -1, 1),
		Up:       math32.Vec3(0, 0, 1),
	}
}

// Controls is the orbit state around the camera.
type Controls struct {
	Target math32.Vector3
	// MaxDistance limits how far the camera may orbit from Target. Zero means
	// no limit.
	MaxDistance float32
}

// DefaultControls orbits the origin with no distance limit.
func DefaultControls() Controls {
	return Controls{}
}

// ViewVector is the vector from the camera position to the orbit target.
func ViewVector(cam Camera, ctl Controls) math32.Vector3 {
	return ctl.Target.Sub(cam.Position)
}
