package capture

import (
	"math"

	"github.com/davidxiao93/TouchWall/internal/space"
)

// Orientation describes how the sensor is mounted against the wall.
type Orientation int

const (
	// OrientationSideways is the sensor lying on its side at the wall edge:
	// image columns run up the wall and image rows move away from it.
	OrientationSideways Orientation = iota
	// OrientationUpright swaps the two image axes.
	OrientationUpright
)

// Intrinsics are pinhole parameters for the depth sensor, in pixels, plus
// the usable depth range in millimetres.
type Intrinsics struct {
	Fx, Fy   float64
	Cx, Cy   float64
	MinDepth uint16
	MaxDepth uint16
}

// DefaultIntrinsics returns parameters for a 512x424 time-of-flight sensor.
func DefaultIntrinsics() Intrinsics {
	return Intrinsics{
		Fx:       365.5,
		Fy:       365.5,
		Cx:       256,
		Cy:       212,
		MinDepth: 500,
		MaxDepth: 8000,
	}
}

// Project converts a row-major depth image into wall-space points. Pixels
// with no reading or outside the depth range become space.Unknown().
func Project(depth []uint16, width, height int, intr Intrinsics, o Orientation) space.Cloud {
	cloud := make(space.Cloud, width*height)

	for v := 0; v < height; v++ {
		for u := 0; u < width; u++ {
			i := v*width + u
			if i >= len(depth) {
				cloud[i] = space.Unknown()
				continue
			}

			d := depth[i]
			if d == 0 || d < intr.MinDepth || (intr.MaxDepth > 0 && d > intr.MaxDepth) {
				cloud[i] = space.Unknown()
				continue
			}

			z := float64(d) / 1000
			cx := (float64(u) - intr.Cx) * z / intr.Fx
			cy := (intr.Cy - float64(v)) * z / intr.Fy
			if math.IsNaN(cx) || math.IsNaN(cy) {
				cloud[i] = space.Unknown()
				continue
			}

			switch o {
			case OrientationUpright:
				cloud[i] = space.Point3D{X: cy, Y: cx, Z: z}
			default:
				cloud[i] = space.Point3D{X: cx, Y: cy, Z: z}
			}
		}
	}

	return cloud
}
