// Package fixture builds synthetic depth clouds for tests: an empty wall,
// fingertips and the touch sequences the pipeline is expected to recognise.
package fixture

import "github.com/davidxiao93/TouchWall/internal/space"

// Heights a finger passes through during a tap: hover, approach, contact,
// release and lift-off.
var TapHeights = []float64{0.15, 0.075, 0.001, 0.025, 0.05}

// EdgeTapHeights are the heights used for a calibration edge touch.
var EdgeTapHeights = []float64{0.08, 0.003, 0.05}

// Wall returns the empty-wall background: a static object well away from the
// surface and one unreadable pixel.
func Wall() space.Cloud {
	return space.Cloud{
		{X: 0, Y: 0.6, Z: 0.9},
		{X: 0, Y: 0.6, Z: 0.91},
		{X: 0, Y: 0.6, Z: 0.92},
		space.Unknown(),
	}
}

// FingerAt returns a small blob of points around a fingertip so it survives
// the single-touch density filter.
func FingerAt(x, y, z float64) space.Cloud {
	return space.Cloud{
		{X: x, Y: y, Z: z},
		{X: x + 0.005, Y: y + 0.002, Z: z + 0.005},
		{X: x - 0.005, Y: y + 0.004, Z: z},
	}
}

// Tap returns one cloud per TapHeights entry with a finger at (x, z).
func Tap(x, z float64) []space.Cloud {
	clouds := make([]space.Cloud, 0, len(TapHeights))
	for _, y := range TapHeights {
		clouds = append(clouds, FingerAt(x, y, z))
	}
	return clouds
}

// EdgeTap returns the wall with its first pixel pressed against the surface
// at (x, z), one cloud per EdgeTapHeights entry.
func EdgeTap(x, z float64) []space.Cloud {
	clouds := make([]space.Cloud, 0, len(EdgeTapHeights))
	for _, y := range EdgeTapHeights {
		c := Wall()
		c[0] = space.Point3D{X: x, Y: y, Z: z}
		clouds = append(clouds, c)
	}
	return clouds
}

// Calibration returns the frames of a full calibration after it has been
// started: the reference wall, then a touch on the right, left, top and
// bottom edges. Top and bottom are touched midway between left and right.
func Calibration(right, left, top, bottom float64) []space.Cloud {
	mid := (left + right) / 2
	clouds := []space.Cloud{Wall()}
	clouds = append(clouds, EdgeTap(0, right)...)
	clouds = append(clouds, EdgeTap(0, left)...)
	clouds = append(clouds, EdgeTap(top, mid)...)
	clouds = append(clouds, EdgeTap(bottom, mid)...)
	return clouds
}
