// Package space provides the camera-space point model shared by the touch pipeline.
//
// Axes are in metres: X runs vertically along the wall, Y is the distance from
// the wall plane and Z runs horizontally along the wall away from the sensor.
package space

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Point3D is a single sample in camera space.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Unknown returns the point sources emit for pixels without a depth reading.
func Unknown() Point3D {
	return Point3D{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
}

// Valid reports whether every axis holds a finite value.
func (p Point3D) Valid() bool {
	return finite(p.X) && finite(p.Y) && finite(p.Z)
}

// Lateral returns the on-wall position with Z as the horizontal axis and X as
// the vertical axis.
func (p Point3D) Lateral() r2.Point {
	return r2.Point{X: p.Z, Y: p.X}
}

// Vector returns the point as an r3 vector.
func (p Point3D) Vector() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// WithLateral returns a copy of p with the on-wall position replaced by l.
// Depth is kept.
func (p Point3D) WithLateral(l r2.Point) Point3D {
	return Point3D{X: l.Y, Y: p.Y, Z: l.X}
}

// DiffersBy reports whether p and q differ by at least tol on any axis.
func (p Point3D) DiffersBy(q Point3D, tol float64) bool {
	d := p.Vector().Sub(q.Vector()).Abs()
	return d.X >= tol || d.Y >= tol || d.Z >= tol
}

// SpacePoint is a point plus the number of neighbours counted for it in the
// current frame.
type SpacePoint struct {
	Point3D
	Near int
}

// Cloud is one frame of projected depth pixels, indexed like the depth image.
type Cloud []Point3D

// Len returns the number of points including unknown ones.
func (c Cloud) Len() int { return len(c) }

// ValidCount returns the number of points with finite coordinates.
func (c Cloud) ValidCount() int {
	n := 0
	for _, p := range c {
		if p.Valid() {
			n++
		}
	}
	return n
}

// Clone returns a copy that does not share storage with c.
func (c Cloud) Clone() Cloud {
	if c == nil {
		return nil
	}
	out := make(Cloud, len(c))
	copy(out, c)
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
