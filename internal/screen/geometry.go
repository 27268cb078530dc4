// Package screen holds the calibrated wall rectangle and the touch distance
// thresholds used by the pointer pipeline.
package screen

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/davidxiao93/TouchWall/internal/space"
)

// MaxCoord is the upper end of the absolute pointer range.
const MaxCoord = 65535

// NudgeStep is the size of one manual edge adjustment in metres.
const NudgeStep = 0.01

// Default thresholds and edges, in metres.
const (
	DefaultDown   = 0.005
	DefaultUp     = 0.03
	DefaultMove   = 0.10
	DefaultDetect = 0.15

	DefaultLeft   = 0.5
	DefaultRight  = 1.0
	DefaultTop    = 0.15
	DefaultBottom = -0.14
)

// ErrInvalidGeometry is returned when edges or thresholds are misordered or
// not finite.
var ErrInvalidGeometry = errors.New("invalid screen geometry")

// Thresholds are the wall-distance bands that drive touch hysteresis.
// Down < Up < Move < Detect always holds for a valid set.
type Thresholds struct {
	Down   float64 `json:"down"`
	Up     float64 `json:"up"`
	Move   float64 `json:"move"`
	Detect float64 `json:"detect"`
}

// DefaultThresholds returns the stock touch bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Down:   DefaultDown,
		Up:     DefaultUp,
		Move:   DefaultMove,
		Detect: DefaultDetect,
	}
}

// NewThresholds builds a threshold set, rejecting misordered bands.
func NewThresholds(down, up, move, detect float64) (Thresholds, error) {
	t := Thresholds{Down: down, Up: up, Move: move, Detect: detect}
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// Validate checks 0 < Down < Up < Move < Detect.
func (t Thresholds) Validate() error {
	for _, v := range []float64{t.Down, t.Up, t.Move, t.Detect} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite threshold", ErrInvalidGeometry)
		}
	}
	if !(0 < t.Down && t.Down < t.Up && t.Up < t.Move && t.Move < t.Detect) {
		return fmt.Errorf("%w: thresholds must satisfy 0 < down(%g) < up(%g) < move(%g) < detect(%g)",
			ErrInvalidGeometry, t.Down, t.Up, t.Move, t.Detect)
	}
	return nil
}

// Geometry is the calibrated wall rectangle plus its touch thresholds.
type Geometry struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`

	Thresholds
}

// DefaultGeometry returns the geometry used before any calibration has run.
func DefaultGeometry() Geometry {
	return Geometry{
		Top:        DefaultTop,
		Bottom:     DefaultBottom,
		Left:       DefaultLeft,
		Right:      DefaultRight,
		Thresholds: DefaultThresholds(),
	}
}

// Validate checks edge ordering and thresholds. It is meant for load and
// commit boundaries; per-frame code assumes a valid geometry.
func (g Geometry) Validate() error {
	for _, v := range []float64{g.Top, g.Bottom, g.Left, g.Right} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite edge", ErrInvalidGeometry)
		}
	}
	if g.Left >= g.Right {
		return fmt.Errorf("%w: left edge %g must be less than right edge %g", ErrInvalidGeometry, g.Left, g.Right)
	}
	if g.Bottom >= g.Top {
		return fmt.Errorf("%w: bottom edge %g must be less than top edge %g", ErrInvalidGeometry, g.Bottom, g.Top)
	}
	return g.Thresholds.Validate()
}

// Width is the horizontal extent of the rectangle.
func (g Geometry) Width() float64 { return g.Right - g.Left }

// Height is the vertical extent of the rectangle.
func (g Geometry) Height() float64 { return g.Top - g.Bottom }

// Contains reports whether p lies inside the detection volume in front of the
// rectangle.
func (g Geometry) Contains(p space.Point3D) bool {
	return g.Bottom < p.X && p.X < g.Top &&
		0 < p.Y && p.Y < g.Detect &&
		g.Left < p.Z && p.Z < g.Right
}

// Normalize maps a lateral position onto the absolute pointer range. The
// vertical axis is inverted so Top maps to 0.
func (g Geometry) Normalize(l r2.Point) (x, y uint16) {
	fx := MaxCoord * (l.X - g.Left) / g.Width()
	fy := MaxCoord * (g.Top - l.Y) / g.Height()
	return clampCoord(fx), clampCoord(fy)
}

func clampCoord(v float64) uint16 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= MaxCoord:
		return MaxCoord
	default:
		return uint16(math.Round(v))
	}
}
