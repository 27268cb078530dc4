package screen

import (
	"fmt"
	"strings"
)

// Edge names one side of the wall rectangle.
type Edge int

const (
	EdgeTop Edge = iota + 1
	EdgeBottom
	EdgeLeft
	EdgeRight
)

func (e Edge) String() string {
	switch e {
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	default:
		return "unknown"
	}
}

// ParseEdge converts a name such as "left" to an Edge.
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top":
		return EdgeTop, nil
	case "bottom":
		return EdgeBottom, nil
	case "left":
		return EdgeLeft, nil
	case "right":
		return EdgeRight, nil
	default:
		return 0, fmt.Errorf("unknown edge %q", s)
	}
}

// Memento captures the four edges so a calibration can be rolled back.
type Memento struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// Snapshot captures the current edges.
func (g *Geometry) Snapshot() Memento {
	return Memento{Top: g.Top, Bottom: g.Bottom, Left: g.Left, Right: g.Right}
}

// Restore puts back edges captured by Snapshot. Thresholds are untouched.
func (g *Geometry) Restore(m Memento) {
	g.Top = m.Top
	g.Bottom = m.Bottom
	g.Left = m.Left
	g.Right = m.Right
}

// Edge returns the current value of one edge.
func (g *Geometry) Edge(e Edge) float64 {
	switch e {
	case EdgeTop:
		return g.Top
	case EdgeBottom:
		return g.Bottom
	case EdgeLeft:
		return g.Left
	case EdgeRight:
		return g.Right
	}
	return 0
}

// SetEdge overwrites one edge.
func (g *Geometry) SetEdge(e Edge, v float64) {
	switch e {
	case EdgeTop:
		g.Top = v
	case EdgeBottom:
		g.Bottom = v
	case EdgeLeft:
		g.Left = v
	case EdgeRight:
		g.Right = v
	}
}

// Nudge shifts one edge by delta metres. It does not clamp.
func (g *Geometry) Nudge(e Edge, delta float64) {
	g.SetEdge(e, g.Edge(e)+delta)
}
