// Package calibrate derives the wall rectangle from four touch-and-release
// gestures, one per edge.
package calibrate

import "github.com/davidxiao93/TouchWall/internal/screen"

// State is the calibration step currently waiting for input.
type State int

const (
	Idle State = iota
	CapturingReference
	TouchRight
	TouchLeft
	TouchTop
	TouchBottom
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case CapturingReference:
		return "capturing_reference"
	case TouchRight:
		return "touch_right"
	case TouchLeft:
		return "touch_left"
	case TouchTop:
		return "touch_top"
	case TouchBottom:
		return "touch_bottom"
	default:
		return "unknown"
	}
}

// edge returns the edge a touch state commits and the state after it.
func (s State) edge() (screen.Edge, State) {
	switch s {
	case TouchRight:
		return screen.EdgeRight, TouchLeft
	case TouchLeft:
		return screen.EdgeLeft, TouchTop
	case TouchTop:
		return screen.EdgeTop, TouchBottom
	case TouchBottom:
		return screen.EdgeBottom, Idle
	}
	return 0, s
}

// Latch debounces the calibration touch: it arms on release and triggers on
// contact.
type Latch int

const (
	Armed Latch = iota
	Triggered
)

func (l Latch) String() string {
	if l == Triggered {
		return "triggered"
	}
	return "armed"
}
