package pointer

import (
	"github.com/golang/geo/r2"

	"github.com/davidxiao93/TouchWall/internal/screen"
)

// State is the touch gesture currently in progress for one track.
type State int

const (
	Idle State = iota
	Move
	ButtonDown
	Dragging
	Scrolling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Move:
		return "move"
	case ButtonDown:
		return "button_down"
	case Dragging:
		return "dragging"
	case Scrolling:
		return "scrolling"
	default:
		return "unknown"
	}
}

// Config holds the lateral distances used by the machine, in metres.
type Config struct {
	// DragThreshold is how far a pressed finger must travel to start a drag.
	DragThreshold float64
	// ScrollDeadband is the vertical travel that produces one wheel tick.
	ScrollDeadband float64
	// ScrollStripWidth is the width of the band along the right edge that
	// scrolls instead of clicking.
	ScrollStripWidth float64
}

// DefaultConfig returns the stock distances.
func DefaultConfig() Config {
	return Config{
		DragThreshold:    0.01,
		ScrollDeadband:   0.02,
		ScrollStripWidth: 0.05,
	}
}

// Machine converts one track's positions into pointer events.
type Machine struct {
	cfg    Config
	state  State
	anchor r2.Point
}

// NewMachine returns an idle machine.
func NewMachine(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

// State returns the current gesture state.
func (m *Machine) State() State { return m.state }

// Pressed reports whether the machine holds the button down.
func (m *Machine) Pressed() bool {
	return m.state == ButtonDown || m.state == Dragging
}

// Step advances the machine with a smoothed lateral position and the raw
// distance from the wall. It reports lost when the point is too far from the
// wall to be tracked; the caller should then drop the track's smoothing
// history.
func (m *Machine) Step(pos r2.Point, depth float64, g screen.Geometry, caps Capability, sink Sink) (lost bool) {
	switch m.state {
	case Idle:
		m.state = Move
		return m.hover(pos, depth, g, caps, sink)

	case Move:
		return m.hover(pos, depth, g, caps, sink)

	case ButtonDown:
		if depth > g.Up {
			sink.ButtonUp()
			m.state = Move
			return false
		}
		if pos.Sub(m.anchor).Norm() > m.cfg.DragThreshold {
			m.state = Dragging
			if caps.CanMove() {
				m.moveTo(pos, g, sink)
			}
		}

	case Dragging:
		if depth > g.Up {
			sink.ButtonUp()
			m.state = Move
			return false
		}
		if caps.CanMove() {
			m.moveTo(pos, g, sink)
		}

	case Scrolling:
		if depth > g.Up {
			m.state = Move
			return false
		}
		if !caps.CanScroll() {
			return false
		}
		drift := pos.Y - m.anchor.Y
		switch {
		case drift > m.cfg.ScrollDeadband:
			sink.Scroll(1)
			m.anchor = pos
		case drift < -m.cfg.ScrollDeadband:
			sink.Scroll(-1)
			m.anchor = pos
		}
	}
	return false
}

// hover handles a finger that is not pressing.
func (m *Machine) hover(pos r2.Point, depth float64, g screen.Geometry, caps Capability, sink Sink) bool {
	switch {
	case depth < g.Down && caps.CanScroll() && m.inScrollStrip(pos, g):
		m.state = Scrolling
		m.anchor = pos
	case depth < g.Down && caps.CanClick():
		m.moveTo(pos, g, sink)
		sink.ButtonDown()
		m.state = ButtonDown
		m.anchor = pos
	case depth < g.Move:
		if caps.CanMove() {
			m.moveTo(pos, g, sink)
		}
	default:
		return true
	}
	return false
}

// inScrollStrip reports whether pos lies in the band along the right edge.
// While scrolling is enabled that band is excluded from the click region.
func (m *Machine) inScrollStrip(pos r2.Point, g screen.Geometry) bool {
	return pos.X > g.Right-m.cfg.ScrollStripWidth && pos.X < g.Right
}

func (m *Machine) moveTo(pos r2.Point, g screen.Geometry, sink Sink) {
	x, y := g.Normalize(pos)
	sink.MoveTo(x, y)
}

// Release ends the gesture because the track disappeared. A held button is
// released.
func (m *Machine) Release(sink Sink) {
	if m.Pressed() {
		sink.ButtonUp()
	}
	m.state = Idle
}
