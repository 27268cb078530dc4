// Package robot delivers pointer events to the local desktop.
package robot

import (
	"github.com/go-vgo/robotgo"

	"github.com/davidxiao93/TouchWall/internal/pointer"
	"github.com/davidxiao93/TouchWall/internal/screen"
)

var _ pointer.Sink = (*Sink)(nil)

// Sink injects events into the desktop session through robotgo.
type Sink struct {
	width  int
	height int
}

// NewSink sizes the sink to the primary display.
func NewSink() *Sink {
	w, h := robotgo.GetScreenSize()
	return &Sink{width: w, height: h}
}

// ScreenSize returns the display size in pixels.
func (s *Sink) ScreenSize() (int, int) {
	return s.width, s.height
}

func (s *Sink) MoveTo(x, y uint16) {
	px, py := toPixels(x, s.width), toPixels(y, s.height)
	robotgo.Move(px, py)
}

func (s *Sink) ButtonDown() {
	robotgo.Toggle("left")
}

func (s *Sink) ButtonUp() {
	robotgo.Toggle("left", "up")
}

func (s *Sink) Scroll(delta int) {
	robotgo.Scroll(0, delta)
}

func toPixels(v uint16, extent int) int {
	if extent <= 1 {
		return 0
	}
	return int(v) * (extent - 1) / screen.MaxCoord
}
