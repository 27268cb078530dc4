// Package capture provides depth frame sources and depth image helpers.
package capture

import (
	"errors"
	"fmt"

	"github.com/davidxiao93/TouchWall/internal/space"
)

// Default source settings.
const (
	DefaultFPS    = 5
	DefaultWidth  = 512
	DefaultHeight = 424
)

var (
	// ErrSourceNotOpen is returned when reading from a source that is not open.
	ErrSourceNotOpen = errors.New("source is not open")
	// ErrNoFrames is returned when a playback source has nothing left to play.
	ErrNoFrames = errors.New("no more frames")
	// ErrFrameSize is returned when a frame's buffers do not match its dimensions.
	ErrFrameSize = errors.New("frame size mismatch")
)

// Frame is one depth capture and its projected point cloud.
type Frame struct {
	// Depth holds raw millimetre readings in row-major order. It may be nil
	// for sources that only deliver points.
	Depth     []uint16
	Width     int
	Height    int
	Points    space.Cloud
	Timestamp int64
}

// Validate checks that the point cloud (and depth buffer, when present)
// holds exactly Width*Height entries.
func (f *Frame) Validate() error {
	n := f.Width * f.Height
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrFrameSize, f.Width, f.Height)
	}
	if len(f.Points) != n {
		return fmt.Errorf("%w: %d points for %dx%d", ErrFrameSize, len(f.Points), f.Width, f.Height)
	}
	if f.Depth != nil && len(f.Depth) != n {
		return fmt.Errorf("%w: %d depth samples for %dx%d", ErrFrameSize, len(f.Depth), f.Width, f.Height)
	}
	return nil
}

// Source defines the interface for depth frame sources.
type Source interface {
	Open() error
	Close() error
	ReadFrame() (*Frame, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}
