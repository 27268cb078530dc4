package session

import "github.com/davidxiao93/TouchWall/internal/space"

// Touch is one tracked point in a processed frame.
type Touch struct {
	ID       int           `json:"id"`
	Raw      space.Point3D `json:"raw"`
	Smoothed space.Point3D `json:"smoothed"`
	// X and Y are the smoothed position in absolute pointer units.
	X     uint16 `json:"x"`
	Y     uint16 `json:"y"`
	State string `json:"state,omitempty"`
	Fresh bool   `json:"fresh,omitempty"`
}

// Result summarises one processed frame for observers.
type Result struct {
	Frame       uint64         `json:"frame"`
	Calibrating bool           `json:"calibrating"`
	Calibration string         `json:"calibration,omitempty"`
	Candidate   *space.Point3D `json:"candidate,omitempty"`
	MultiTouch  bool           `json:"multi_touch"`
	Touches     []Touch        `json:"touches"`
}

// Touched reports whether any point was tracked in the frame.
func (r Result) Touched() bool {
	return len(r.Touches) > 0 || r.Candidate != nil
}
