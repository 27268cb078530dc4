package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MotionDetector reports scene changes between consecutive depth frames.
// The app uses it to leave idle mode before anything reaches the wall.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	width       int
	height      int
	initialized bool
	mu          sync.Mutex
}

// Motion detection constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (9x9)
	GaussianBlurSize = 9
	// DiffThreshold is the binary threshold on the 8-bit preview difference.
	DiffThreshold = 12
)

// NewMotionDetector creates a new MotionDetector with the given threshold.
// The threshold is the percentage of pixels that must change.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares a frame's depth buffer with the previous one.
// Returns whether motion was detected and the percentage of pixels that changed.
// Frames without depth, or whose size differs from the baseline, reset the baseline.
func (m *MotionDetector) Detect(f *Frame) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f == nil || f.Depth == nil || f.Width <= 0 || f.Height <= 0 || len(f.Depth) != f.Width*f.Height {
		return false, 0
	}

	gray, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC1, Gray(f.Depth))
	if err != nil {
		return false, 0
	}
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized || f.Width != m.width || f.Height != m.height {
		blurred.CopyTo(&m.prevGray)
		m.width, m.height = f.Width, f.Height
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	changePercent := float64(nonZero) / float64(thresh.Rows()*thresh.Cols()) * 100.0

	blurred.CopyTo(&m.prevGray)

	return changePercent > m.threshold, changePercent
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.Reset()
}

// SetThreshold sets the motion detection threshold.
// Values less than or equal to 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = threshold
}
