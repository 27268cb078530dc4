package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ReplaySource plays back a directory of 16-bit PNG depth images, in file
// name order, as if they came from a live sensor.
type ReplaySource struct {
	dir         string
	intr        Intrinsics
	orientation Orientation
	loop        bool

	mu      sync.Mutex
	files   []string
	index   int
	fps     int
	running bool
}

// NewReplaySource creates a ReplaySource reading from dir.
func NewReplaySource(dir string, intr Intrinsics, o Orientation, loop bool) *ReplaySource {
	return &ReplaySource{
		dir:         dir,
		intr:        intr,
		orientation: o,
		loop:        loop,
		fps:         DefaultFPS,
	}
}

// Open lists the depth images in the directory.
func (s *ReplaySource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read replay directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		files = append(files, filepath.Join(s.dir, e.Name()))
	}
	if len(files) == 0 {
		return fmt.Errorf("no depth images in %s", s.dir)
	}
	sort.Strings(files)

	s.files = files
	s.index = 0
	s.running = true
	return nil
}

// Close stops playback.
func (s *ReplaySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.files = nil
	return nil
}

// ReadFrame decodes the next image and projects it into wall space.
func (s *ReplaySource) ReadFrame() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSourceNotOpen
	}

	if s.index >= len(s.files) {
		if !s.loop {
			return nil, ErrNoFrames
		}
		s.index = 0
	}

	path := s.files[s.index]
	s.index++

	depth, width, height, err := readDepthImage(path)
	if err != nil {
		return nil, err
	}

	return &Frame{
		Depth:     depth,
		Width:     width,
		Height:    height,
		Points:    Project(depth, width, height, s.intr, s.orientation),
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// SetFPS sets the playback rate hint. Values less than or equal to 0 are ignored.
func (s *ReplaySource) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fps = fps
}

// FPS returns the playback rate hint.
func (s *ReplaySource) FPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fps
}

// IsOpen returns true if playback is running.
func (s *ReplaySource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// readDepthImage loads a single-channel 16-bit image and copies out its samples.
func readDepthImage(path string) ([]uint16, int, int, error) {
	mat := gocv.IMRead(path, gocv.IMReadAnyDepth)
	defer mat.Close()

	if mat.Empty() {
		return nil, 0, 0, fmt.Errorf("failed to read depth image %s", path)
	}
	if mat.Type() != gocv.MatTypeCV16UC1 {
		return nil, 0, 0, fmt.Errorf("depth image %s is not 16-bit single channel", path)
	}

	data, err := mat.DataPtrUint16()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("read depth samples from %s: %w", path, err)
	}

	depth := make([]uint16, len(data))
	copy(depth, data)
	return depth, mat.Cols(), mat.Rows(), nil
}
