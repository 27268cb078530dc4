// Package session owns the mutable touch-wall state and runs each depth frame
// through calibration or tracking.
package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/davidxiao93/TouchWall/internal/calibrate"
	"github.com/davidxiao93/TouchWall/internal/monitoring"
	"github.com/davidxiao93/TouchWall/internal/pointer"
	"github.com/davidxiao93/TouchWall/internal/screen"
	"github.com/davidxiao93/TouchWall/internal/smooth"
	"github.com/davidxiao93/TouchWall/internal/space"
	"github.com/davidxiao93/TouchWall/internal/tracker"
)

// ErrCalibrating is returned by commands that are refused while a calibration
// is running.
var ErrCalibrating = errors.New("calibration in progress")

// Calibration run outcomes passed to RunLog.
const (
	RunCompleted = "completed"
	RunCancelled = "cancelled"
	RunRejected  = "rejected"
)

// GeometrySaver persists the geometry after a calibration or nudge.
type GeometrySaver interface {
	SaveGeometry(g screen.Geometry) error
}

// RunLog records calibration attempts.
type RunLog interface {
	StartRun(before screen.Memento) (string, error)
	FinishRun(id, outcome string, g screen.Geometry) error
}

// Config holds the collaborators and tuning for a Session.
type Config struct {
	Geometry   screen.Geometry
	Capability pointer.Capability
	MultiTouch bool

	Calibrate calibrate.Config
	Tracker   tracker.Config
	Smooth    smooth.Config
	Pointer   pointer.Config

	Sink  pointer.Sink
	Saver GeometrySaver
	Runs  RunLog
}

// DefaultConfig returns a session with default geometry, click enabled and
// no collaborators.
func DefaultConfig() Config {
	return Config{
		Geometry:   screen.DefaultGeometry(),
		Capability: pointer.MoveClick,
		Calibrate:  calibrate.DefaultConfig(),
		Tracker:    tracker.DefaultConfig(),
		Smooth:     smooth.DefaultConfig(),
		Pointer:    pointer.DefaultConfig(),
	}
}

// Session is the single frame-processing context. Frames are processed one at
// a time; a frame that arrives while another is in progress is dropped.
type Session struct {
	mu sync.Mutex

	geometry   screen.Geometry
	calibrator *calibrate.Calibrator
	tracker    *tracker.Tracker
	bank       *smooth.Bank
	machines   [tracker.MaxTracks]*pointer.Machine

	caps       pointer.Capability
	capsBefore pointer.Capability
	multi      bool

	sink  pointer.Sink
	saver GeometrySaver
	runs  RunLog
	runID string

	frames  atomic.Uint64
	dropped atomic.Uint64
}

// New validates the configured geometry and returns a ready session.
func New(cfg Config) (*Session, error) {
	if err := cfg.Geometry.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		geometry: cfg.Geometry,
		tracker:  tracker.New(cfg.Tracker),
		bank:     smooth.NewBank(tracker.MaxTracks, cfg.Smooth),
		caps:     cfg.Capability,
		sink:     cfg.Sink,
		saver:    cfg.Saver,
		runs:     cfg.Runs,
	}
	if s.sink == nil {
		s.sink = pointer.NullSink{}
	}
	s.calibrator = calibrate.New(&s.geometry, cfg.Calibrate)
	for i := range s.machines {
		s.machines[i] = pointer.NewMachine(cfg.Pointer)
	}
	s.setMultiTouch(cfg.MultiTouch)

	return s, nil
}

// ProcessFrame runs one frame. It returns false without doing anything when
// another frame is still being processed.
func (s *Session) ProcessFrame(cloud space.Cloud) (Result, bool) {
	if !s.mu.TryLock() {
		n := s.dropped.Add(1)
		monitoring.Debugf("session: frame dropped (%d total)", n)
		return Result{}, false
	}
	defer s.mu.Unlock()

	res := Result{Frame: s.frames.Add(1), MultiTouch: s.multi}
	if s.calibrator.Active() {
		s.stepCalibration(cloud, &res)
	} else {
		s.stepTracking(cloud, &res)
	}
	return res, true
}

func (s *Session) stepCalibration(cloud space.Cloud, res *Result) {
	r := s.calibrator.Step(cloud)
	if r.Committed != 0 {
		monitoring.Logf("calibration: %s edge set to %.3f", r.Committed, r.Value)
	}
	if r.Completed {
		s.finishCalibration()
	}

	res.Calibrating = s.calibrator.Active()
	res.Calibration = s.calibrator.State().String()
	if r.Found {
		c := r.Candidate
		res.Candidate = &c
	}
}

// finishCalibration validates the new edges and persists them, or rolls back
// when they are unusable.
func (s *Session) finishCalibration() {
	s.restoreCapability()

	if err := s.geometry.Validate(); err != nil {
		monitoring.Logf("calibration: rejected, restoring previous edges: %v", err)
		s.calibrator.Rollback()
		s.finishRun(RunRejected)
		return
	}

	monitoring.Logf("calibration: complete (left=%.3f right=%.3f top=%.3f bottom=%.3f)",
		s.geometry.Left, s.geometry.Right, s.geometry.Top, s.geometry.Bottom)
	s.save()
	s.finishRun(RunCompleted)
}

func (s *Session) stepTracking(cloud space.Cloud, res *Result) {
	var seen [tracker.MaxTracks]bool

	for _, d := range s.tracker.Scan(cloud, s.geometry, s.bank) {
		seen[d.ID] = true
		smoothed := s.bank.Apply(d.ID, d.Point.Lateral())
		x, y := s.geometry.Normalize(smoothed)
		t := Touch{
			ID:       d.ID,
			Raw:      d.Point.Point3D,
			Smoothed: d.Point.WithLateral(smoothed),
			X:        x,
			Y:        y,
			Fresh:    d.Fresh,
		}

		if s.multi {
			// Positions are only reported; history is dropped once the
			// point leaves the move band.
			if d.Point.Y >= s.geometry.Move {
				s.bank.Reset(d.ID)
			}
		} else {
			m := s.machines[d.ID]
			if m.Step(smoothed, d.Point.Y, s.geometry, s.caps, s.sink) {
				s.bank.Reset(d.ID)
			}
			t.State = m.State().String()
		}
		res.Touches = append(res.Touches, t)
	}

	for id, ok := range seen {
		if ok {
			continue
		}
		s.bank.Reset(id)
		s.machines[id].Release(s.sink)
	}
}

func (s *Session) save() {
	if s.saver == nil {
		return
	}
	if err := s.saver.SaveGeometry(s.geometry); err != nil {
		monitoring.Logf("session: failed to save geometry: %v", err)
	}
}

func (s *Session) finishRun(outcome string) {
	if s.runs == nil || s.runID == "" {
		return
	}
	if err := s.runs.FinishRun(s.runID, outcome, s.geometry); err != nil {
		monitoring.Logf("session: failed to record calibration run: %v", err)
	}
	s.runID = ""
}

func (s *Session) restoreCapability() {
	s.caps = s.capsBefore
	if s.caps == pointer.Disabled {
		s.caps = pointer.MoveOnly
	}
}

// releaseAll lifts any held button and forgets every track.
func (s *Session) releaseAll() {
	for _, m := range s.machines {
		m.Release(s.sink)
	}
	s.bank.ResetAll()
}

// BeginCalibration starts the edge-touch protocol. Cursor control is disabled
// until the calibration completes or is cancelled.
func (s *Session) BeginCalibration() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseAll()
	if !s.calibrator.Active() {
		s.capsBefore = s.caps
		if s.runs != nil {
			id, err := s.runs.StartRun(s.geometry.Snapshot())
			if err != nil {
				monitoring.Logf("session: failed to record calibration run: %v", err)
			}
			s.runID = id
		}
	}
	s.caps = pointer.Disabled
	s.calibrator.Begin()
	monitoring.Logf("calibration: started, touch the right edge after the reference frame")
}

// CancelCalibration rolls back to the edges held before BeginCalibration. It
// reports false when no calibration was running.
func (s *Session) CancelCalibration() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.calibrator.Cancel() {
		return false
	}
	s.restoreCapability()
	s.finishRun(RunCancelled)
	monitoring.Logf("calibration: cancelled")
	return true
}

// Nudge moves one edge by delta metres and persists the result.
func (s *Session) Nudge(edge screen.Edge, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calibrator.Active() {
		return ErrCalibrating
	}
	before := s.geometry
	s.geometry.Nudge(edge, delta)
	if err := s.geometry.Validate(); err != nil {
		s.geometry = before
		return fmt.Errorf("nudge %s by %g: %w", edge, delta, err)
	}
	s.save()
	return nil
}

// SetGeometry replaces the geometry, typically with one loaded from storage.
func (s *Session) SetGeometry(g screen.Geometry) error {
	if err := g.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calibrator.Active() {
		return ErrCalibrating
	}
	s.geometry = g
	return nil
}

// SetCapability changes the cursor control level. During a calibration the
// level is remembered and applied once calibration ends.
func (s *Session) SetCapability(c pointer.Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calibrator.Active() {
		s.capsBefore = c
		return
	}
	s.caps = c
}

// CycleCapability advances to the next control level and returns it.
func (s *Session) CycleCapability() pointer.Capability {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calibrator.Active() {
		s.capsBefore = s.capsBefore.Next()
		return s.capsBefore
	}
	s.caps = s.caps.Next()
	return s.caps
}

// SetMultiTouch switches between driving the cursor from one touch and
// reporting up to four touches without injecting events.
func (s *Session) SetMultiTouch(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMultiTouch(on)
}

func (s *Session) setMultiTouch(on bool) {
	s.releaseAll()
	s.multi = on
	if on {
		s.tracker.SetMode(tracker.Multi)
	} else {
		s.tracker.SetMode(tracker.Single)
	}
}

// Geometry returns a copy of the current geometry.
func (s *Session) Geometry() screen.Geometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geometry
}

// Capability returns the effective cursor control level.
func (s *Session) Capability() pointer.Capability {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caps
}

// MultiTouch reports whether multi-touch reporting is on.
func (s *Session) MultiTouch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.multi
}

// CalibrationState returns the calibration step in progress.
func (s *Session) CalibrationState() calibrate.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calibrator.State()
}

// Stats returns the number of processed and dropped frames.
func (s *Session) Stats() (processed, dropped uint64) {
	return s.frames.Load(), s.dropped.Load()
}
