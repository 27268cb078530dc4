package app

import (
	"errors"
	"time"

	"github.com/davidxiao93/TouchWall/internal/capture"
	"github.com/davidxiao93/TouchWall/internal/monitoring"
	"github.com/davidxiao93/TouchWall/internal/session"
)

// runPipeline reads frames from the source and feeds them to the session.
// It starts at the idle rate, switches to the active rate on a touch, a
// running calibration or scene motion, and drops back after the idle timeout.
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	activeMode := false
	lastActivity := time.Now()
	var lastErr error

	ticker := time.NewTicker(time.Second / time.Duration(a.config.IdleFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		frame, err := a.source.ReadFrame()
		if err != nil {
			// Log each distinct failure once rather than every tick.
			if lastErr == nil || lastErr.Error() != err.Error() {
				monitoring.Logf("Error reading frame: %v", err)
			}
			lastErr = err
			continue
		}
		lastErr = nil

		res, err := a.HandleFrame(frame)
		if err != nil {
			if !errors.Is(err, ErrFrameDropped) {
				monitoring.Logf("Rejected frame: %v", err)
			}
			continue
		}

		if a.busy(res, frame) {
			lastActivity = time.Now()
			if !activeMode {
				activeMode = true
				a.switchRate(ticker, a.config.ActiveFPS, true)
				monitoring.Logf("Switched to active mode")
			}
		} else if activeMode && time.Since(lastActivity) > a.config.IdleTimeout {
			activeMode = false
			a.switchRate(ticker, a.config.IdleFPS, false)
			monitoring.Logf("Switched to idle mode")
		}
	}
}

// busy reports whether the frame warrants the active frame rate.
func (a *App) busy(res session.Result, frame *capture.Frame) bool {
	moved := false
	if a.motion != nil {
		moved, _ = a.motion.Detect(frame)
	}
	return moved || res.Calibrating || res.Touched()
}

func (a *App) switchRate(ticker *time.Ticker, fps int, active bool) {
	a.source.SetFPS(fps)
	ticker.Reset(time.Second / time.Duration(fps))
	a.setActive(active)
}
