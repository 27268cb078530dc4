// Package tray provides the system tray menu for TouchWall.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onCycleCursor func() string
	onCalibrate   func()
	onCancel      func()
	onMultiTouch  func(on bool)
	onSettings    func()
	onQuit        func()

	cursorMode string
	status     string
	multiTouch bool
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuCursor     *systray.MenuItem
	menuStatus     *systray.MenuItem
	menuCancel     *systray.MenuItem
	menuMultiTouch *systray.MenuItem
}

// New creates a new Tray showing the given cursor mode.
func New(cursorMode string) *Tray {
	return &Tray{
		cursorMode: cursorMode,
		status:     "idle",
	}
}

// OnCycleCursor sets the callback for the cursor mode item. It returns the
// new mode's label.
func (t *Tray) OnCycleCursor(fn func() string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCycleCursor = fn
}

// OnCalibrate sets the callback for the calibrate item.
func (t *Tray) OnCalibrate(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCalibrate = fn
}

// OnCancelCalibration sets the callback for the cancel calibration item.
func (t *Tray) OnCancelCalibration(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCancel = fn
}

// OnMultiTouch sets the callback for the multi-touch toggle.
func (t *Tray) OnMultiTouch(fn func(on bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMultiTouch = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("TouchWall")
	systray.SetTooltip("TouchWall depth touch surface")

	t.mu.Lock()
	t.menuCursor = systray.AddMenuItem(cursorTitle(t.cursorMode), "Cycle cursor control")
	t.menuMultiTouch = systray.AddMenuItemCheckbox("Multi-touch", "Report up to four touches", t.multiTouch)
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(statusTitle(t.status), "Calibration state")
	t.menuStatus.Disable()
	menuCalibrate := systray.AddMenuItem("Calibrate", "Touch each edge of the wall in turn")
	t.menuCancel = systray.AddMenuItem("Cancel Calibration", "Restore the previous edges")
	t.menuCancel.Disable()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit TouchWall")
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuCursor.ClickedCh:
				t.handleCycleCursor()
			case <-t.menuMultiTouch.ClickedCh:
				t.handleMultiTouch()
			case <-menuCalibrate.ClickedCh:
				t.handleCalibrate()
			case <-t.menuCancel.ClickedCh:
				t.handleCancel()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func cursorTitle(mode string) string { return "Cursor: " + mode }

func statusTitle(state string) string { return "Calibration: " + state }

// handleCycleCursor handles the cursor mode item click.
func (t *Tray) handleCycleCursor() {
	t.mu.RLock()
	callback := t.onCycleCursor
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback == nil {
		return
	}
	t.SetCursorMode(callback())
}

// handleMultiTouch handles the multi-touch toggle click.
func (t *Tray) handleMultiTouch() {
	t.mu.Lock()
	t.multiTouch = !t.multiTouch
	on := t.multiTouch
	t.updateMultiTouchLocked()
	callback := t.onMultiTouch
	t.mu.Unlock()

	if callback != nil {
		callback(on)
	}
}

// handleCalibrate handles the calibrate item click.
func (t *Tray) handleCalibrate() {
	t.mu.RLock()
	callback := t.onCalibrate
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleCancel handles the cancel calibration item click.
func (t *Tray) handleCancel() {
	t.mu.RLock()
	callback := t.onCancel
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetCursorMode updates the cursor mode label.
func (t *Tray) SetCursorMode(mode string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cursorMode == mode {
		return
	}
	t.cursorMode = mode
	if t.menuCursor != nil {
		t.menuCursor.SetTitle(cursorTitle(mode))
	}
}

// SetMultiTouch updates the multi-touch check mark without firing the callback.
func (t *Tray) SetMultiTouch(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.multiTouch == on {
		return
	}
	t.multiTouch = on
	t.updateMultiTouchLocked()
}

func (t *Tray) updateMultiTouchLocked() {
	if t.menuMultiTouch == nil {
		return
	}
	if t.multiTouch {
		t.menuMultiTouch.Check()
	} else {
		t.menuMultiTouch.Uncheck()
	}
}

// SetCalibrationState shows the calibration step and enables the cancel
// item while one is running.
func (t *Tray) SetCalibrationState(state string, active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == state {
		return
	}
	t.status = state

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(state))
	}
	if t.menuCancel != nil {
		if active {
			t.menuCancel.Enable()
		} else {
			t.menuCancel.Disable()
		}
	}
}

// CursorMode returns the displayed cursor mode.
func (t *Tray) CursorMode() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursorMode
}

// MultiTouch returns the displayed multi-touch state.
func (t *Tray) MultiTouch() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.multiTouch
}

// CalibrationState returns the displayed calibration state.
func (t *Tray) CalibrationState() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Quit closes the tray, which makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}
