// Package app wires the depth source, the touch session and its observers
// into the running TouchWall pipeline.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/davidxiao93/TouchWall/internal/capture"
	"github.com/davidxiao93/TouchWall/internal/pointer"
	"github.com/davidxiao93/TouchWall/internal/session"
	"github.com/davidxiao93/TouchWall/internal/store"
)

// Pipeline timing defaults.
const (
	// IdleFPS is the frame rate while nothing is near the wall.
	IdleFPS = 5
	// ActiveFPS is the frame rate while touches or motion are seen.
	ActiveFPS = 30
	// IdleTimeout is how long without activity before returning to idle.
	IdleTimeout = 2 * time.Second
)

// ErrFrameDropped is returned by HandleFrame when the session was still busy
// with the previous frame.
var ErrFrameDropped = errors.New("frame dropped")

// Settings persists the user's mode choices between runs.
type Settings interface {
	Get(key string) (string, error)
	Set(key, value string) error
	GetBool(key string, def bool) bool
	SetBool(key string, value bool) error
}

// Config holds configuration options for the application.
type Config struct {
	Session  *session.Session
	Source   capture.Source
	Motion   *capture.MotionDetector
	Settings Settings

	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration
}

// Observer receives every processed frame.
type Observer func(res session.Result)

// App is the main application that feeds frames through the session.
type App struct {
	config    Config
	session   *session.Session
	source    capture.Source
	motion    *capture.MotionDetector
	observers []Observer
	latest    *capture.Frame
	active    bool
	mu        sync.RWMutex
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	if config.Session == nil {
		return nil, errors.New("app: session is required")
	}
	if config.IdleFPS <= 0 {
		config.IdleFPS = IdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = ActiveFPS
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = IdleTimeout
	}

	return &App{
		config:  config,
		session: config.Session,
		source:  config.Source,
		motion:  config.Motion,
	}, nil
}

// Subscribe registers fn to receive every processed frame.
func (a *App) Subscribe(fn Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// HandleFrame validates a frame and runs it through the session. It returns
// ErrFrameDropped when another frame is still in progress.
func (a *App) HandleFrame(f *capture.Frame) (session.Result, error) {
	if f == nil {
		return session.Result{}, fmt.Errorf("%w: nil frame", capture.ErrFrameSize)
	}
	if err := f.Validate(); err != nil {
		return session.Result{}, err
	}

	a.mu.Lock()
	a.latest = f
	a.mu.Unlock()

	res, ok := a.session.ProcessFrame(f.Points)
	if !ok {
		return session.Result{}, ErrFrameDropped
	}

	a.mu.RLock()
	observers := a.observers
	a.mu.RUnlock()

	for _, fn := range observers {
		fn(res)
	}
	return res, nil
}

// LatestFrame returns the most recently received frame.
func (a *App) LatestFrame() *capture.Frame {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// LoadSettings applies saved mode choices to the session.
func (a *App) LoadSettings() {
	if a.config.Settings == nil {
		return
	}

	if v, err := a.config.Settings.Get(store.SettingCapability); err == nil {
		c, err := pointer.ParseCapability(v)
		if err != nil {
			log.Printf("Ignoring saved cursor capability: %v", err)
		} else {
			a.session.SetCapability(c)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("Failed to load cursor capability: %v", err)
	}

	multi := a.config.Settings.GetBool(store.SettingMultiTouch, a.session.MultiTouch())
	if multi != a.session.MultiTouch() {
		a.session.SetMultiTouch(multi)
	}
}

// CycleCapability advances the cursor control level and saves it.
func (a *App) CycleCapability() pointer.Capability {
	c := a.session.CycleCapability()
	a.save(func(s Settings) error { return s.Set(store.SettingCapability, c.String()) })
	log.Printf("Cursor control: %s", c)
	return c
}

// SetMultiTouch switches multi-touch reporting and saves the choice.
func (a *App) SetMultiTouch(on bool) {
	a.session.SetMultiTouch(on)
	a.save(func(s Settings) error { return s.SetBool(store.SettingMultiTouch, on) })
	log.Printf("Multi-touch: %v", on)
}

func (a *App) save(fn func(Settings) error) {
	if a.config.Settings == nil {
		return
	}
	if err := fn(a.config.Settings); err != nil {
		log.Printf("Failed to save setting: %v", err)
	}
}

// Start opens the source and begins the frame pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}
	if a.source == nil {
		return errors.New("app: no frame source configured")
	}

	if err := a.source.Open(); err != nil {
		return fmt.Errorf("open frame source: %w", err)
	}
	a.source.SetFPS(a.config.IdleFPS)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("Frame pipeline started")
	return nil
}

// Stop halts the pipeline and releases the source.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh

	if err := a.source.Close(); err != nil {
		log.Printf("Error closing frame source: %v", err)
	}
	if a.motion != nil {
		a.motion.Close()
	}

	log.Println("Frame pipeline stopped")
}

// Active reports whether the pipeline is running at the active frame rate.
func (a *App) Active() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

func (a *App) setActive(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = on
}

// Session returns the touch session.
func (a *App) Session() *session.Session {
	return a.session
}
