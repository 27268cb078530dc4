// Package config loads the TouchWall JSON configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/davidxiao93/TouchWall/internal/calibrate"
	"github.com/davidxiao93/TouchWall/internal/capture"
	"github.com/davidxiao93/TouchWall/internal/pointer"
	"github.com/davidxiao93/TouchWall/internal/smooth"
	"github.com/davidxiao93/TouchWall/internal/tracker"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the root of the configuration file. Sections omitted from the
// file keep their defaults.
type Config struct {
	Server      ServerConfig      `json:"server"`
	Storage     StorageConfig     `json:"storage"`
	Capture     CaptureConfig     `json:"capture"`
	Pointer     PointerConfig     `json:"pointer"`
	Tracking    TrackingConfig    `json:"tracking"`
	Calibration CalibrationConfig `json:"calibration"`
	Smoothing   SmoothingConfig   `json:"smoothing"`
	Debug       bool              `json:"debug"`
}

type ServerConfig struct {
	Addr   string `json:"addr"`
	WebDir string `json:"web_dir"`
}

type StorageConfig struct {
	// Path is the sqlite database file. Empty means ~/.touchwall/touchwall.db.
	Path string `json:"path"`
}

type CaptureConfig struct {
	// ReplayDir is a directory of 16-bit PNG depth frames.
	ReplayDir   string  `json:"replay_dir"`
	Loop        bool    `json:"loop"`
	Upright     bool    `json:"upright"`
	Fx          float64 `json:"fx"`
	Fy          float64 `json:"fy"`
	Cx          float64 `json:"cx"`
	Cy          float64 `json:"cy"`
	MinDepthMM  uint16  `json:"min_depth_mm"`
	MaxDepthMM  uint16  `json:"max_depth_mm"`
	IdleFPS     int     `json:"idle_fps"`
	ActiveFPS   int     `json:"active_fps"`
	IdleTimeout string  `json:"idle_timeout"`
	MotionPct   float64 `json:"motion_percent"`
}

type PointerConfig struct {
	// Capability is one of disabled, move, move_click, move_scroll.
	Capability       string  `json:"capability"`
	MultiTouch       bool    `json:"multi_touch"`
	DryRun           bool    `json:"dry_run"`
	DragThreshold    float64 `json:"drag_threshold"`
	ScrollDeadband   float64 `json:"scroll_deadband"`
	ScrollStripWidth float64 `json:"scroll_strip_width"`
}

type TrackingConfig struct {
	ClusterDZ       float64 `json:"cluster_dz"`
	ClusterDX       float64 `json:"cluster_dx"`
	MatchRadius     float64 `json:"match_radius"`
	DensityRadius   float64 `json:"density_radius"`
	NeighbourRadius float64 `json:"neighbour_radius"`
	MinNeighbours   int     `json:"min_neighbours"`
}

type CalibrationConfig struct {
	BackgroundTolerance float64 `json:"background_tolerance"`
	ColumnHalfWidth     float64 `json:"column_half_width"`
	MinDepth            float64 `json:"min_depth"`
	MaxDepth            float64 `json:"max_depth"`
	MonotonicGuard      bool    `json:"monotonic_guard"`
}

type SmoothingConfig struct {
	Alpha         float64 `json:"alpha"`
	Adaptive      bool    `json:"adaptive"`
	AdaptiveGain  float64 `json:"adaptive_gain"`
	AdaptiveFloor float64 `json:"adaptive_floor"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	intr := capture.DefaultIntrinsics()
	cal := calibrate.DefaultConfig()
	trk := tracker.DefaultConfig()
	sm := smooth.DefaultConfig()
	ptr := pointer.DefaultConfig()

	return &Config{
		Server: ServerConfig{
			Addr:   "127.0.0.1:8080",
			WebDir: "web",
		},
		Capture: CaptureConfig{
			Fx:          intr.Fx,
			Fy:          intr.Fy,
			Cx:          intr.Cx,
			Cy:          intr.Cy,
			MinDepthMM:  intr.MinDepth,
			MaxDepthMM:  intr.MaxDepth,
			IdleFPS:     5,
			ActiveFPS:   30,
			IdleTimeout: "2s",
			MotionPct:   1.0,
		},
		Pointer: PointerConfig{
			Capability:       pointer.MoveClick.String(),
			DragThreshold:    ptr.DragThreshold,
			ScrollDeadband:   ptr.ScrollDeadband,
			ScrollStripWidth: ptr.ScrollStripWidth,
		},
		Tracking: TrackingConfig{
			ClusterDZ:       trk.ClusterDZ,
			ClusterDX:       trk.ClusterDX,
			MatchRadius:     trk.MatchRadius,
			DensityRadius:   trk.DensityRadius,
			NeighbourRadius: trk.NeighbourRadius,
			MinNeighbours:   trk.MinNeighbours,
		},
		Calibration: CalibrationConfig{
			BackgroundTolerance: cal.BackgroundTolerance,
			ColumnHalfWidth:     cal.ColumnHalfWidth,
			MinDepth:            cal.MinDepth,
			MaxDepth:            cal.MaxDepth,
			MonotonicGuard:      cal.MonotonicGuard,
		},
		Smoothing: SmoothingConfig{
			Alpha:         sm.Alpha,
			Adaptive:      sm.Adaptive,
			AdaptiveGain:  sm.AdaptiveGain,
			AdaptiveFloor: sm.AdaptiveFloor,
		},
	}
}

// Load reads a configuration file over the defaults.
// The file must have a .json extension and be under 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if _, err := pointer.ParseCapability(c.Pointer.Capability); err != nil {
		return fmt.Errorf("pointer.capability: %w", err)
	}
	if c.Capture.IdleFPS <= 0 || c.Capture.ActiveFPS <= 0 {
		return fmt.Errorf("capture fps must be positive, got idle=%d active=%d", c.Capture.IdleFPS, c.Capture.ActiveFPS)
	}
	if c.Capture.Fx <= 0 || c.Capture.Fy <= 0 {
		return fmt.Errorf("capture focal lengths must be positive, got fx=%f fy=%f", c.Capture.Fx, c.Capture.Fy)
	}
	if c.Capture.MaxDepthMM != 0 && c.Capture.MaxDepthMM <= c.Capture.MinDepthMM {
		return fmt.Errorf("capture.max_depth_mm must exceed min_depth_mm")
	}
	if c.Capture.IdleTimeout != "" {
		if _, err := time.ParseDuration(c.Capture.IdleTimeout); err != nil {
			return fmt.Errorf("invalid capture.idle_timeout '%s': %w", c.Capture.IdleTimeout, err)
		}
	}
	if c.Smoothing.Alpha < 0 || c.Smoothing.Alpha > 1 {
		return fmt.Errorf("smoothing.alpha must be between 0 and 1, got %f", c.Smoothing.Alpha)
	}
	if c.Tracking.MatchRadius <= 0 {
		return fmt.Errorf("tracking.match_radius must be positive, got %f", c.Tracking.MatchRadius)
	}
	if c.Calibration.MinDepth >= c.Calibration.MaxDepth {
		return fmt.Errorf("calibration.min_depth must be below max_depth")
	}
	return nil
}

// IdleTimeout returns the idle timeout, defaulting to two seconds.
func (c *Config) IdleTimeout() time.Duration {
	d, err := time.ParseDuration(c.Capture.IdleTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// Capability returns the configured starting capability.
func (c *Config) Capability() pointer.Capability {
	cp, err := pointer.ParseCapability(c.Pointer.Capability)
	if err != nil {
		return pointer.MoveClick
	}
	return cp
}

// Intrinsics returns the sensor projection parameters.
func (c *Config) Intrinsics() capture.Intrinsics {
	return capture.Intrinsics{
		Fx:       c.Capture.Fx,
		Fy:       c.Capture.Fy,
		Cx:       c.Capture.Cx,
		Cy:       c.Capture.Cy,
		MinDepth: c.Capture.MinDepthMM,
		MaxDepth: c.Capture.MaxDepthMM,
	}
}

// Orientation returns the sensor mounting.
func (c *Config) Orientation() capture.Orientation {
	if c.Capture.Upright {
		return capture.OrientationUpright
	}
	return capture.OrientationSideways
}

// CalibrateConfig returns the calibration search parameters.
func (c *Config) CalibrateConfig() calibrate.Config {
	return calibrate.Config{
		BackgroundTolerance: c.Calibration.BackgroundTolerance,
		ColumnHalfWidth:     c.Calibration.ColumnHalfWidth,
		MinDepth:            c.Calibration.MinDepth,
		MaxDepth:            c.Calibration.MaxDepth,
		MonotonicGuard:      c.Calibration.MonotonicGuard,
	}
}

// TrackerConfig returns the clustering parameters.
func (c *Config) TrackerConfig() tracker.Config {
	return tracker.Config{
		ClusterDZ:       c.Tracking.ClusterDZ,
		ClusterDX:       c.Tracking.ClusterDX,
		MatchRadius:     c.Tracking.MatchRadius,
		DensityRadius:   c.Tracking.DensityRadius,
		NeighbourRadius: c.Tracking.NeighbourRadius,
		MinNeighbours:   c.Tracking.MinNeighbours,
	}
}

// SmoothConfig returns the smoothing parameters.
func (c *Config) SmoothConfig() smooth.Config {
	return smooth.Config{
		Alpha:         c.Smoothing.Alpha,
		Adaptive:      c.Smoothing.Adaptive,
		AdaptiveGain:  c.Smoothing.AdaptiveGain,
		AdaptiveFloor: c.Smoothing.AdaptiveFloor,
	}
}

// PointerConfig returns the pointer state machine distances.
func (c *Config) PointerConfig() pointer.Config {
	return pointer.Config{
		DragThreshold:    c.Pointer.DragThreshold,
		ScrollDeadband:   c.Pointer.ScrollDeadband,
		ScrollStripWidth: c.Pointer.ScrollStripWidth,
	}
}
