package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/davidxiao93/TouchWall/internal/app"
	"github.com/davidxiao93/TouchWall/internal/capture"
	"github.com/davidxiao93/TouchWall/internal/config"
	"github.com/davidxiao93/TouchWall/internal/monitoring"
	"github.com/davidxiao93/TouchWall/internal/pointer"
	"github.com/davidxiao93/TouchWall/internal/pointer/robot"
	"github.com/davidxiao93/TouchWall/internal/server"
	"github.com/davidxiao93/TouchWall/internal/session"
	"github.com/davidxiao93/TouchWall/internal/store"
	"github.com/davidxiao93/TouchWall/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "sqlite database path (overrides config)")
	replayDir := flag.String("replay", "", "directory of 16-bit PNG depth frames (overrides config)")
	dryRun := flag.Bool("dry-run", false, "track touches without moving the system cursor")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	debug := flag.Bool("debug", false, "log per-frame diagnostics")
	flag.Parse()

	fmt.Println("TouchWall - depth camera touch surface")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	applyFlags(cfg, *addr, *dbPath, *replayDir, *dryRun, *debug)
	monitoring.SetDebug(cfg.Debug)

	// Initialize the store
	path, err := databasePath(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to resolve database path: %v", err)
	}
	st, err := store.New(path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	var sink pointer.Sink = pointer.NullSink{}
	if cfg.Pointer.DryRun {
		log.Println("Dry run: cursor events are not injected")
	} else {
		rs := robot.NewSink()
		w, h := rs.ScreenSize()
		log.Printf("Driving the system cursor on a %dx%d screen", w, h)
		sink = rs
	}

	sess, err := session.New(session.Config{
		Geometry:   st.LoadGeometry(),
		Capability: cfg.Capability(),
		MultiTouch: cfg.Pointer.MultiTouch,
		Calibrate:  cfg.CalibrateConfig(),
		Tracker:    cfg.TrackerConfig(),
		Smooth:     cfg.SmoothConfig(),
		Pointer:    cfg.PointerConfig(),
		Sink:       sink,
		Saver:      st,
		Runs:       st,
	})
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	source, motion := newSource(cfg)

	application, err := app.New(app.Config{
		Session:     sess,
		Source:      source,
		Motion:      motion,
		Settings:    st.Settings(),
		IdleFPS:     cfg.Capture.IdleFPS,
		ActiveFPS:   cfg.Capture.ActiveFPS,
		IdleTimeout: cfg.IdleTimeout(),
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	application.LoadSettings()

	hub := server.NewTouchHub()
	defer hub.Close()
	application.Subscribe(hub.Broadcast)

	// Find web directory
	webDir := findWebDir(cfg.Server.WebDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Session:   sess,
		Store:     st,
		Frames:    application,
		Touches:   hub,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if source != nil {
		if err := application.Start(); err != nil {
			log.Fatalf("Failed to start pipeline: %v", err)
		}
		defer application.Stop()
	} else {
		log.Println("No depth source configured; serving the control API only")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if *noTray {
		<-sigCh
		return
	}

	tr := tray.New(sess.Capability().String())
	tr.SetMultiTouch(sess.MultiTouch())
	tr.OnCycleCursor(func() string { return application.CycleCapability().String() })
	tr.OnMultiTouch(application.SetMultiTouch)
	tr.OnCalibrate(func() {
		sess.BeginCalibration()
		tr.SetCalibrationState(sess.CalibrationState().String(), true)
	})
	tr.OnCancelCalibration(func() {
		sess.CancelCalibration()
		tr.SetCalibrationState(sess.CalibrationState().String(), false)
	})
	tr.OnSettings(func() { openBrowser(settingsURL(cfg.Server.Addr)) })
	application.Subscribe(func(res session.Result) {
		state := res.Calibration
		if state == "" {
			state = "idle"
		}
		tr.SetCalibrationState(state, res.Calibrating)
		tr.SetMultiTouch(res.MultiTouch)
		tr.SetCursorMode(sess.Capability().String())
	})

	go func() {
		<-sigCh
		tr.Quit()
	}()

	// Blocks until the quit item is clicked.
	tr.Run()
}

func applyFlags(cfg *config.Config, addr, dbPath, replayDir string, dryRun, debug bool) {
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if replayDir != "" {
		cfg.Capture.ReplayDir = replayDir
	}
	if dryRun {
		cfg.Pointer.DryRun = true
	}
	if debug {
		cfg.Debug = true
	}
}

// newSource builds the replay source and its motion detector when a replay
// directory is configured. Both are nil otherwise.
func newSource(cfg *config.Config) (capture.Source, *capture.MotionDetector) {
	if cfg.Capture.ReplayDir == "" {
		return nil, nil
	}
	src := capture.NewReplaySource(cfg.Capture.ReplayDir, cfg.Intrinsics(), cfg.Orientation(), cfg.Capture.Loop)
	return src, capture.NewMotionDetector(cfg.Capture.MotionPct)
}

// databasePath returns path, or ~/.touchwall/touchwall.db when empty. The
// parent directory is created if needed.
func databasePath(path string) (string, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".touchwall", "touchwall.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return path, nil
}

// findWebDir searches for the web directory: the configured path, then
// "../web", "../../web" and ~/.touchwall/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(configured string) string {
	candidates := []string{configured, "../web", "../../web"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".touchwall", "web"))
	}

	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}
	return ""
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
