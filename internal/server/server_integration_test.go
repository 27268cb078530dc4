package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/davidxiao93/TouchWall/internal/capture"
	"github.com/davidxiao93/TouchWall/internal/monitoring"
	"github.com/davidxiao93/TouchWall/internal/pointer"
	"github.com/davidxiao93/TouchWall/internal/session"
	"github.com/davidxiao93/TouchWall/internal/space"
	"github.com/davidxiao93/TouchWall/internal/store"
)

func newTestSession(t *testing.T) (*session.Session, *store.Store) {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := session.DefaultConfig()
	cfg.Saver = st
	cfg.Runs = st
	sess, err := session.New(cfg)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sess, st
}

func doJSON(t *testing.T, client *http.Client, method, url, body string, out any) int {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestAPI_ControlWorkflow(t *testing.T) {
	sess, st := newTestSession(t)

	srv := New(Config{Session: sess, Store: st})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	// 1. Read the default geometry
	var geom struct {
		Left  float64 `json:"left"`
		Right float64 `json:"right"`
	}
	if code := doJSON(t, client, http.MethodGet, ts.URL+"/api/geometry", "", &geom); code != http.StatusOK {
		t.Fatalf("GET /api/geometry status = %d", code)
	}
	if geom.Left != 0.5 {
		t.Errorf("left = %v, want 0.5", geom.Left)
	}

	// 2. Nudge the left edge and check it was saved
	if code := doJSON(t, client, http.MethodPost, ts.URL+"/api/geometry/nudge", `{"edge":"left","delta":0.02}`, &geom); code != http.StatusOK {
		t.Fatalf("POST nudge status = %d", code)
	}
	if math.Abs(geom.Left-0.52) > 1e-9 {
		t.Errorf("left after nudge = %v, want 0.52", geom.Left)
	}
	if saved := st.LoadGeometry(); math.Abs(saved.Left-0.52) > 1e-9 {
		t.Errorf("saved left = %v, want 0.52", saved.Left)
	}

	// 3. Begin a calibration
	var cal struct {
		Active bool   `json:"active"`
		State  string `json:"state"`
		Runs   []struct {
			Status string `json:"status"`
		} `json:"runs"`
	}
	if code := doJSON(t, client, http.MethodPost, ts.URL+"/api/calibration", "", &cal); code != http.StatusAccepted {
		t.Fatalf("POST /api/calibration status = %d", code)
	}
	if !cal.Active || cal.State != "capturing_reference" {
		t.Errorf("calibration = %+v, want active capturing_reference", cal)
	}

	// 4. Nudges are refused while calibrating
	if code := doJSON(t, client, http.MethodPost, ts.URL+"/api/geometry/nudge", `{"edge":"top"}`, nil); code != http.StatusConflict {
		t.Errorf("nudge during calibration status = %d, want %d", code, http.StatusConflict)
	}

	// 5. Cancel it
	var cancelled struct {
		Cancelled bool   `json:"cancelled"`
		State     string `json:"state"`
	}
	if code := doJSON(t, client, http.MethodDelete, ts.URL+"/api/calibration", "", &cancelled); code != http.StatusOK {
		t.Fatalf("DELETE /api/calibration status = %d", code)
	}
	if !cancelled.Cancelled || cancelled.State != "idle" {
		t.Errorf("cancel = %+v", cancelled)
	}

	// A second cancel is a no-op
	doJSON(t, client, http.MethodDelete, ts.URL+"/api/calibration", "", &cancelled)
	if cancelled.Cancelled {
		t.Error("second cancel should report false")
	}

	// 6. The run history shows the cancelled run
	if code := doJSON(t, client, http.MethodGet, ts.URL+"/api/calibration", "", &cal); code != http.StatusOK {
		t.Fatalf("GET /api/calibration status = %d", code)
	}
	if len(cal.Runs) != 1 || cal.Runs[0].Status != "cancelled" {
		t.Errorf("runs = %+v, want one cancelled run", cal.Runs)
	}

	// 7. Change the mode and check it was persisted
	var mode struct {
		Capability string `json:"capability"`
		MultiTouch bool   `json:"multi_touch"`
	}
	if code := doJSON(t, client, http.MethodPut, ts.URL+"/api/mode", `{"capability":"move_scroll","multi_touch":true}`, &mode); code != http.StatusOK {
		t.Fatalf("PUT /api/mode status = %d", code)
	}
	if mode.Capability != "move_scroll" || !mode.MultiTouch {
		t.Errorf("mode = %+v", mode)
	}
	if sess.Capability() != pointer.MoveScroll {
		t.Errorf("session capability = %v", sess.Capability())
	}
	if v, err := st.Settings().Get(store.SettingCapability); err != nil || v != "move_scroll" {
		t.Errorf("saved capability = %q, %v", v, err)
	}
	if !st.Settings().GetBool(store.SettingMultiTouch, false) {
		t.Error("multi_touch should be saved")
	}
}

func TestAPI_TouchesWebSocket(t *testing.T) {
	hub := NewTouchHub()
	defer hub.Close()

	ts := httptest.NewServer(New(Config{Touches: hub}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/touches"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast(session.Result{
		Frame:   7,
		Touches: []session.Touch{{ID: 1, Raw: space.Point3D{X: 0.1, Y: 0.002, Z: 0.7}, X: 100, Y: 200, State: "button_down"}},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var got session.Result
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Frame != 7 || len(got.Touches) != 1 || got.Touches[0].State != "button_down" {
		t.Errorf("got %+v", got)
	}
}

type staticFrames struct {
	frame *capture.Frame
}

func (s staticFrames) LatestFrame() *capture.Frame { return s.frame }

func TestAPI_DepthStream(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV encoding")
	}

	depth := make([]uint16, 16*12)
	for i := range depth {
		depth[i] = 1500
	}
	frame := &capture.Frame{Depth: depth, Width: 16, Height: 12, Points: make(space.Cloud, 16*12)}

	ts := httptest.NewServer(New(Config{Frames: staticFrames{frame: frame}}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/stream")
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	boundary, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read boundary: %v", err)
	}
	if strings.TrimSpace(boundary) != "--frame" {
		t.Errorf("boundary = %q", boundary)
	}
	part, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read part header: %v", err)
	}
	if strings.TrimSpace(part) != "Content-Type: image/jpeg" {
		t.Errorf("part header = %q", part)
	}
}
