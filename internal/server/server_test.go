package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidxiao93/TouchWall/internal/session"
)

func getHealth(t *testing.T, s *Server) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestServer_Health(t *testing.T) {
	t.Run("without touch hub", func(t *testing.T) {
		body := getHealth(t, New(Config{}))

		assert.Equal(t, "ok", body["status"])
		assert.Contains(t, body, "uptime")
		assert.NotContains(t, body, "clients")
	})

	t.Run("reports touch clients", func(t *testing.T) {
		hub := NewTouchHub()
		defer hub.Close()

		body := getHealth(t, New(Config{Touches: hub}))

		assert.Equal(t, float64(0), body["clients"])
	})

	t.Run("only allows GET", func(t *testing.T) {
		s := New(Config{})
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(method, "/api/health", nil))
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		}
	})
}

// routed reports whether path has a handler other than the static fallback.
func routed(s *Server, path string) bool {
	_, pattern := s.mux.Handler(httptest.NewRequest(http.MethodGet, path, nil))
	return pattern != "" && pattern != "/"
}

func TestServer_Routes(t *testing.T) {
	sess, err := session.New(session.DefaultConfig())
	require.NoError(t, err)
	hub := NewTouchHub()
	defer hub.Close()

	control := []string{"/api/geometry", "/api/geometry/nudge", "/api/calibration", "/api/mode"}

	tests := []struct {
		name string
		cfg  Config
		want map[string]bool
	}{
		{
			name: "health only",
			cfg:  Config{},
			want: map[string]bool{"/api/health": true, "/api/stream": false, "/api/touches": false},
		},
		{
			name: "session without store",
			cfg:  Config{Session: sess},
			want: map[string]bool{"/api/health": true, "/api/stream": false},
		},
		{
			name: "frames and touches",
			cfg:  Config{Frames: staticFrames{}, Touches: hub},
			want: map[string]bool{"/api/stream": true, "/api/touches": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.cfg)

			for path, want := range tt.want {
				assert.Equal(t, want, routed(s, path), path)
			}
			for _, path := range control {
				assert.Equal(t, tt.cfg.Session != nil, routed(s, path), path)
			}
		})
	}
}

func TestServer_ModeWithoutStore(t *testing.T) {
	sess, err := session.New(session.DefaultConfig())
	require.NoError(t, err)
	s := New(Config{Session: sess})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/mode", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var mode struct {
		Capability string `json:"capability"`
		MultiTouch bool   `json:"multi_touch"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&mode))
	assert.Equal(t, "move_click", mode.Capability)
	assert.False(t, mode.MultiTouch)
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	index := "<html><body>TouchWall</body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wall.js"), []byte("calibrate()"), 0644))

	s := New(Config{StaticDir: dir})

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/", http.StatusOK, index},
		{"/wall.js", http.StatusOK, "calibrate()"},
		{"/missing.html", http.StatusNotFound, ""},
		{"/api/geometry", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/", "/api/nonexistent"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}
