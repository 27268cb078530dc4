package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/davidxiao93/TouchWall/internal/screen"
	"github.com/davidxiao93/TouchWall/internal/session"
)

// GeometryHandler serves the wall rectangle and edge nudges.
type GeometryHandler struct {
	ctl Controller
}

// NewGeometryHandler creates a new GeometryHandler.
func NewGeometryHandler(ctl Controller) *GeometryHandler {
	return &GeometryHandler{ctl: ctl}
}

type geometryResponse struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Down   float64 `json:"down_threshold"`
	Up     float64 `json:"up_threshold"`
	Move   float64 `json:"move_threshold"`
	Detect float64 `json:"detect_threshold"`
}

type nudgeRequest struct {
	Edge string `json:"edge"`
	// Delta is in metres; omitted means +screen.NudgeStep.
	Delta *float64 `json:"delta"`
}

func toGeometryResponse(g screen.Geometry) geometryResponse {
	return geometryResponse{
		Top:    g.Top,
		Bottom: g.Bottom,
		Left:   g.Left,
		Right:  g.Right,
		Down:   g.Down,
		Up:     g.Up,
		Move:   g.Move,
		Detect: g.Detect,
	}
}

// ServeHTTP routes /api/geometry and /api/geometry/nudge.
func (h *GeometryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/geometry")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, toGeometryResponse(h.ctl.Geometry()))
	case "nudge":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.nudge(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// nudge handles POST /api/geometry/nudge.
func (h *GeometryHandler) nudge(w http.ResponseWriter, r *http.Request) {
	var req nudgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	edge, err := screen.ParseEdge(req.Edge)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	delta := screen.NudgeStep
	if req.Delta != nil {
		delta = *req.Delta
	}

	if err := h.ctl.Nudge(edge, delta); err != nil {
		switch {
		case errors.Is(err, session.ErrCalibrating):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, screen.ErrInvalidGeometry):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Failed to nudge edge")
		}
		return
	}

	writeJSON(w, http.StatusOK, toGeometryResponse(h.ctl.Geometry()))
}
