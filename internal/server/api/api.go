// Package api provides HTTP API handlers for controlling the touch wall.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/davidxiao93/TouchWall/internal/calibrate"
	"github.com/davidxiao93/TouchWall/internal/pointer"
	"github.com/davidxiao93/TouchWall/internal/screen"
)

// Controller is the part of the session the API drives.
type Controller interface {
	Geometry() screen.Geometry
	Nudge(edge screen.Edge, delta float64) error

	BeginCalibration()
	CancelCalibration() bool
	CalibrationState() calibrate.State

	Capability() pointer.Capability
	SetCapability(c pointer.Capability)
	MultiTouch() bool
	SetMultiTouch(on bool)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
