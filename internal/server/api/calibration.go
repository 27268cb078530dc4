package api

import (
	"net/http"
	"time"

	"github.com/davidxiao93/TouchWall/internal/calibrate"
	"github.com/davidxiao93/TouchWall/internal/store"
)

// RunLister lists recorded calibration runs.
type RunLister interface {
	List(limit int) ([]*store.CalibrationRun, error)
}

// CalibrationHandler drives and reports calibration runs.
type CalibrationHandler struct {
	ctl  Controller
	runs RunLister
}

// NewCalibrationHandler creates a new CalibrationHandler. runs may be nil.
func NewCalibrationHandler(ctl Controller, runs RunLister) *CalibrationHandler {
	return &CalibrationHandler{ctl: ctl, runs: runs}
}

type runResponse struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	Before     edgesResponse  `json:"before"`
	After      *edgesResponse `json:"after,omitempty"`
	StartedAt  string         `json:"started_at"`
	FinishedAt string         `json:"finished_at,omitempty"`
}

type edgesResponse struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

type calibrationResponse struct {
	Active bool          `json:"active"`
	State  string        `json:"state"`
	Runs   []runResponse `json:"runs,omitempty"`
}

type cancelResponse struct {
	Cancelled bool   `json:"cancelled"`
	State     string `json:"state"`
}

// ServeHTTP implements the http.Handler interface.
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.status(w, r)
	case http.MethodPost:
		h.ctl.BeginCalibration()
		writeJSON(w, http.StatusAccepted, h.current())
	case http.MethodDelete:
		cancelled := h.ctl.CancelCalibration()
		writeJSON(w, http.StatusOK, cancelResponse{
			Cancelled: cancelled,
			State:     h.ctl.CalibrationState().String(),
		})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CalibrationHandler) current() calibrationResponse {
	state := h.ctl.CalibrationState()
	return calibrationResponse{
		Active: state != calibrate.Idle,
		State:  state.String(),
	}
}

// status handles GET /api/calibration.
func (h *CalibrationHandler) status(w http.ResponseWriter, r *http.Request) {
	resp := h.current()

	if h.runs != nil {
		runs, err := h.runs.List(20)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list calibration runs")
			return
		}
		resp.Runs = make([]runResponse, 0, len(runs))
		for _, run := range runs {
			resp.Runs = append(resp.Runs, toRunResponse(run))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func toRunResponse(run *store.CalibrationRun) runResponse {
	out := runResponse{
		ID:        run.ID,
		Status:    string(run.Status),
		Before:    edgesResponse(run.Before),
		StartedAt: run.StartedAt.Format(time.RFC3339),
	}
	if run.After != nil {
		after := edgesResponse(*run.After)
		out.After = &after
	}
	if run.FinishedAt != nil {
		out.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	}
	return out
}
