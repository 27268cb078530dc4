package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/davidxiao93/TouchWall/internal/pointer"
	"github.com/davidxiao93/TouchWall/internal/store"
)

// SettingsWriter persists mode changes.
type SettingsWriter interface {
	Set(key, value string) error
	SetBool(key string, value bool) error
}

// ModeHandler reads and changes the cursor capability and multi-touch mode.
type ModeHandler struct {
	ctl      Controller
	settings SettingsWriter
}

// NewModeHandler creates a new ModeHandler. settings may be nil.
func NewModeHandler(ctl Controller, settings SettingsWriter) *ModeHandler {
	return &ModeHandler{ctl: ctl, settings: settings}
}

type modeResponse struct {
	Capability string `json:"capability"`
	MultiTouch bool   `json:"multi_touch"`
}

type modeRequest struct {
	Capability *string `json:"capability"`
	MultiTouch *bool   `json:"multi_touch"`
}

// ServeHTTP implements the http.Handler interface.
func (h *ModeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.current())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ModeHandler) current() modeResponse {
	return modeResponse{
		Capability: h.ctl.Capability().String(),
		MultiTouch: h.ctl.MultiTouch(),
	}
}

// update handles PUT /api/mode. Omitted fields are left unchanged.
func (h *ModeHandler) update(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var capability pointer.Capability
	if req.Capability != nil {
		c, err := pointer.ParseCapability(*req.Capability)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		capability = c
	}

	if req.Capability != nil {
		h.ctl.SetCapability(capability)
		h.persist(func(s SettingsWriter) error { return s.Set(store.SettingCapability, capability.String()) })
	}
	if req.MultiTouch != nil {
		h.ctl.SetMultiTouch(*req.MultiTouch)
		h.persist(func(s SettingsWriter) error { return s.SetBool(store.SettingMultiTouch, *req.MultiTouch) })
	}

	writeJSON(w, http.StatusOK, h.current())
}

func (h *ModeHandler) persist(save func(SettingsWriter) error) {
	if h.settings == nil {
		return
	}
	if err := save(h.settings); err != nil {
		log.Printf("Failed to save mode setting: %v", err)
	}
}
