package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/handpet/internal/app"
	"github.com/ayusman/handpet/internal/interaction"
)

// Pet is the part of the application the pet endpoints drive.
type Pet interface {
	Snapshot() app.Snapshot
	Stats() app.Stats
	Tap() []interaction.Event
	IsEnabled() bool
	SetEnabled(bool)
}

// PetHandler serves the pet's state and direct interactions.
type PetHandler struct {
	pet Pet
}

// NewPetHandler creates a PetHandler backed by pet.
func NewPetHandler(pet Pet) *PetHandler {
	return &PetHandler{pet: pet}
}

type stateResponse struct {
	Snapshot app.Snapshot `json:"snapshot"`
	Enabled  bool         `json:"enabled"`
	Stats    app.Stats    `json:"stats"`
}

type tapResponse struct {
	Events []interaction.Event `json:"events"`
}

type detectionRequest struct {
	Enabled *bool `json:"enabled"`
}

type detectionResponse struct {
	Enabled bool `json:"enabled"`
}

// State handles GET /api/state.
func (h *PetHandler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, stateResponse{
		Snapshot: h.pet.Snapshot(),
		Enabled:  h.pet.IsEnabled(),
		Stats:    h.pet.Stats(),
	})
}

// Tap handles POST /api/tap.
func (h *PetHandler) Tap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	events := h.pet.Tap()
	if events == nil {
		events = []interaction.Event{}
	}
	writeJSON(w, http.StatusOK, tapResponse{Events: events})
}

// Detection handles GET and PUT /api/detection.
func (h *PetHandler) Detection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req detectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		h.pet.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, detectionResponse{Enabled: h.pet.IsEnabled()})
}
