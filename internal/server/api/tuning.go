package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/ayusman/handpet/internal/config"
	"github.com/ayusman/handpet/internal/interaction"
	"github.com/ayusman/handpet/internal/store"
)

// Tuner applies interaction settings.
type Tuner interface {
	Tuning() interaction.Config
	ApplyTuning(interaction.Config)
}

// TuningHandler reads and updates the interaction tuning. Updates are
// persisted in the settings store when one is configured.
type TuningHandler struct {
	tuner Tuner
	store *store.Store

	mu   sync.RWMutex
	base config.Tuning
}

// NewTuningHandler creates a TuningHandler. base is what DELETE restores.
func NewTuningHandler(tuner Tuner, st *store.Store, base config.Tuning) *TuningHandler {
	return &TuningHandler{tuner: tuner, store: st, base: base}
}

// Restore applies the tuning saved in the store, if any.
func (h *TuningHandler) Restore() error {
	if h.store == nil {
		return nil
	}

	t := h.Base()
	if err := h.store.Settings().GetJSON(store.KeyTuning, &t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("saved tuning: %w", err)
	}

	h.tuner.ApplyTuning(t.Interaction())
	log.Println("Restored saved interaction tuning")
	return nil
}

// SetBase replaces the tuning DELETE restores, e.g. after a config reload.
func (h *TuningHandler) SetBase(base config.Tuning) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.base = base
}

// Base returns the tuning DELETE restores.
func (h *TuningHandler) Base() config.Tuning {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.base
}

// ServeHTTP handles GET, PUT and DELETE /api/tuning.
func (h *TuningHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, config.TuningFrom(h.tuner.Tuning()))
	case http.MethodPut:
		h.update(w, r)
	case http.MethodDelete:
		h.reset(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// update applies a full or partial tuning document on top of the current one.
func (h *TuningHandler) update(w http.ResponseWriter, r *http.Request) {
	t := config.TuningFrom(h.tuner.Tuning())
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.store != nil {
		if err := h.store.Settings().SetJSON(store.KeyTuning, t); err != nil {
			log.Printf("Failed to save tuning: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to save tuning")
			return
		}
	}

	h.tuner.ApplyTuning(t.Interaction())
	writeJSON(w, http.StatusOK, t)
}

// reset drops any saved tuning and reapplies the base.
func (h *TuningHandler) reset(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		err := h.store.Settings().Delete(store.KeyTuning)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("Failed to delete tuning: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to reset tuning")
			return
		}
	}

	base := h.Base()
	h.tuner.ApplyTuning(base.Interaction())
	writeJSON(w, http.StatusOK, base)
}
