package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/handpet/internal/app"
	"github.com/ayusman/handpet/internal/interaction"
	"github.com/ayusman/handpet/internal/zone"
)

type fakePet struct {
	mu      sync.Mutex
	snap    app.Snapshot
	enabled bool
	taps    int
	tuning  interaction.Config
}

func newFakePet() *fakePet {
	return &fakePet{
		snap: app.Snapshot{
			Seq:     3,
			Session: "session-1",
			State:   interaction.NewState(zone.Position{X: 50, Y: 80}),
		},
		enabled: true,
		tuning:  interaction.DefaultConfig(),
	}
}

func (p *fakePet) Snapshot() app.Snapshot { return p.snap }
func (p *fakePet) Stats() app.Stats       { return app.Stats{Processed: 7, Dropped: 2} }

func (p *fakePet) Tap() []interaction.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.taps++
	if p.taps > 1 {
		return nil
	}
	return []interaction.Event{{
		ID:      "ev-1",
		Kind:    interaction.KindTap,
		Message: interaction.MessagePoke,
		At:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Effect:  1200 * time.Millisecond,
	}}
}

func (p *fakePet) IsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

func (p *fakePet) SetEnabled(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = v
}

func (p *fakePet) Tuning() interaction.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tuning
}

func (p *fakePet) ApplyTuning(c interaction.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tuning = c
}

func TestPetHandler_State(t *testing.T) {
	h := NewPetHandler(newFakePet())

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	h.State(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp struct {
		Snapshot struct {
			Seq     uint64 `json:"seq"`
			Session string `json:"session"`
			State   struct {
				Pet struct {
					X float64 `json:"x"`
					Y float64 `json:"y"`
				} `json:"pet"`
			} `json:"state"`
		} `json:"snapshot"`
		Enabled bool `json:"enabled"`
		Stats   struct {
			Processed uint64 `json:"processed"`
			Dropped   uint64 `json:"dropped"`
		} `json:"stats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Snapshot.Seq != 3 || resp.Snapshot.Session != "session-1" {
		t.Errorf("snapshot = %+v", resp.Snapshot)
	}
	if resp.Snapshot.State.Pet.X != 50 || resp.Snapshot.State.Pet.Y != 80 {
		t.Errorf("pet = %+v", resp.Snapshot.State.Pet)
	}
	if !resp.Enabled {
		t.Error("enabled should be true")
	}
	if resp.Stats.Processed != 7 || resp.Stats.Dropped != 2 {
		t.Errorf("stats = %+v", resp.Stats)
	}
}

func TestPetHandler_MethodNotAllowed(t *testing.T) {
	h := NewPetHandler(newFakePet())

	tests := []struct {
		name    string
		method  string
		handler http.HandlerFunc
	}{
		{"state post", http.MethodPost, h.State},
		{"tap get", http.MethodGet, h.Tap},
		{"detection delete", http.MethodDelete, h.Detection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(tt.method, "/", nil))
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
			}
		})
	}
}

func TestPetHandler_Tap(t *testing.T) {
	h := NewPetHandler(newFakePet())

	rec := httptest.NewRecorder()
	h.Tap(rec, httptest.NewRequest(http.MethodPost, "/api/tap", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Events []struct {
			ID       string `json:"id"`
			Kind     string `json:"kind"`
			Message  string `json:"message"`
			EffectMS int64  `json:"effect_ms"`
		} `json:"events"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Events) != 1 {
		t.Fatalf("events = %+v, want one", resp.Events)
	}
	ev := resp.Events[0]
	if ev.Kind != "tap" || ev.Message != "Boop!" || ev.EffectMS != 1200 {
		t.Errorf("event = %+v", ev)
	}

	// A tap inside the cooldown returns an empty list, not null.
	rec = httptest.NewRecorder()
	h.Tap(rec, httptest.NewRequest(http.MethodPost, "/api/tap", nil))
	if body := strings.TrimSpace(rec.Body.String()); body != `{"events":[]}` {
		t.Errorf("body = %s", body)
	}
}

func TestPetHandler_Detection(t *testing.T) {
	pet := newFakePet()
	h := NewPetHandler(pet)

	rec := httptest.NewRecorder()
	h.Detection(rec, httptest.NewRequest(http.MethodPut, "/api/detection", strings.NewReader(`{"enabled": false}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if pet.IsEnabled() {
		t.Error("detection should be disabled")
	}

	rec = httptest.NewRecorder()
	h.Detection(rec, httptest.NewRequest(http.MethodGet, "/api/detection", nil))
	if body := strings.TrimSpace(rec.Body.String()); body != `{"enabled":false}` {
		t.Errorf("body = %s", body)
	}

	t.Run("rejects missing field", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Detection(rec, httptest.NewRequest(http.MethodPut, "/api/detection", strings.NewReader(`{}`)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Detection(rec, httptest.NewRequest(http.MethodPut, "/api/detection", strings.NewReader(`{`)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}
