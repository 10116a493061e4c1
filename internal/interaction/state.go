package interaction

import (
	"maps"
	"time"

	"github.com/ayusman/handpet/internal/geom"
	"github.com/ayusman/handpet/internal/gesture"
	"github.com/ayusman/handpet/internal/zone"
)

// PalmSample is a palm center observation in pixel space.
type PalmSample struct {
	Pos geom.Point `json:"pos"`
	At  time.Time  `json:"at"`
}

// State is the session state threaded through Engine.Step. Values are
// treated as immutable: Step and Tap return an updated copy and never
// modify the state they were given.
type State struct {
	Grabbing   bool `json:"grabbing"`
	Petting    bool `json:"petting"`
	Feeding    bool `json:"feeding"`
	Poking     bool `json:"poking"`
	HighFiving bool `json:"high_fiving"`
	Gesturing  bool `json:"gesturing"`
	// GestureFinger is the finger of the active single-finger gesture.
	GestureFinger *gesture.Finger `json:"gesture_finger,omitempty"`

	HandVisible  bool      `json:"hand_visible"`
	HandCount    int       `json:"hand_count"`
	LastHandSeen time.Time `json:"last_hand_seen"`

	Pet zone.Position `json:"pet"`
	// GrabOffset is pet minus pinch point in pixels; only meaningful while grabbing.
	GrabOffset geom.Point  `json:"grab_offset"`
	LastPalm   *PalmSample `json:"last_palm,omitempty"`

	lastFired cooldowns

	feedingUntil   time.Time
	pokingUntil    time.Time
	highFiveUntil  time.Time
	gesturingUntil time.Time
}

// NewState returns the state of a fresh session with the pet at pet.
func NewState(pet zone.Position) State {
	return State{Pet: pet}
}

// LastFired returns when the gate named key last fired.
func (s State) LastFired(key string) (time.Time, bool) {
	t, ok := s.lastFired[gateKey(key)]
	return t, ok
}

// refresh recomputes the timed flags for now.
func (s *State) refresh(now time.Time) {
	s.Feeding = now.Before(s.feedingUntil)
	s.Poking = now.Before(s.pokingUntil)
	s.HighFiving = now.Before(s.highFiveUntil)
	s.Gesturing = now.Before(s.gesturingUntil)
	if !s.Gesturing {
		s.GestureFinger = nil
	}
}

// reset clears everything tied to a visible hand. The pet position and
// cooldown history survive.
func (s *State) reset() {
	s.Grabbing = false
	s.Petting = false
	s.Feeding = false
	s.Poking = false
	s.HighFiving = false
	s.Gesturing = false
	s.GestureFinger = nil
	s.HandVisible = false
	s.HandCount = 0
	s.GrabOffset = geom.Point{}
	s.LastPalm = nil
	s.feedingUntil = time.Time{}
	s.pokingUntil = time.Time{}
	s.highFiveUntil = time.Time{}
	s.gesturingUntil = time.Time{}
}

// gateKey names a cooldown gate.
type gateKey string

const (
	gateFeed     gateKey = "feed"
	gatePet      gateKey = "pet"
	gatePoke     gateKey = "poke"
	gateTap      gateKey = "tap"
	gateHighFive gateKey = "high_five"
)

func fingerGate(f gesture.Finger) gateKey {
	return gateKey("finger:" + f.String())
}

// cooldowns maps each gate to the time it last fired.
type cooldowns map[gateKey]time.Time

// ready reports whether key may fire at now.
func (c cooldowns) ready(key gateKey, now time.Time, cooldown time.Duration) bool {
	last, ok := c[key]
	return !ok || now.Sub(last) > cooldown
}

// mark returns a copy of c with key set to now.
func (c cooldowns) mark(key gateKey, now time.Time) cooldowns {
	out := maps.Clone(c)
	if out == nil {
		out = make(cooldowns, 1)
	}
	out[key] = now
	return out
}
