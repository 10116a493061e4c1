// Package interaction advances the pet's interaction state one frame at a
// time. It combines gesture classification, zone proximity and per-event
// cooldowns into debounced events and a drag protocol for moving the pet.
//
// The package is synchronous and performs no I/O. Callers must feed frames
// in timestamp order and must not call an Engine concurrently.
package interaction

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/handpet/internal/detector"
	"github.com/ayusman/handpet/internal/geom"
	"github.com/ayusman/handpet/internal/gesture"
	"github.com/ayusman/handpet/internal/zone"
)

// Result describes what happened during one Step.
type Result struct {
	// Gesture is the classification of the first well-formed hand, or the
	// neutral state when there is none.
	Gesture   gesture.State  `json:"gesture"`
	Proximity zone.Proximity `json:"proximity"`
	HasHand   bool           `json:"has_hand"`
	// Dropped counts hands ignored for having the wrong landmark count.
	Dropped int     `json:"dropped"`
	Events  []Event `json:"events"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used to pick petting phrases.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

// WithIDs sets the generator for event IDs.
func WithIDs(next func() string) Option {
	return func(e *Engine) {
		e.ids = next
	}
}

// Engine runs the interaction state machine. It holds configuration only;
// all session data lives in State.
type Engine struct {
	config     Config
	classifier *gesture.Classifier
	rng        *rand.Rand
	ids        func() string
}

// NewEngine creates an Engine.
func NewEngine(config Config, opts ...Option) *Engine {
	e := &Engine{
		config:     config,
		classifier: gesture.NewClassifier(config.Gesture),
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		ids:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// NewState returns a fresh session state with the pet at its default position.
func (e *Engine) NewState() State {
	return NewState(e.config.DefaultPet)
}

// Step advances s by one frame. size is the reference frame size in pixels
// used for all zone checks. Malformed hands are skipped and counted in
// Result.Dropped; a frame without any well-formed hand counts toward the
// hand-lost timeout. HandCount reports every detected hand, well-formed or
// not.
func (e *Engine) Step(s State, f detector.Frame, size zone.Size) (State, Result) {
	now := f.Timestamp
	var res Result

	var (
		hand *detector.HandLandmarks
		g    gesture.State
	)
	for i := range f.Hands {
		h := &f.Hands[i]
		if hand == nil {
			st, err := e.classifier.Classify(h)
			if err != nil {
				res.Dropped++
				continue
			}
			hand, g = h, st
			continue
		}
		if err := h.Validate(); err != nil {
			res.Dropped++
		}
	}

	if hand == nil {
		if now.Sub(s.LastHandSeen) > e.config.HandLostAfter {
			s.reset()
		}
		s.refresh(now)
		return s, res
	}

	s.HandVisible = true
	s.HandCount = len(f.Hands)
	s.LastHandSeen = now
	res.HasHand = true
	res.Gesture = g

	if !size.Valid() {
		s.refresh(now)
		return s, res
	}

	p := zone.Evaluate(e.config.Zone, hand, g.PalmWidth, s.Pet, size)
	res.Proximity = p

	// Every gate below sees the drag state as it was when the frame arrived.
	wasGrabbing := s.Grabbing

	if !wasGrabbing && g.Pinching {
		if p.NearBowl {
			if s.lastFired.ready(gateFeed, now, e.config.FeedCooldown) {
				s.lastFired = s.lastFired.mark(gateFeed, now)
				s.feedingUntil = now.Add(e.config.FeedEffect)
				res.Events = append(res.Events, e.event(KindFeed, MessageFeed, now))
			}
		} else if p.NearPet {
			s.Grabbing = true
			s.GrabOffset = p.Pet.Sub(p.Pinch)
			res.Events = append(res.Events, e.event(KindGrab, "", now))
		}
	}

	if wasGrabbing {
		if g.Pinching {
			s.Pet = zone.FromPixel(p.Pinch.Add(s.GrabOffset), size)
		} else {
			s.Grabbing = false
			s.GrabOffset = geom.Point{}
			res.Events = append(res.Events, e.event(KindRelease, "", now))
		}
	}

	petting := !wasGrabbing && g.OpenHand && !g.Pinching && p.PalmNearPet
	s.Petting = petting
	if petting && s.lastFired.ready(gatePet, now, e.config.PetCooldown) {
		s.lastFired = s.lastFired.mark(gatePet, now)
		phrase := PetPhrases[e.rng.IntN(len(PetPhrases))]
		res.Events = append(res.Events, e.event(KindPet, phrase, now))
	}

	if petting && s.LastPalm != nil && e.highFive(s.LastPalm, p, now) &&
		s.lastFired.ready(gateHighFive, now, e.config.HighFiveCooldown) {
		s.lastFired = s.lastFired.mark(gateHighFive, now)
		s.highFiveUntil = now.Add(e.config.HighFiveEffect)
		res.Events = append(res.Events, e.event(KindHighFive, MessageHighFive, now))
	}
	s.LastPalm = &PalmSample{Pos: p.Palm, At: now}

	if !wasGrabbing && !g.Pinching && p.NearPet {
		if g.Pointing && s.lastFired.ready(gatePoke, now, e.config.PokeCooldown) {
			s.lastFired = s.lastFired.mark(gatePoke, now)
			res.Events = append(res.Events, e.event(KindPoke, MessagePoke, now))
		}

		if finger, ok := g.Extended.Only(); ok && finger != gesture.Index {
			key := fingerGate(finger)
			if s.lastFired.ready(key, now, e.config.FingerCooldown) {
				s.lastFired = s.lastFired.mark(key, now)
				s.gesturingUntil = now.Add(e.config.FingerEffect)
				s.GestureFinger = &finger
				ev := e.event(KindFinger, FingerPhrases[finger], now)
				ev.Finger = &finger
				res.Events = append(res.Events, ev)
			}
		}
	}

	s.refresh(now)
	return s, res
}

// highFive reports whether the palm moved toward the pet fast enough since prev.
func (e *Engine) highFive(prev *PalmSample, p zone.Proximity, now time.Time) bool {
	dt := max(e.config.MinSampleInterval, now.Sub(prev.At)).Seconds()
	speed := geom.Distance(prev.Pos, p.Palm) / dt
	approach := geom.Distance(prev.Pos, p.Pet) - geom.Distance(p.Palm, p.Pet)
	return approach > e.config.HighFiveMinApproach && speed > e.config.HighFiveMinSpeed
}

// Tap registers a direct tap on the pet at now.
func (e *Engine) Tap(s State, now time.Time) (State, []Event) {
	var events []Event
	if s.lastFired.ready(gateTap, now, e.config.TapCooldown) {
		s.lastFired = s.lastFired.mark(gateTap, now)
		s.pokingUntil = now.Add(e.config.TapEffect)
		events = append(events, e.event(KindTap, MessagePoke, now))
	}
	s.refresh(now)
	return s, events
}

func (e *Engine) event(kind Kind, message string, now time.Time) Event {
	ev := Event{
		ID:      e.ids(),
		Kind:    kind,
		Message: message,
		At:      now,
	}
	if message != "" {
		ev.Effect = e.config.MessageFor
	}
	return ev
}
