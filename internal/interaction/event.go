package interaction

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayusman/handpet/internal/gesture"
)

// Kind identifies an interaction event.
type Kind string

// Event kinds.
const (
	KindFeed     Kind = "feed"
	KindPet      Kind = "pet"
	KindPoke     Kind = "poke"
	KindTap      Kind = "tap"
	KindFinger   Kind = "finger"
	KindHighFive Kind = "high_five"
	KindGrab     Kind = "grab"
	KindRelease  Kind = "release"
)

// Event messages.
const (
	MessageFeed     = "Yum!"
	MessagePoke     = "Boop!"
	MessageHighFive = "High five!"
)

// PetPhrases are the messages a petting event picks from.
var PetPhrases = []string{
	"Purr... that feels nice!",
	"So comfy!",
	"Meow! More please!",
	"Happy pet!",
}

// FingerPhrases maps each single-finger gesture to its message. The index
// finger is absent: pointing is a poke.
var FingerPhrases = map[gesture.Finger]string{
	gesture.Thumb:  "Thumbs up!",
	gesture.Middle: "Hey, rude!",
	gesture.Ring:   "Shiny!",
	gesture.Pinky:  "Pinky promise!",
}

// Event is a discrete interaction fired by the state machine.
type Event struct {
	ID      string          `json:"id"`
	Kind    Kind            `json:"kind"`
	Finger  *gesture.Finger `json:"finger,omitempty"`
	Message string          `json:"message,omitempty"`
	At      time.Time       `json:"at"`
	// Effect is how long the message should stay on screen.
	Effect time.Duration `json:"-"`
}

// MarshalJSON adds the effect duration in milliseconds.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return json.Marshal(struct {
		plain
		EffectMs int64 `json:"effect_ms"`
	}{plain(e), e.Effect.Milliseconds()})
}

// String renders the event for logs.
func (e Event) String() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s %q", e.Kind, e.Message)
}
