package app

import (
	"time"

	"github.com/ayusman/handpet/internal/gesture"
	"github.com/ayusman/handpet/internal/interaction"
	"github.com/ayusman/handpet/internal/zone"
)

// Snapshot is what a presentation layer sees after each processed frame or tap.
type Snapshot struct {
	Seq       uint64              `json:"seq"`
	Session   string              `json:"session"`
	At        time.Time           `json:"at"`
	State     interaction.State   `json:"state"`
	Gesture   gesture.State       `json:"gesture"`
	Proximity zone.Proximity      `json:"proximity"`
	HasHand   bool                `json:"has_hand"`
	Dropped   int                 `json:"dropped_hands"`
	Events    []interaction.Event `json:"events"`
	Size      zone.Size           `json:"size"`
}

// Sink receives snapshots. Publish is called synchronously from the
// pipeline and must not block; sinks never modify the snapshot.
type Sink interface {
	Publish(Snapshot)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Snapshot)

// Publish calls f(s).
func (f SinkFunc) Publish(s Snapshot) {
	f(s)
}
