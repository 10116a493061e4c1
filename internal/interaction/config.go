package interaction

import (
	"time"

	"github.com/ayusman/handpet/internal/gesture"
	"github.com/ayusman/handpet/internal/zone"
)

// Config holds the timing and threshold parameters of the state machine.
type Config struct {
	// HandLostAfter is how long hands must stay absent before state is reset.
	HandLostAfter time.Duration

	FeedCooldown time.Duration
	FeedEffect   time.Duration

	PetCooldown time.Duration

	PokeCooldown time.Duration

	TapCooldown time.Duration
	TapEffect   time.Duration

	// FingerCooldown applies to each finger separately.
	FingerCooldown time.Duration
	FingerEffect   time.Duration

	HighFiveCooldown time.Duration
	HighFiveEffect   time.Duration
	// HighFiveMinSpeed is the palm speed in px/s a high five must exceed.
	HighFiveMinSpeed float64
	// HighFiveMinApproach is how many pixels closer to the pet the palm
	// must have moved since the previous sample.
	HighFiveMinApproach float64
	// MinSampleInterval floors the time between palm samples.
	MinSampleInterval time.Duration

	// MessageFor is how long a sink should keep an event message visible.
	MessageFor time.Duration

	// DefaultPet is where the pet starts a session.
	DefaultPet zone.Position

	Gesture gesture.Config
	Zone    zone.Config
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		HandLostAfter: 500 * time.Millisecond,

		FeedCooldown: 1200 * time.Millisecond,
		FeedEffect:   800 * time.Millisecond,

		PetCooldown: 1000 * time.Millisecond,

		PokeCooldown: 1000 * time.Millisecond,

		TapCooldown: 500 * time.Millisecond,
		TapEffect:   350 * time.Millisecond,

		FingerCooldown: 1000 * time.Millisecond,
		FingerEffect:   350 * time.Millisecond,

		HighFiveCooldown:    1200 * time.Millisecond,
		HighFiveEffect:      700 * time.Millisecond,
		HighFiveMinSpeed:    900,
		HighFiveMinApproach: 12,
		MinSampleInterval:   time.Millisecond,

		MessageFor: 1200 * time.Millisecond,

		DefaultPet: zone.Position{X: 50, Y: 80},

		Gesture: gesture.DefaultConfig(),
		Zone:    zone.DefaultConfig(),
	}
}
