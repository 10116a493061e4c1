// Package gesture classifies a single hand's landmarks into a gesture vector.
package gesture

import (
	"fmt"
	"math"

	"github.com/ayusman/handpet/internal/detector"
	"github.com/ayusman/handpet/internal/geom"
)

// Config holds the classification thresholds.
type Config struct {
	// PinchRatio is the thumb-to-index tip distance, relative to palm
	// width, below which the hand is pinching.
	PinchRatio float64
	// ExtendMargin is how much farther from the wrist a tip must be than
	// its PIP joint for the finger to count as extended.
	ExtendMargin float64
	// ExtendMaxCurl is the curl a finger must stay under to count as extended.
	ExtendMaxCurl float64
	// FistMinCurl is the curl every finger must exceed for a fist.
	FistMinCurl float64
	// OpenMinFingers is the number of extended fingers for an open hand.
	OpenMinFingers int
	// MinPalmWidth floors the palm width used as a divisor.
	MinPalmWidth float64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		PinchRatio:     0.4,
		ExtendMargin:   0.07,
		ExtendMaxCurl:  0.35,
		FistMinCurl:    0.45,
		OpenMinFingers: 4,
		MinPalmWidth:   1e-6,
	}
}

// joints lists the landmarks used per finger: base, middle joint and tip.
// The thumb uses CMC/MCP in place of MCP/PIP.
var joints = [numFingers]struct{ mcp, pip, tip int }{
	Thumb:  {detector.ThumbCMC, detector.ThumbMCP, detector.ThumbTip},
	Index:  {detector.IndexMCP, detector.IndexPIP, detector.IndexTip},
	Middle: {detector.MiddleMCP, detector.MiddlePIP, detector.MiddleTip},
	Ring:   {detector.RingMCP, detector.RingPIP, detector.RingTip},
	Pinky:  {detector.PinkyMCP, detector.PinkyPIP, detector.PinkyTip},
}

// Classifier turns hands into gesture states. It holds no per-frame state.
type Classifier struct {
	config Config
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(config Config) *Classifier {
	return &Classifier{config: config}
}

// Classify computes the gesture state of hand using DefaultConfig.
func Classify(hand *detector.HandLandmarks) (State, error) {
	return NewClassifier(DefaultConfig()).Classify(hand)
}

// Classify computes the gesture state of hand.
// It returns detector.ErrInvalidHandShape if the hand does not carry
// exactly 21 landmarks; the returned State is then the neutral zero value.
func (c *Classifier) Classify(hand *detector.HandLandmarks) (State, error) {
	if err := hand.Validate(); err != nil {
		return State{}, fmt.Errorf("classify: %w", err)
	}

	var s State

	s.PalmWidth = math.Max(geom.Distance(hand.At(detector.IndexMCP), hand.At(detector.PinkyMCP)), c.config.MinPalmWidth)
	s.PinchRatio = geom.Distance(hand.At(detector.ThumbTip), hand.At(detector.IndexTip)) / s.PalmWidth
	s.Pinching = s.PinchRatio < c.config.PinchRatio

	wrist := hand.At(detector.Wrist)
	for _, f := range AllFingers {
		j := joints[f]
		mcp, pip, tip := hand.At(j.mcp), hand.At(j.pip), hand.At(j.tip)

		curl := geom.Clamp01(geom.AngleBetween(mcp, pip, pip, tip) / math.Pi)
		s.Curl[f] = curl

		reach := geom.Distance(wrist, tip) - geom.Distance(wrist, pip)
		if reach > c.config.ExtendMargin && curl < c.config.ExtendMaxCurl {
			s.Extended = s.Extended.Add(f)
		}
	}

	count := s.Extended.Len()
	s.OpenHand = count >= c.config.OpenMinFingers
	s.Fist = count <= 1 && s.Curl.AllAbove(c.config.FistMinCurl)
	s.Pointing = s.Extended.Has(Index) &&
		!s.Extended.Has(Middle) &&
		!s.Extended.Has(Ring) &&
		!s.Extended.Has(Pinky)

	return s, nil
}
