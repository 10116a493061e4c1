// Package detector provides hand detection interfaces and the landmark data model.
package detector

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/handpet/internal/geom"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrInvalidHandShape is returned when a hand does not carry exactly
// NumLandmarks points.
var ErrInvalidHandShape = errors.New("invalid hand shape")

// Point3D represents a landmark in normalized image coordinates.
// Z is reported by the detector but unused by classification.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// XY drops the depth component.
func (p Point3D) XY() geom.Point {
	return geom.Point{X: p.X, Y: p.Y}
}

// HandLandmarks represents one detected hand.
type HandLandmarks struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Validate checks that the hand carries exactly NumLandmarks points.
func (h *HandLandmarks) Validate() error {
	if h == nil {
		return fmt.Errorf("%w: nil hand", ErrInvalidHandShape)
	}
	if len(h.Points) != NumLandmarks {
		return fmt.Errorf("%w: got %d landmarks, want %d", ErrInvalidHandShape, len(h.Points), NumLandmarks)
	}
	return nil
}

// At returns landmark i projected onto the image plane.
// The caller must have validated the hand.
func (h *HandLandmarks) At(i int) geom.Point {
	return h.Points[i].XY()
}

// Translate returns a copy of the hand shifted by (dx, dy).
func (h HandLandmarks) Translate(dx, dy float64) HandLandmarks {
	moved := HandLandmarks{
		Points:     make([]Point3D, len(h.Points)),
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	for i, p := range h.Points {
		moved.Points[i] = Point3D{X: p.X + dx, Y: p.Y + dy, Z: p.Z}
	}
	return moved
}

// Frame is one detector result: zero or more hands plus the capture time.
type Frame struct {
	Hands     []HandLandmarks `json:"hands"`
	Timestamp time.Time       `json:"timestamp"`
}
