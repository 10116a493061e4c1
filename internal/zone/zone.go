// Package zone maps landmarks into the mirrored pixel space of the preview
// and evaluates how close the hand is to the pet and the feeding bowl.
package zone

import (
	"math"

	"github.com/ayusman/handpet/internal/detector"
	"github.com/ayusman/handpet/internal/geom"
)

// Config holds the zone geometry.
type Config struct {
	// MinNearRadius is the smallest pet capture radius in pixels.
	MinNearRadius float64
	// PalmRadiusScale shrinks the pet radius for palm-based checks.
	PalmRadiusScale float64
	// BowlX and BowlY place the bowl as fractions of the frame size.
	BowlX float64
	BowlY float64
	// MinBowlRadius is the smallest bowl capture radius in pixels.
	MinBowlRadius float64
	// BowlRadiusScale derives the bowl radius from the pet radius.
	BowlRadiusScale float64
}

// DefaultConfig returns the standard zone geometry.
func DefaultConfig() Config {
	return Config{
		MinNearRadius:   50,
		PalmRadiusScale: 0.9,
		BowlX:           0.5,
		BowlY:           0.88,
		MinBowlRadius:   60,
		BowlRadiusScale: 0.5,
	}
}

// Size is the reference frame size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Position is a location in percent of the reference frame, each axis in [0,100].
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pixel converts the position to pixel space.
func (p Position) Pixel(size Size) geom.Point {
	return geom.Point{X: p.X / 100 * size.Width, Y: p.Y / 100 * size.Height}
}

// FromPixel converts a pixel point to a position, clamped to the frame.
func FromPixel(pt geom.Point, size Size) Position {
	return Position{
		X: geom.Clamp(pt.X/size.Width*100, 0, 100),
		Y: geom.Clamp(pt.Y/size.Height*100, 0, 100),
	}
}

// ToPixel maps a normalized landmark to pixel space, mirrored horizontally
// to match the flipped preview.
func ToPixel(p geom.Point, size Size) geom.Point {
	return geom.Point{X: (1 - p.X) * size.Width, Y: p.Y * size.Height}
}

// PinchPoint returns the normalized midpoint of the thumb and index tips.
func PinchPoint(hand *detector.HandLandmarks) geom.Point {
	return geom.Midpoint(hand.At(detector.ThumbTip), hand.At(detector.IndexTip))
}

// PalmCenter returns the normalized mean of the wrist, index MCP and pinky MCP.
func PalmCenter(hand *detector.HandLandmarks) geom.Point {
	sum := hand.At(detector.Wrist).Add(hand.At(detector.IndexMCP)).Add(hand.At(detector.PinkyMCP))
	return sum.Scale(1.0 / 3)
}

// Proximity is the spatial relationship between one hand and the zones,
// all in pixel space.
type Proximity struct {
	Pinch       geom.Point `json:"pinch"`
	Palm        geom.Point `json:"palm"`
	Pet         geom.Point `json:"pet"`
	Bowl        geom.Point `json:"bowl"`
	NearRadius  float64    `json:"near_radius"`
	BowlRadius  float64    `json:"bowl_radius"`
	NearPet     bool       `json:"near_pet"`
	PalmNearPet bool       `json:"palm_near_pet"`
	NearBowl    bool       `json:"near_bowl"`
}

// Evaluate computes the proximity of hand to the pet at pet and to the bowl.
// palmWidth is the normalized palm width from classification; the pet
// radius scales with it so a hand closer to the camera reaches farther.
// The hand must have been validated.
func Evaluate(cfg Config, hand *detector.HandLandmarks, palmWidth float64, pet Position, size Size) Proximity {
	p := Proximity{
		Pinch: ToPixel(PinchPoint(hand), size),
		Palm:  ToPixel(PalmCenter(hand), size),
		Pet:   pet.Pixel(size),
		Bowl:  geom.Point{X: size.Width * cfg.BowlX, Y: size.Height * cfg.BowlY},
	}

	p.NearRadius = math.Max(cfg.MinNearRadius, palmWidth*math.Min(size.Width, size.Height))
	p.BowlRadius = math.Max(cfg.MinBowlRadius, p.NearRadius*cfg.BowlRadiusScale)

	p.NearPet = geom.Distance(p.Pinch, p.Pet) < p.NearRadius
	p.PalmNearPet = geom.Distance(p.Palm, p.Pet) < p.NearRadius*cfg.PalmRadiusScale
	p.NearBowl = geom.Distance(p.Pinch, p.Bowl) < p.BowlRadius

	return p
}
