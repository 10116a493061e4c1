package gesture

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Finger identifies one finger of a hand.
type Finger int

// Fingers in landmark order.
const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

const numFingers = 5

// AllFingers lists every finger, thumb first.
var AllFingers = [numFingers]Finger{Thumb, Index, Middle, Ring, Pinky}

var fingerNames = [numFingers]string{"thumb", "index", "middle", "ring", "pinky"}

// String returns the lower-case finger name.
func (f Finger) String() string {
	if f < 0 || int(f) >= numFingers {
		return fmt.Sprintf("finger(%d)", int(f))
	}
	return fingerNames[f]
}

// MarshalText implements encoding.TextMarshaler.
func (f Finger) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Finger) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for i, n := range fingerNames {
		if n == name {
			*f = Finger(i)
			return nil
		}
	}
	return fmt.Errorf("unknown finger %q", text)
}

// FingerSet is a set of fingers.
type FingerSet uint8

// Add returns the set with f included.
func (s FingerSet) Add(f Finger) FingerSet {
	return s | 1<<uint(f)
}

// Has reports whether f is in the set.
func (s FingerSet) Has(f Finger) bool {
	return s&(1<<uint(f)) != 0
}

// Len returns the number of fingers in the set.
func (s FingerSet) Len() int {
	n := 0
	for _, f := range AllFingers {
		if s.Has(f) {
			n++
		}
	}
	return n
}

// Fingers returns the members of the set, thumb first.
func (s FingerSet) Fingers() []Finger {
	out := make([]Finger, 0, numFingers)
	for _, f := range AllFingers {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Only returns the single member of a one-finger set.
func (s FingerSet) Only() (Finger, bool) {
	if s.Len() != 1 {
		return 0, false
	}
	return s.Fingers()[0], true
}

// MarshalJSON encodes the set as a list of finger names.
func (s FingerSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Fingers())
}

// UnmarshalJSON decodes a list of finger names.
func (s *FingerSet) UnmarshalJSON(data []byte) error {
	var fingers []Finger
	if err := json.Unmarshal(data, &fingers); err != nil {
		return err
	}
	var out FingerSet
	for _, f := range fingers {
		out = out.Add(f)
	}
	*s = out
	return nil
}

// Curls holds a curl value in [0,1] per finger; 0 is straight, 1 folded back.
type Curls [numFingers]float64

// AllAbove reports whether every finger's curl exceeds threshold.
func (c Curls) AllAbove(threshold float64) bool {
	for _, v := range c {
		if v <= threshold {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the curls keyed by finger name.
func (c Curls) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, numFingers)
	for _, f := range AllFingers {
		m[f.String()] = c[f]
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes curls keyed by finger name.
func (c *Curls) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Curls
	for name, v := range m {
		var f Finger
		if err := f.UnmarshalText([]byte(name)); err != nil {
			return err
		}
		out[f] = v
	}
	*c = out
	return nil
}

// State is the gesture vector of one hand for one frame. It is recomputed
// from scratch every frame. OpenHand and Fist are independent flags.
type State struct {
	Pinching   bool      `json:"pinching"`
	OpenHand   bool      `json:"open_hand"`
	Fist       bool      `json:"fist"`
	Pointing   bool      `json:"pointing"`
	PinchRatio float64   `json:"pinch_ratio"`
	PalmWidth  float64   `json:"palm_width"`
	Extended   FingerSet `json:"extended"`
	Curl       Curls     `json:"curl"`
}
