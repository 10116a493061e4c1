// Package geom provides the 2D vector helpers used by gesture classification
// and zone evaluation.
package geom

import (
	"errors"
	"math"
)

// ErrDegenerateGeometry is returned when an angle is requested for a vector
// whose length is effectively zero.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// minNorm is the shortest vector length Angle accepts.
const minNorm = 1e-9

// Point is a 2D point or direction vector.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p multiplied by k.
func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// Norm returns the length of p.
func (p Point) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Angle returns the angle in radians between direction vectors u and v,
// in [0, π]. It returns ErrDegenerateGeometry if either vector has zero length.
func Angle(u, v Point) (float64, error) {
	nu, nv := u.Norm(), v.Norm()
	if nu < minNorm || nv < minNorm {
		return 0, ErrDegenerateGeometry
	}

	cos := (u.X*v.X + u.Y*v.Y) / (nu * nv)
	return math.Acos(Clamp(cos, -1, 1)), nil
}

// AngleBetween returns the angle between the segments a1→a2 and b1→b2.
// A zero-length segment yields 0.
func AngleBetween(a1, a2, b1, b2 Point) float64 {
	angle, err := Angle(a2.Sub(a1), b2.Sub(b1))
	if err != nil {
		return 0
	}
	return angle
}

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Clamp01 limits v to the unit range.
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}
