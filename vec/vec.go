// Package vec provides the small set of 2D vector and angle utilities the
// steering and drive packages are built on.
package vec

import "math"

// V is a 2D vector in the robot's sensor frame (x forward, y left).
type V struct {
	X float64
	Y float64
}

// Add returns v + o.
func (v V) Add(o V) V {
	return V{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v V) Sub(o V) V {
	return V{v.X - o.X, v.Y - o.Y}
}

// Scale returns v scaled by s.
func (v V) Scale(s float64) V {
	return V{v.X * s, v.Y * s}
}

// Len returns the magnitude of v.
func (v V) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Norm returns the unit vector along v, or the zero vector when v is
// degenerate (zero length, NaN or Inf components).
func (v V) Norm() V {
	if !v.Finite() {
		return V{}
	}
	l := v.Len()
	if l < 1e-12 {
		return V{}
	}
	return V{v.X / l, v.Y / l}
}

// Angle returns the bearing of v in radians, in (-Pi, Pi].
func (v V) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Finite reports whether both components are finite numbers.
func (v V) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// FromAngle returns the unit vector at the given bearing.
func FromAngle(a float64) V {
	return V{math.Cos(a), math.Sin(a)}
}

// WrapAngle wraps an angle to (-Pi, Pi].
func WrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
