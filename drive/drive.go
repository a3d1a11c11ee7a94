// Package drive maps composed steering forces to differential-drive wheel
// velocities.
package drive

import (
	"fmt"

	"swarmpilot/vec"
)

// Mapper converts a steering force in the local sensor frame into left and
// right wheel velocities, with exponential smoothing against jitter.
type Mapper struct {
	maxSpeed    float64
	forwardGain float64
	turnGain    float64
	alpha       float64
}

// NewMapper validates its parameters up front. Bad gains are a configuration
// error, not something to clamp at runtime.
func NewMapper(maxSpeed, forwardGain, turnGain, alpha float64) (*Mapper, error) {
	if maxSpeed <= 0 {
		return nil, fmt.Errorf("max speed must be positive, got %v", maxSpeed)
	}
	if forwardGain <= 0 {
		return nil, fmt.Errorf("forward gain must be positive, got %v", forwardGain)
	}
	if turnGain <= 0 {
		return nil, fmt.Errorf("turn gain must be positive, got %v", turnGain)
	}
	if alpha <= 0 || alpha > 1 {
		return nil, fmt.Errorf("smoothing alpha must be in (0, 1], got %v", alpha)
	}
	return &Mapper{maxSpeed: maxSpeed, forwardGain: forwardGain, turnGain: turnGain, alpha: alpha}, nil
}

// MaxSpeed returns the wheel velocity bound.
func (m *Mapper) MaxSpeed() float64 { return m.maxSpeed }

// WheelVelocities maps a local-frame force to smoothed wheel velocities.
// The force's angle is already relative to the heading, so it is the
// steering error directly. prevLeft and prevRight are last tick's outputs.
func (m *Mapper) WheelVelocities(force vec.V, prevLeft, prevRight float64) (left, right float64) {
	mag := force.Len()
	angle := force.Angle()
	if mag < 1e-12 {
		angle = 0
	}

	forward := mag * m.maxSpeed * m.forwardGain
	turn := angle * m.maxSpeed * m.turnGain

	left = vec.Clamp(forward-turn, -m.maxSpeed, m.maxSpeed)
	right = vec.Clamp(forward+turn, -m.maxSpeed, m.maxSpeed)

	left = m.alpha*left + (1-m.alpha)*prevLeft
	right = m.alpha*right + (1-m.alpha)*prevRight
	return left, right
}
