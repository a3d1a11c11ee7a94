// Package mission implements the operating mode state machine and the
// canonical behavior weight profile for each mode.
package mission

import (
	"swarmpilot/steering"
)

// Mode is one operating mode of a robot.
type Mode int

const (
	ModeExploration Mode = iota
	ModeFormation
	ModeFollowing
	ModePatrol
	ModeSearch
	ModeEmergency
)

var modeNames = [...]string{
	"exploration",
	"formation",
	"following",
	"patrol",
	"search",
	"emergency",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// Profile returns the canonical weight set for a mode. Callers receive a
// fresh copy; tuning mutates its own copy, never the canon.
func Profile(m Mode) steering.Weights {
	var w steering.Weights
	switch m {
	case ModeFormation:
		w = steering.Weights{
			steering.Separation:        1.5,
			steering.Alignment:         2.0,
			steering.Cohesion:          1.8,
			steering.ObstacleAvoidance: 3.0,
			steering.Formation:         2.5,
		}
	case ModeFollowing:
		w = steering.Weights{
			steering.Separation:        2.0,
			steering.Alignment:         1.5,
			steering.Cohesion:          2.5,
			steering.ObstacleAvoidance: 3.0,
			steering.LeaderFollow:      3.0,
		}
	case ModePatrol:
		w = steering.Weights{
			steering.Separation:        3.0,
			steering.Alignment:         1.2,
			steering.Cohesion:          0.8,
			steering.ObstacleAvoidance: 4.0,
			steering.Exploration:       1.5,
			steering.Wander:            0.3,
		}
	case ModeSearch:
		w = steering.Weights{
			steering.Separation:        2.0,
			steering.Alignment:         2.5,
			steering.Cohesion:          1.5,
			steering.ObstacleAvoidance: 3.5,
			steering.Exploration:       2.5,
		}
	case ModeEmergency:
		// Fixed weights; the tuner never touches emergency mode.
		w = steering.Weights{
			steering.Separation:        4.0,
			steering.ObstacleAvoidance: 5.0,
		}
	default: // ModeExploration
		w = steering.Weights{
			steering.Separation:        2.5,
			steering.Alignment:         0.8,
			steering.Cohesion:          1.2,
			steering.ObstacleAvoidance: 3.5,
			steering.Exploration:       2.0,
			steering.Wander:            0.5,
		}
	}
	return w
}

// PrimaryWeight names the behavior the tuner reinforces when formation
// quality declines in a mode.
func PrimaryWeight(m Mode) steering.Name {
	switch m {
	case ModeFormation:
		return steering.Formation
	case ModeFollowing:
		return steering.LeaderFollow
	case ModePatrol, ModeSearch:
		return steering.Exploration
	default:
		return steering.Separation
	}
}

// Conditions is the per-tick evidence the machine evaluates.
type Conditions struct {
	NeighborCount   int
	LeaderVisible   bool
	MinObstacleDist float64 // +Inf when nothing is in sensor range
	FormationTarget bool    // A formation pattern is configured
	Role            steering.Role
}

// Machine decides the operating mode from tick conditions and directives.
// Emergency avoidance preempts everything and is left only after the
// obstacle has stayed clear for a debounce period.
type Machine struct {
	mode      Mode
	prev      Mode // Mode to resume after emergency clears
	commanded bool // A patrol or search directive is in force
	threshold float64
	debounce  int
	clear     int
}

// NewMachine starts in exploration mode.
func NewMachine(emergencyThreshold float64, debounceTicks int) *Machine {
	return &Machine{
		mode:      ModeExploration,
		prev:      ModeExploration,
		threshold: emergencyThreshold,
		debounce:  debounceTicks,
	}
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode { return m.mode }

// Directive commands patrol or search mode. The directive persists until the
// next directive; an emergency interrupts it and resumes it afterwards.
// Other modes cannot be commanded directly and clear any standing directive.
func (m *Machine) Directive(mode Mode) {
	switch mode {
	case ModePatrol, ModeSearch:
		m.commanded = true
		if m.mode == ModeEmergency {
			m.prev = mode
			return
		}
		m.mode = mode
		m.prev = mode
	default:
		m.commanded = false
	}
}

// Step evaluates one tick of conditions and returns the resulting mode.
func (m *Machine) Step(c Conditions) Mode {
	// Emergency preempts every other consideration.
	if c.MinObstacleDist < m.threshold {
		if m.mode != ModeEmergency {
			m.prev = m.mode
			m.mode = ModeEmergency
		}
		m.clear = 0
		return m.mode
	}

	if m.mode == ModeEmergency {
		m.clear++
		if m.clear < m.debounce {
			return m.mode
		}
		m.mode = m.prev
		m.clear = 0
	}

	// A standing patrol or search directive holds until replaced.
	if m.commanded {
		return m.mode
	}

	switch {
	case c.NeighborCount >= 2 && c.FormationTarget:
		m.mode = ModeFormation
	case c.Role == steering.RoleFollower && c.LeaderVisible:
		m.mode = ModeFollowing
	default:
		m.mode = ModeExploration
	}
	m.prev = m.mode
	return m.mode
}
