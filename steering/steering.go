// Package steering implements the behavior catalog and the weighted force
// composer. All forces are expressed in the robot's local sensor frame: the
// x axis points along the current heading, the robot sits at the origin.
package steering

import (
	"fmt"
	"strings"

	"swarmpilot/vec"
)

// Role distinguishes the designated leader from ordinary swarm members.
type Role int

const (
	RoleFollower Role = iota
	RoleLeader
)

func (r Role) String() string {
	if r == RoleLeader {
		return "leader"
	}
	return "follower"
}

// RoleFromName derives the role from a robot's name. The first robot of a
// group (index suffix _0) or any robot explicitly named a leader leads.
func RoleFromName(name string) Role {
	if strings.HasSuffix(name, "_0") || strings.Contains(strings.ToLower(name), "leader") {
		return RoleLeader
	}
	return RoleFollower
}

// Agent is the behavior-relevant state of one robot.
type Agent struct {
	Name    string
	Role    Role
	Index   int // Position in the swarm roster, used for formation slots
	Pos     vec.V
	Heading float64
	Speed   float64
}

// Neighbor is one perceived swarm member, in the observer's local frame.
type Neighbor struct {
	Rel     vec.V   // Position relative to the observer
	Dist    float64 // Distance to the observer
	Bearing float64 // Angle from the observer's heading, in (-Pi, Pi]
	Leader  bool
}

// Obstacle is one perceived obstacle, in the observer's local frame.
type Obstacle struct {
	Rel     vec.V
	Dist    float64
	Bearing float64
}

// Perception bundles everything a behavior may consult in one tick.
type Perception struct {
	Neighbors []Neighbor
	Obstacles []Obstacle
}

// Behavior computes a desired force from the agent's current perception.
// Implementations may keep internal state between calls (wander's heading,
// exploration's visit counts) and must never return a non-finite vector.
type Behavior interface {
	Name() Name
	Force(a *Agent, p Perception) vec.V
}

// Name identifies a behavior in weight maps and telemetry.
type Name string

const (
	Separation        Name = "separation"
	Alignment         Name = "alignment"
	Cohesion          Name = "cohesion"
	ObstacleAvoidance Name = "obstacle_avoidance"
	Wander            Name = "wander"
	Formation         Name = "formation"
	LeaderFollow      Name = "leader_follow"
	Exploration       Name = "exploration"
)

// AllNames lists every behavior in composition order. The order is part of
// the engine's determinism contract: identical inputs and seeds replay to
// identical forces.
var AllNames = []Name{
	Separation,
	Alignment,
	Cohesion,
	ObstacleAvoidance,
	Wander,
	Formation,
	LeaderFollow,
	Exploration,
}

// Weights maps each behavior to its blend coefficient.
type Weights map[Name]float64

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Set updates one weight. Negative values are rejected, not clamped.
func (w Weights) Set(name Name, v float64) error {
	if v < 0 {
		return fmt.Errorf("weight %s must not be negative, got %v", name, v)
	}
	if _, ok := w[name]; !ok {
		known := false
		for _, n := range AllNames {
			if n == name {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown behavior %q", name)
		}
	}
	w[name] = v
	return nil
}
