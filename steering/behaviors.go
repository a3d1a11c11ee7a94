package steering

import (
	"log/slog"
	"math"
	"math/rand/v2"

	"swarmpilot/vec"
)

// repulsion accumulates inverse-distance weighted push-away vectors from
// everything closer than the threshold, normalized to a unit direction.
func repulsion(points []vec.V, dists []float64, threshold float64) vec.V {
	var total vec.V
	for i, p := range points {
		if dists[i] >= threshold {
			continue
		}
		away := p.Norm().Scale(-1.0 / (dists[i] + 0.1))
		total = total.Add(away)
	}
	return total.Norm()
}

// SeparationBehavior pushes away from neighbors closer than the threshold.
type SeparationBehavior struct {
	Threshold float64
}

func (s *SeparationBehavior) Name() Name { return Separation }

func (s *SeparationBehavior) Force(a *Agent, p Perception) vec.V {
	points := make([]vec.V, len(p.Neighbors))
	dists := make([]float64, len(p.Neighbors))
	for i, n := range p.Neighbors {
		points[i] = n.Rel
		dists[i] = n.Dist
	}
	return repulsion(points, dists, s.Threshold)
}

// AlignmentBehavior steers toward the heading of the local group, approximated
// by the direction to the neighbor centroid.
type AlignmentBehavior struct{}

func (AlignmentBehavior) Name() Name { return Alignment }

func (AlignmentBehavior) Force(a *Agent, p Perception) vec.V {
	if len(p.Neighbors) == 0 {
		return vec.V{}
	}
	var c vec.V
	for _, n := range p.Neighbors {
		c = c.Add(n.Rel)
	}
	c = c.Scale(1.0 / float64(len(p.Neighbors)))
	return c.Norm()
}

// CohesionBehavior pulls toward the neighbor centroid, but only when the
// centroid is far enough away to be worth chasing.
type CohesionBehavior struct {
	Threshold float64
}

func (c *CohesionBehavior) Name() Name { return Cohesion }

func (c *CohesionBehavior) Force(a *Agent, p Perception) vec.V {
	if len(p.Neighbors) == 0 {
		return vec.V{}
	}
	var centroid vec.V
	for _, n := range p.Neighbors {
		centroid = centroid.Add(n.Rel)
	}
	centroid = centroid.Scale(1.0 / float64(len(p.Neighbors)))
	if centroid.Len() <= c.Threshold {
		return vec.V{}
	}
	return centroid.Norm()
}

// ObstacleAvoidanceBehavior pushes away from obstacles closer than the
// threshold, with the same inverse-distance weighting as separation.
type ObstacleAvoidanceBehavior struct {
	Threshold float64
}

func (o *ObstacleAvoidanceBehavior) Name() Name { return ObstacleAvoidance }

func (o *ObstacleAvoidanceBehavior) Force(a *Agent, p Perception) vec.V {
	points := make([]vec.V, len(p.Obstacles))
	dists := make([]float64, len(p.Obstacles))
	for i, ob := range p.Obstacles {
		points[i] = ob.Rel
		dists[i] = ob.Dist
	}
	return repulsion(points, dists, o.Threshold)
}

// WanderBehavior produces a slowly drifting unit force. The internal angle is
// relative to the robot's heading, so an undisturbed angle of zero means
// straight ahead. The angle advances every composer tick regardless of the
// wander weight, keeping replays seed-deterministic.
type WanderBehavior struct {
	Jitter float64
	angle  float64
	rng    *rand.Rand
}

// NewWander seeds the drift source. The same seed replays the same drift.
func NewWander(jitter float64, seed uint64) *WanderBehavior {
	return &WanderBehavior{
		Jitter: jitter,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (w *WanderBehavior) Name() Name { return Wander }

func (w *WanderBehavior) Force(a *Agent, p Perception) vec.V {
	w.angle = vec.WrapAngle(w.angle + (w.rng.Float64()*2-1)*w.Jitter)
	return vec.FromAngle(w.angle)
}

// Angle returns the current wander angle relative to the heading.
func (w *WanderBehavior) Angle() float64 { return w.angle }

// SetAngle overrides the wander angle.
func (w *WanderBehavior) SetAngle(a float64) { w.angle = vec.WrapAngle(a) }

// FormationBehavior steers toward this robot's slot in the configured
// pattern, anchored at the perceived group centroid. The force scales down
// as the robot closes on its slot so settled formations stay settled.
type FormationBehavior struct {
	Pattern string // circle, line or vee
	Radius  float64
	Spacing float64
}

func (f *FormationBehavior) Name() Name { return Formation }

func (f *FormationBehavior) Force(a *Agent, p Perception) vec.V {
	if len(p.Neighbors) == 0 {
		return vec.V{}
	}
	var centroid vec.V
	for _, n := range p.Neighbors {
		centroid = centroid.Add(n.Rel)
	}
	centroid = centroid.Scale(1.0 / float64(len(p.Neighbors)))

	var slot vec.V
	switch f.Pattern {
	case "line":
		// Abreast of the centroid: cancel lateral offset, keep station.
		slot = vec.V{X: centroid.X, Y: 0}
	case "vee":
		// Staggered rows trailing the lead slot, alternating sides.
		row := float64((a.Index + 1) / 2)
		side := 1.0
		if a.Index%2 == 0 {
			side = -1.0
		}
		slot = centroid.Add(vec.V{X: -row * f.Spacing, Y: side * row * f.Spacing})
	default: // circle
		// My slot sits on the ring through my current radial direction.
		radial := vec.V{}.Sub(centroid)
		if radial.Len() < 1e-9 {
			radial = vec.V{X: 1, Y: 0}
		}
		slot = centroid.Add(radial.Norm().Scale(f.Radius))
	}

	disp := slot
	mag := math.Min(1.0, disp.Len()/f.Radius)
	return disp.Norm().Scale(mag)
}

// LeaderFollowBehavior trails the visible leader at a fixed gap. The leader
// itself, and any follower that cannot see a leader, falls back to the
// exploration force so the swarm keeps moving instead of stalling.
type LeaderFollowBehavior struct {
	Gap      float64
	Fallback Behavior
	Log      *slog.Logger

	warned bool
}

func (l *LeaderFollowBehavior) Name() Name { return LeaderFollow }

func (l *LeaderFollowBehavior) Force(a *Agent, p Perception) vec.V {
	if a.Role == RoleLeader {
		return l.Fallback.Force(a, p)
	}
	for _, n := range p.Neighbors {
		if !n.Leader {
			continue
		}
		l.warned = false
		desired := n.Rel.Sub(n.Rel.Norm().Scale(l.Gap))
		return desired.Norm()
	}
	if !l.warned && l.Log != nil {
		l.Log.Debug("leader not visible, falling back to exploration", "robot", a.Name)
		l.warned = true
	}
	return l.Fallback.Force(a, p)
}

// ExplorationBehavior biases motion toward the least-visited angular sector.
// Visits are counted against the sector containing the current heading, so
// coverage builds up from actual travel rather than intent.
type ExplorationBehavior struct {
	Sectors int
	visits  []int
}

func NewExploration(sectors int) *ExplorationBehavior {
	return &ExplorationBehavior{
		Sectors: sectors,
		visits:  make([]int, sectors),
	}
}

func (e *ExplorationBehavior) Name() Name { return Exploration }

func (e *ExplorationBehavior) Force(a *Agent, p Perception) vec.V {
	width := 2 * math.Pi / float64(e.Sectors)
	cur := int(math.Floor((vec.WrapAngle(a.Heading) + math.Pi) / width))
	if cur >= e.Sectors {
		cur = e.Sectors - 1
	}
	e.visits[cur]++

	// Least-visited sector wins; ties resolve to the lowest index.
	target := 0
	for i := 1; i < e.Sectors; i++ {
		if e.visits[i] < e.visits[target] {
			target = i
		}
	}
	center := -math.Pi + (float64(target)+0.5)*width
	return vec.FromAngle(vec.WrapAngle(center - a.Heading))
}

// Visits exposes the per-sector visit counts for telemetry.
func (e *ExplorationBehavior) Visits() []int {
	out := make([]int, len(e.visits))
	copy(out, e.visits)
	return out
}
