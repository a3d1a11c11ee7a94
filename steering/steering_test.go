package steering

import (
	"math"
	"testing"

	"swarmpilot/vec"
)

func neighborAt(x, y float64, leader bool) Neighbor {
	rel := vec.V{X: x, Y: y}
	return Neighbor{Rel: rel, Dist: rel.Len(), Bearing: rel.Angle(), Leader: leader}
}

func obstacleAt(x, y float64) Obstacle {
	rel := vec.V{X: x, Y: y}
	return Obstacle{Rel: rel, Dist: rel.Len(), Bearing: rel.Angle()}
}

func approxEq(t *testing.T, got, want vec.V, tol float64) {
	t.Helper()
	if math.Abs(got.X-want.X) > tol || math.Abs(got.Y-want.Y) > tol {
		t.Errorf("got (%v, %v), want (%v, %v)", got.X, got.Y, want.X, want.Y)
	}
}

func TestSeparationPushesDirectlyAway(t *testing.T) {
	sep := &SeparationBehavior{Threshold: 0.8}
	a := &Agent{Name: "robot_1"}
	p := Perception{Neighbors: []Neighbor{neighborAt(0.3, 0, false)}}

	f := sep.Force(a, p)
	approxEq(t, f, vec.V{X: -1, Y: 0}, 1e-9)
}

func TestSeparationZeroBeyondThreshold(t *testing.T) {
	sep := &SeparationBehavior{Threshold: 0.8}
	a := &Agent{}
	p := Perception{Neighbors: []Neighbor{
		neighborAt(1.0, 0, false),
		neighborAt(0, 2.5, false),
	}}

	f := sep.Force(a, p)
	if f.Len() != 0 {
		t.Errorf("expected zero force beyond threshold, got (%v, %v)", f.X, f.Y)
	}
}

func TestSeparationCloserNeighborDominates(t *testing.T) {
	sep := &SeparationBehavior{Threshold: 0.8}
	a := &Agent{}
	p := Perception{Neighbors: []Neighbor{
		neighborAt(0.2, 0, false),
		neighborAt(-0.6, 0, false),
	}}

	f := sep.Force(a, p)
	if f.X >= 0 {
		t.Errorf("closer neighbor should dominate, got x component %v", f.X)
	}
}

func TestAlignmentTowardCentroid(t *testing.T) {
	align := AlignmentBehavior{}
	a := &Agent{}
	p := Perception{Neighbors: []Neighbor{
		neighborAt(1, 1, false),
		neighborAt(1, -1, false),
	}}

	f := align.Force(a, p)
	approxEq(t, f, vec.V{X: 1, Y: 0}, 1e-9)
}

func TestAlignmentEmptyNeighbors(t *testing.T) {
	f := AlignmentBehavior{}.Force(&Agent{}, Perception{})
	if f.Len() != 0 {
		t.Errorf("expected zero force with no neighbors, got (%v, %v)", f.X, f.Y)
	}
}

func TestCohesionThreshold(t *testing.T) {
	coh := &CohesionBehavior{Threshold: 0.5}
	a := &Agent{}

	near := Perception{Neighbors: []Neighbor{neighborAt(0.3, 0, false)}}
	if f := coh.Force(a, near); f.Len() != 0 {
		t.Errorf("centroid inside threshold should yield zero, got (%v, %v)", f.X, f.Y)
	}

	far := Perception{Neighbors: []Neighbor{neighborAt(2, 0, false)}}
	approxEq(t, coh.Force(a, far), vec.V{X: 1, Y: 0}, 1e-9)
}

func TestObstacleAvoidance(t *testing.T) {
	avoid := &ObstacleAvoidanceBehavior{Threshold: 0.4}
	a := &Agent{}

	p := Perception{Obstacles: []Obstacle{obstacleAt(0.2, 0)}}
	approxEq(t, avoid.Force(a, p), vec.V{X: -1, Y: 0}, 1e-9)

	farP := Perception{Obstacles: []Obstacle{obstacleAt(1.0, 0)}}
	if f := avoid.Force(a, farP); f.Len() != 0 {
		t.Errorf("obstacle beyond threshold should yield zero, got (%v, %v)", f.X, f.Y)
	}
}

func TestWanderIgnoresPerception(t *testing.T) {
	a := &Agent{}
	empty := Perception{}
	crowded := Perception{
		Neighbors: []Neighbor{neighborAt(0.2, 0.1, false), neighborAt(-0.3, 0.4, true)},
		Obstacles: []Obstacle{obstacleAt(0.1, -0.1)},
	}

	w1 := NewWander(0.3, 42)
	w2 := NewWander(0.3, 42)
	for i := 0; i < 50; i++ {
		f1 := w1.Force(a, empty)
		f2 := w2.Force(a, crowded)
		if f1 != f2 {
			t.Fatalf("tick %d: wander diverged with perception: (%v,%v) vs (%v,%v)", i, f1.X, f1.Y, f2.X, f2.Y)
		}
	}
}

func TestWanderUnitForce(t *testing.T) {
	w := NewWander(0.3, 7)
	for i := 0; i < 20; i++ {
		f := w.Force(&Agent{}, Perception{})
		if math.Abs(f.Len()-1) > 1e-9 {
			t.Fatalf("tick %d: wander force not unit length: %v", i, f.Len())
		}
	}
}

func TestWanderSeedDeterminism(t *testing.T) {
	w1 := NewWander(0.3, 99)
	w2 := NewWander(0.3, 99)
	w3 := NewWander(0.3, 100)
	same, diff := true, true
	for i := 0; i < 30; i++ {
		f1 := w1.Force(&Agent{}, Perception{})
		f2 := w2.Force(&Agent{}, Perception{})
		f3 := w3.Force(&Agent{}, Perception{})
		if f1 != f2 {
			same = false
		}
		if f1 != f3 {
			diff = false
		}
	}
	if !same {
		t.Error("equal seeds should replay identically")
	}
	if diff {
		t.Error("different seeds should diverge")
	}
}

func TestFormationEmptyNeighbors(t *testing.T) {
	form := &FormationBehavior{Pattern: "circle", Radius: 1.5, Spacing: 0.6}
	if f := form.Force(&Agent{}, Perception{}); f.Len() != 0 {
		t.Errorf("expected zero force with no neighbors, got (%v, %v)", f.X, f.Y)
	}
}

func TestFormationCircleScalesNearSlot(t *testing.T) {
	form := &FormationBehavior{Pattern: "circle", Radius: 1.5, Spacing: 0.6}
	a := &Agent{Index: 1}
	// Centroid 1.5 behind means the robot already sits on the ring.
	p := Perception{Neighbors: []Neighbor{neighborAt(-1.5, 0, false)}}
	f := form.Force(a, p)
	if f.Len() > 1e-9 {
		t.Errorf("on-slot robot should feel no formation force, got %v", f.Len())
	}
}

func TestFormationVeeSlotsAlternate(t *testing.T) {
	form := &FormationBehavior{Pattern: "vee", Radius: 1.5, Spacing: 0.6}
	p := Perception{Neighbors: []Neighbor{neighborAt(2, 0, false)}}

	f1 := form.Force(&Agent{Index: 1}, p)
	f2 := form.Force(&Agent{Index: 2}, p)
	if f1.Y*f2.Y >= 0 {
		t.Errorf("adjacent indices should sit on opposite wings, got y %v and %v", f1.Y, f2.Y)
	}
}

func TestLeaderFollowTrailsLeader(t *testing.T) {
	lf := &LeaderFollowBehavior{Gap: 0.8, Fallback: NewExploration(8)}
	a := &Agent{Name: "robot_2", Role: RoleFollower}
	// Leader 2 units ahead; desired point is gap short of it, still ahead.
	p := Perception{Neighbors: []Neighbor{neighborAt(2, 0, true)}}
	approxEq(t, lf.Force(a, p), vec.V{X: 1, Y: 0}, 1e-9)
}

func TestLeaderFollowFallsBack(t *testing.T) {
	explore := NewExploration(8)
	lf := &LeaderFollowBehavior{Gap: 0.8, Fallback: explore}
	a := &Agent{Name: "robot_2", Role: RoleFollower}

	// No leader in sight and no visits yet: matches a fresh exploration pull.
	want := NewExploration(8).Force(a, Perception{})
	got := lf.Force(a, Perception{Neighbors: []Neighbor{neighborAt(1, 1, false)}})
	approxEq(t, got, want, 1e-9)
}

func TestLeaderFollowLeaderExplores(t *testing.T) {
	explore := NewExploration(8)
	lf := &LeaderFollowBehavior{Gap: 0.8, Fallback: explore}
	a := &Agent{Name: "robot_0", Role: RoleLeader}

	want := NewExploration(8).Force(a, Perception{})
	got := lf.Force(a, Perception{Neighbors: []Neighbor{neighborAt(1, 0, false)}})
	approxEq(t, got, want, 1e-9)
}

func TestExplorationSeeksLeastVisited(t *testing.T) {
	e := NewExploration(4)
	a := &Agent{Heading: 0}

	// Dwelling at heading 0 racks up visits in its sector; the target
	// should move away from straight ahead.
	var f vec.V
	for i := 0; i < 5; i++ {
		f = e.Force(a, Perception{})
	}
	if math.Abs(vec.WrapAngle(f.Angle())) < 1e-9 {
		t.Error("expected exploration to steer away from the dwelt sector")
	}
}

func TestRoleFromName(t *testing.T) {
	tests := []struct {
		name string
		want Role
	}{
		{"robot_0", RoleLeader},
		{"robot_1", RoleFollower},
		{"robot_10", RoleFollower},
		{"swarm_leader", RoleLeader},
		{"Leader_3", RoleLeader},
		{"chuha_2", RoleFollower},
	}
	for _, tt := range tests {
		if got := RoleFromName(tt.name); got != tt.want {
			t.Errorf("RoleFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWeightsSetRejectsNegative(t *testing.T) {
	w := Weights{Separation: 1.0}
	if err := w.Set(Separation, -0.5); err == nil {
		t.Error("expected error for negative weight")
	}
	if w[Separation] != 1.0 {
		t.Errorf("rejected set must not modify weight, got %v", w[Separation])
	}
}

func TestWeightsSetRejectsUnknown(t *testing.T) {
	w := Weights{}
	if err := w.Set(Name("teleport"), 1.0); err == nil {
		t.Error("expected error for unknown behavior name")
	}
}
