package metrics

import (
	"math"
	"testing"

	"swarmpilot/steering"
	"swarmpilot/vec"
)

func neighborAt(x, y float64) steering.Neighbor {
	rel := vec.V{X: x, Y: y}
	return steering.Neighbor{Rel: rel, Dist: rel.Len(), Bearing: rel.Angle()}
}

func TestFormationQualityTooFewNeighbors(t *testing.T) {
	if q := FormationQuality(nil); q != 0 {
		t.Errorf("no neighbors should score 0, got %v", q)
	}
	if q := FormationQuality([]steering.Neighbor{neighborAt(1, 0)}); q != 0 {
		t.Errorf("one neighbor should score 0, got %v", q)
	}
}

func TestFormationQualityEvenSpread(t *testing.T) {
	// Four neighbors on a square around their centroid: equal distances,
	// zero spread, perfect score.
	ns := []steering.Neighbor{
		neighborAt(1, 1), neighborAt(1, -1), neighborAt(3, 1), neighborAt(3, -1),
	}
	if q := FormationQuality(ns); math.Abs(q-1) > 1e-9 {
		t.Errorf("even square should score 1, got %v", q)
	}
}

func TestFormationQualityUnevenSpread(t *testing.T) {
	even := []steering.Neighbor{
		neighborAt(1, 1), neighborAt(1, -1), neighborAt(3, 1), neighborAt(3, -1),
	}
	uneven := []steering.Neighbor{
		neighborAt(0.1, 0), neighborAt(0.2, 0.1), neighborAt(5, 3),
	}
	if FormationQuality(uneven) >= FormationQuality(even) {
		t.Error("ragged cluster should score below even square")
	}
}

func TestFormationQualityClamped(t *testing.T) {
	ns := []steering.Neighbor{
		neighborAt(0.01, 0), neighborAt(0.01, 0.001), neighborAt(8, 8),
	}
	q := FormationQuality(ns)
	if q < 0 || q > 1 {
		t.Errorf("quality out of [0,1]: %v", q)
	}
}

func TestTrackerWindowSlides(t *testing.T) {
	tr := NewTracker(3)
	tr.Record(0.1, 0, 0, true)
	tr.Record(0.2, 0, 0, false)
	tr.Record(0.3, 0, 0, false)
	tr.Record(0.4, 0, 0, false)

	// Near miss from the first tick has slid out of the window.
	if got := tr.NearMisses(); got != 0 {
		t.Errorf("near misses = %d, want 0 after sliding", got)
	}
	if !tr.WindowFull() {
		t.Error("window should report full")
	}
}

func TestTrackerQualityTrend(t *testing.T) {
	up := NewTracker(10)
	down := NewTracker(10)
	for i := 0; i < 10; i++ {
		up.Record(float64(i)*0.1, 0, 0, false)
		down.Record(1-float64(i)*0.1, 0, 0, false)
	}
	if up.QualityTrend() <= 0 {
		t.Errorf("rising quality should trend positive, got %v", up.QualityTrend())
	}
	if down.QualityTrend() >= 0 {
		t.Errorf("falling quality should trend negative, got %v", down.QualityTrend())
	}
}

func TestTrackerTrendInsufficientSamples(t *testing.T) {
	tr := NewTracker(10)
	tr.Record(0.5, 0, 0, false)
	if got := tr.QualityTrend(); got != 0 {
		t.Errorf("single sample trend = %v, want 0", got)
	}
}

func TestTrackerAccumulators(t *testing.T) {
	tr := NewTracker(5)
	tr.Record(0.5, 2.0, 0.1, false)
	tr.Record(0.5, 4.0, 0.2, true)
	tr.RecordEmergency()

	if d := tr.DistanceTraveled(); math.Abs(d-0.3) > 1e-12 {
		t.Errorf("distance = %v, want 0.3", d)
	}
	if s := tr.AvgSpeed(); math.Abs(s-3.0) > 1e-12 {
		t.Errorf("avg speed = %v, want 3.0", s)
	}
	if tr.EmergencyTicks() != 1 {
		t.Errorf("emergency ticks = %d, want 1", tr.EmergencyTicks())
	}

	tr.Reset()
	if tr.DistanceTraveled() != 0 || tr.AvgSpeed() != 0 || tr.NearMisses() != 0 || tr.EmergencyTicks() != 0 {
		t.Error("reset should clear all accumulators")
	}
	if tr.WindowFull() {
		t.Error("reset should empty the window")
	}
}

func TestSnapshot(t *testing.T) {
	tr := NewTracker(4)
	tr.Record(0.2, 1, 0.1, true)
	tr.Record(0.4, 1, 0.1, false)

	s := tr.Snapshot()
	if math.Abs(s.MeanQuality-0.3) > 1e-12 {
		t.Errorf("mean quality = %v, want 0.3", s.MeanQuality)
	}
	if s.NearMisses != 1 {
		t.Errorf("near misses = %d, want 1", s.NearMisses)
	}
	if s.QualityTrend <= 0 {
		t.Errorf("trend = %v, want positive", s.QualityTrend)
	}
}
