// Package metrics tracks per-robot performance over a rolling window:
// formation quality, near misses, distance and speed.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"swarmpilot/steering"
	"swarmpilot/vec"
)

// FormationQuality scores how evenly the local group is spread around its
// centroid. 1 means perfectly even spacing, 0 means badly scattered or too
// few neighbors to judge.
func FormationQuality(neighbors []steering.Neighbor) float64 {
	if len(neighbors) < 2 {
		return 0
	}
	var centroid vec.V
	for _, n := range neighbors {
		centroid = centroid.Add(n.Rel)
	}
	centroid = centroid.Scale(1.0 / float64(len(neighbors)))

	dists := make([]float64, len(neighbors))
	for i, n := range neighbors {
		dists[i] = n.Rel.Sub(centroid).Len()
	}
	mean := stat.Mean(dists, nil)
	if mean < 1e-9 {
		return 0
	}
	sd := stat.StdDev(dists, nil)
	return vec.Clamp(1-sd/mean, 0, 1)
}

// Tracker keeps a rolling window of quality samples and collision flags.
type Tracker struct {
	window   int
	quality  []float64
	misses   []bool
	distance float64
	speedSum float64
	samples  int
	emCount  int
}

// NewTracker creates a tracker with the given rolling window length.
func NewTracker(window int) *Tracker {
	return &Tracker{
		window:  window,
		quality: make([]float64, 0, window),
		misses:  make([]bool, 0, window),
	}
}

// Record appends one tick of observations. nearMiss marks an obstacle inside
// the emergency radius this tick.
func (t *Tracker) Record(quality, speed, stepDist float64, nearMiss bool) {
	t.quality = append(t.quality, quality)
	t.misses = append(t.misses, nearMiss)
	if len(t.quality) > t.window {
		t.quality = t.quality[1:]
		t.misses = t.misses[1:]
	}
	t.distance += stepDist
	t.speedSum += speed
	t.samples++
}

// RecordEmergency counts one tick spent in emergency avoidance.
func (t *Tracker) RecordEmergency() { t.emCount++ }

// QualityTrend fits a line through the windowed quality samples and returns
// its slope. Negative means formation quality is declining.
func (t *Tracker) QualityTrend() float64 {
	if len(t.quality) < 2 {
		return 0
	}
	xs := make([]float64, len(t.quality))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, t.quality, nil, false)
	if math.IsNaN(slope) {
		return 0
	}
	return slope
}

// WindowFull reports whether the rolling window has filled since the last
// reset.
func (t *Tracker) WindowFull() bool { return len(t.quality) >= t.window }

// NearMisses counts collision flags inside the current window.
func (t *Tracker) NearMisses() int {
	n := 0
	for _, m := range t.misses {
		if m {
			n++
		}
	}
	return n
}

// MeanQuality averages the windowed quality samples.
func (t *Tracker) MeanQuality() float64 {
	if len(t.quality) == 0 {
		return 0
	}
	return stat.Mean(t.quality, nil)
}

// DistanceTraveled returns the total distance since the last reset.
func (t *Tracker) DistanceTraveled() float64 { return t.distance }

// AvgSpeed returns the mean speed since the last reset.
func (t *Tracker) AvgSpeed() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.speedSum / float64(t.samples)
}

// EmergencyTicks returns ticks spent in emergency avoidance since reset.
func (t *Tracker) EmergencyTicks() int { return t.emCount }

// Reset clears the window and the accumulators, used on mode changes so a
// new mode is judged only on its own evidence.
func (t *Tracker) Reset() {
	t.quality = t.quality[:0]
	t.misses = t.misses[:0]
	t.distance = 0
	t.speedSum = 0
	t.samples = 0
	t.emCount = 0
}

// Snapshot is a point-in-time summary of one tracker.
type Snapshot struct {
	MeanQuality      float64
	QualityTrend     float64
	NearMisses       int
	DistanceTraveled float64
	AvgSpeed         float64
	EmergencyTicks   int
}

// Snapshot summarizes the tracker's current state.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		MeanQuality:      t.MeanQuality(),
		QualityTrend:     t.QualityTrend(),
		NearMisses:       t.NearMisses(),
		DistanceTraveled: t.distance,
		AvgSpeed:         t.AvgSpeed(),
		EmergencyTicks:   t.emCount,
	}
}
