// Package telemetry aggregates per-window swarm statistics and writes them
// to CSV files and structured logs.
package telemetry

import "swarmpilot/mission"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int
	dt                  float64

	windowStartTick int

	// Event counters for current window
	modeChanges       int
	nearMisses        int
	emergencyEntries  int
	weightAdjustments int
	directives        int
}

// NewCollector creates a stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordModeChange records one robot switching modes. Entries into emergency
// avoidance are counted separately as well.
func (c *Collector) RecordModeChange(to mission.Mode) {
	c.modeChanges++
	if to == mission.ModeEmergency {
		c.emergencyEntries++
	}
}

// RecordNearMiss records an obstacle inside the emergency radius.
func (c *Collector) RecordNearMiss() {
	c.nearMisses++
}

// RecordWeightAdjustment records one adaptive tuning step.
func (c *Collector) RecordWeightAdjustment() {
	c.weightAdjustments++
}

// RecordDirective records an operator directive.
func (c *Collector) RecordDirective() {
	c.directives++
}

// WindowComplete reports whether the current window ends at this tick.
func (c *Collector) WindowComplete(tick int) bool {
	return tick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces the stats for the completed window and starts a new one.
// Point-in-time fields (mode occupancy, quality distribution, motion) are
// filled in by the caller.
func (c *Collector) Flush(tick int) WindowStats {
	s := WindowStats{
		WindowStartTick:   c.windowStartTick,
		WindowEndTick:     tick,
		SimTimeSec:        float64(tick) * c.dt,
		ModeChanges:       c.modeChanges,
		NearMisses:        c.nearMisses,
		EmergencyEntries:  c.emergencyEntries,
		WeightAdjustments: c.weightAdjustments,
		Directives:        c.directives,
	}

	c.windowStartTick = tick
	c.modeChanges = 0
	c.nearMisses = 0
	c.emergencyEntries = 0
	c.weightAdjustments = 0
	c.directives = 0

	return s
}
