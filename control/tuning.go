package control

import (
	"log/slog"

	"swarmpilot/metrics"
	"swarmpilot/mission"
	"swarmpilot/steering"
)

// Tuner nudges behavior weights from windowed performance evidence. It makes
// at most one adjustment per window, never pushes a weight outside its
// bounds, and leaves emergency mode alone entirely.
type Tuner struct {
	window        int
	step          float64
	collisionStep float64
	min, max      float64
	log           *slog.Logger

	lastAdjust int
}

// NewTuner wires tuning parameters from configuration.
func NewTuner(window int, step, collisionStep, min, max float64, log *slog.Logger) *Tuner {
	return &Tuner{
		window:        window,
		step:          step,
		collisionStep: collisionStep,
		min:           min,
		max:           max,
		log:           log,
		lastAdjust:    -window,
	}
}

// Tune inspects the tracker window and adjusts the composer's weights,
// reporting whether anything changed. Near misses take priority over
// formation quality: safety weights go up and the increase is paid for by
// proportionally reducing cohesion and exploration, keeping the robot's
// overall drive roughly level.
func (t *Tuner) Tune(tick int, mode mission.Mode, tr *metrics.Tracker, c *steering.Composer) bool {
	if mode == mission.ModeEmergency {
		return false
	}
	if !tr.WindowFull() || tick-t.lastAdjust < t.window {
		return false
	}

	if tr.NearMisses() > 0 {
		return t.raiseSafety(tick, mode, c)
	}

	if tr.QualityTrend() < 0 {
		primary := mission.PrimaryWeight(mode)
		old := c.Weight(primary)
		next := min(old+t.step, t.max)
		if next == old {
			return false
		}
		if err := c.SetWeight(primary, next); err != nil {
			return false
		}
		t.lastAdjust = tick
		if t.log != nil {
			t.log.Debug("raised primary weight on declining quality",
				"mode", mode.String(), "behavior", string(primary), "from", old, "to", next)
		}
		return true
	}
	return false
}

func (t *Tuner) raiseSafety(tick int, mode mission.Mode, c *steering.Composer) bool {
	budget := 0.0
	for _, name := range []steering.Name{steering.ObstacleAvoidance, steering.Separation} {
		old := c.Weight(name)
		next := min(old+t.collisionStep, t.max)
		if next == old {
			continue
		}
		if err := c.SetWeight(name, next); err != nil {
			continue
		}
		budget += next - old
	}
	if budget == 0 {
		return false
	}

	// Pay for the safety increase by trimming the attractive behaviors in
	// proportion to their current share.
	coh := c.Weight(steering.Cohesion)
	exp := c.Weight(steering.Exploration)
	total := coh + exp
	if total > 0 {
		cohCut := min(budget*coh/total, coh-t.min)
		expCut := min(budget*exp/total, exp-t.min)
		if cohCut > 0 {
			c.SetWeight(steering.Cohesion, coh-cohCut)
		}
		if expCut > 0 {
			c.SetWeight(steering.Exploration, exp-expCut)
		}
	}
	t.lastAdjust = tick
	if t.log != nil {
		t.log.Debug("raised safety weights after near miss", "mode", mode.String())
	}
	return true
}
