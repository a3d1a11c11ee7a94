// Package control assembles the per-robot control engine: behavior
// composition, drive mapping, mission mode selection and adaptive tuning,
// stepped once per sensor tick.
package control

import (
	"fmt"
	"log/slog"
	"math"

	"swarmpilot/config"
	"swarmpilot/drive"
	"swarmpilot/metrics"
	"swarmpilot/mission"
	"swarmpilot/steering"
	"swarmpilot/vec"
)

// Input is one tick of sensor evidence, in the robot's local frame.
type Input struct {
	Neighbors []steering.Neighbor
	Obstacles []steering.Obstacle
	Pos       vec.V // World position, used only for odometry accounting
	Heading   float64
	Speed     float64
	Tick      int
}

// Output is one tick of actuation and introspection state.
type Output struct {
	Left    float64
	Right   float64
	Mode    mission.Mode
	Force   vec.V
	Weights steering.Weights
	Metrics metrics.Snapshot

	// Per-tick events, consumed by the telemetry collector
	ModeChanged bool
	NearMiss    bool
	Adjusted    bool
}

// Engine is the complete controller for one robot.
type Engine struct {
	agent    steering.Agent
	composer *steering.Composer
	mapper   *drive.Mapper
	machine  *mission.Machine
	tracker  *metrics.Tracker
	tuner    *Tuner
	log      *slog.Logger

	emergencyDist float64
	hasFormation  bool
	prevLeft      float64
	prevRight     float64
	lastPos       vec.V
	hasLastPos    bool
}

// NewEngine builds an engine for the named robot. The seed feeds the wander
// behavior; give each robot a distinct one.
func NewEngine(cfg *config.Config, name string, index int, seed uint64, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("robot", name)

	catalog := steering.NewCatalog(steering.CatalogParams{
		SeparationThreshold: cfg.Steering.SeparationThreshold,
		CohesionThreshold:   cfg.Steering.CohesionThreshold,
		ObstacleThreshold:   cfg.Steering.ObstacleThreshold,
		WanderJitter:        cfg.Steering.WanderJitter,
		WanderSeed:          seed,
		FormationPattern:    cfg.Steering.Formation.Pattern,
		FormationRadius:     cfg.Steering.Formation.Radius,
		FormationSpacing:    cfg.Steering.Formation.Spacing,
		FollowGap:           cfg.Steering.Formation.Gap,
		ExplorationSectors:  cfg.Steering.ExplorationSectors,
	}, log)

	composer, err := steering.NewComposer(catalog, mission.Profile(mission.ModeExploration))
	if err != nil {
		return nil, fmt.Errorf("building composer: %w", err)
	}
	mapper, err := drive.NewMapper(cfg.Drive.MaxSpeed, cfg.Drive.ForwardGain, cfg.Drive.TurnGain, cfg.Drive.SmoothingAlpha)
	if err != nil {
		return nil, fmt.Errorf("building drive mapper: %w", err)
	}

	return &Engine{
		agent: steering.Agent{
			Name:  name,
			Role:  steering.RoleFromName(name),
			Index: index,
		},
		composer:      composer,
		mapper:        mapper,
		machine:       mission.NewMachine(cfg.Mission.EmergencyThreshold, cfg.Mission.DebounceTicks),
		tracker:       metrics.NewTracker(cfg.Tuning.Window),
		tuner:         NewTuner(cfg.Tuning.Window, cfg.Tuning.Step, cfg.Tuning.CollisionStep, cfg.Tuning.Min, cfg.Tuning.Max, log),
		log:           log,
		emergencyDist: cfg.Mission.EmergencyThreshold,
		hasFormation:  cfg.Steering.Formation.Pattern != "",
	}, nil
}

// Name returns the robot's name.
func (e *Engine) Name() string { return e.agent.Name }

// Role returns the robot's leadership role.
func (e *Engine) Role() steering.Role { return e.agent.Role }

// Mode returns the current mission mode.
func (e *Engine) Mode() mission.Mode { return e.machine.Mode() }

// Weights returns a copy of the live weight set.
func (e *Engine) Weights() steering.Weights { return e.composer.Weights() }

// SetWeight overrides one behavior weight at runtime. The override lasts
// until the next mode change reapplies a profile.
func (e *Engine) SetWeight(name steering.Name, v float64) error {
	return e.composer.SetWeight(name, v)
}

// Directive commands patrol or search mode.
func (e *Engine) Directive(mode mission.Mode) {
	e.machine.Directive(mode)
	e.log.Info("directive received", "mode", mode.String())
}

// Step runs one control tick: compose the force under the current mode's
// weights, map it to wheels, then update metrics, mode and tuning for the
// next tick.
func (e *Engine) Step(in Input) Output {
	e.agent.Pos = in.Pos
	e.agent.Heading = in.Heading
	e.agent.Speed = in.Speed

	p := steering.Perception{Neighbors: in.Neighbors, Obstacles: in.Obstacles}
	force := e.composer.Compose(&e.agent, p)

	left, right := e.mapper.WheelVelocities(force, e.prevLeft, e.prevRight)
	e.prevLeft, e.prevRight = left, right

	minObst := math.Inf(1)
	for _, ob := range in.Obstacles {
		if ob.Dist < minObst {
			minObst = ob.Dist
		}
	}

	stepDist := 0.0
	if e.hasLastPos {
		stepDist = in.Pos.Sub(e.lastPos).Len()
	}
	e.lastPos = in.Pos
	e.hasLastPos = true

	minNeighbor := math.Inf(1)
	for _, n := range in.Neighbors {
		if n.Dist < minNeighbor {
			minNeighbor = n.Dist
		}
	}

	quality := metrics.FormationQuality(in.Neighbors)
	// A neighbor inside the emergency radius counts as a near miss too,
	// but only obstacles preempt the mission mode.
	nearMiss := minObst < e.emergencyDist || minNeighbor < e.emergencyDist
	e.tracker.Record(quality, in.Speed, stepDist, nearMiss)
	if e.machine.Mode() == mission.ModeEmergency {
		e.tracker.RecordEmergency()
	}

	leaderVisible := false
	for _, n := range in.Neighbors {
		if n.Leader {
			leaderVisible = true
			break
		}
	}
	before := e.machine.Mode()
	mode := e.machine.Step(mission.Conditions{
		NeighborCount:   len(in.Neighbors),
		LeaderVisible:   leaderVisible,
		MinObstacleDist: minObst,
		FormationTarget: e.hasFormation,
		Role:            e.agent.Role,
	})
	if mode != before {
		e.composer.SetWeights(mission.Profile(mode))
		e.tracker.Reset()
		e.log.Info("mode change", "from", before.String(), "to", mode.String(), "tick", in.Tick)
	}

	adjusted := e.tuner.Tune(in.Tick, mode, e.tracker, e.composer)

	return Output{
		Left:        left,
		Right:       right,
		Mode:        mode,
		Force:       force,
		Weights:     e.composer.Weights(),
		Metrics:     e.tracker.Snapshot(),
		ModeChanged: mode != before,
		NearMiss:    nearMiss,
		Adjusted:    adjusted,
	}
}
