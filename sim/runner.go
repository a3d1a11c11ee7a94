package sim

import (
	"log/slog"

	"swarmpilot/config"
	"swarmpilot/telemetry"
)

// Runner drives a world and feeds its outputs into telemetry: windowed
// stats to slog and CSV, full snapshots to the websocket hub.
type Runner struct {
	World *World

	cfg       *config.Config
	collector *telemetry.Collector
	output    *telemetry.OutputManager
	hub       *telemetry.Hub
	log       *slog.Logger
	logStats  bool
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Seed      uint64
	OutputDir string
	Hub       *telemetry.Hub // nil disables broadcasting
	LogStats  bool
	Log       *slog.Logger
}

// NewRunner creates a world and its telemetry plumbing.
func NewRunner(cfg *config.Config, opts RunnerOptions) (*Runner, error) {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	world, err := NewWorld(cfg, opts.Seed, opts.Log)
	if err != nil {
		return nil, err
	}
	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		return nil, err
	}

	return &Runner{
		World:     world,
		cfg:       cfg,
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Sim.DT),
		output:    output,
		hub:       opts.Hub,
		log:       opts.Log,
		logStats:  opts.LogStats,
	}, nil
}

// Step advances one tick and processes its telemetry.
func (r *Runner) Step() error {
	r.World.Step()

	for _, out := range r.World.Outputs() {
		if out.ModeChanged {
			r.collector.RecordModeChange(out.Mode)
		}
		if out.NearMiss {
			r.collector.RecordNearMiss()
		}
		if out.Adjusted {
			r.collector.RecordWeightAdjustment()
		}
	}

	tick := r.World.Tick()
	if r.collector.WindowComplete(tick) {
		if err := r.flushWindow(tick); err != nil {
			return err
		}
	}

	if r.hub != nil && r.hub.ClientCount() > 0 {
		r.hub.Broadcast(r.World.Snapshot())
	}
	return nil
}

func (r *Runner) flushWindow(tick int) error {
	stats := r.collector.Flush(tick)
	snap := r.World.Snapshot()

	stats.Robots = len(snap.Robots)
	qualities := make([]float64, 0, len(snap.Robots))
	var robotRecords []telemetry.RobotRecord
	outputs := r.World.Outputs()

	for _, rs := range snap.Robots {
		qualities = append(qualities, rs.Quality)
		switch rs.Mode {
		case "exploration":
			stats.Exploring++
		case "formation":
			stats.Forming++
		case "following":
			stats.Following++
		case "patrol":
			stats.Patrol++
		case "search":
			stats.Search++
		case "emergency":
			stats.Emergency++
		}
	}
	stats.QualityMean, stats.QualityP10, stats.QualityP50, stats.QualityP90 = telemetry.ComputeQualityStats(qualities)

	for _, rs := range snap.Robots {
		var speed, dist float64
		var misses int
		if rs.Index >= 0 && rs.Index < len(outputs) {
			speed = outputs[rs.Index].Metrics.AvgSpeed
			dist = outputs[rs.Index].Metrics.DistanceTraveled
			misses = outputs[rs.Index].Metrics.NearMisses
		}
		stats.MeanSpeed += speed / float64(len(snap.Robots))
		stats.TotalDistance += dist
		robotRecords = append(robotRecords, telemetry.RobotRecord{
			Tick:             tick,
			Name:             rs.Name,
			Mode:             rs.Mode,
			X:                rs.X,
			Y:                rs.Y,
			Heading:          rs.Heading,
			Left:             rs.Left,
			Right:            rs.Right,
			Quality:          rs.Quality,
			NearMisses:       misses,
			DistanceTraveled: dist,
		})
	}

	if r.logStats {
		r.log.Info("window stats", "stats", stats)
	}
	if err := r.output.WriteTelemetry(stats); err != nil {
		return err
	}
	return r.output.WriteRobots(robotRecords)
}

// Close flushes output files and logs a final run summary.
func (r *Runner) Close() error {
	snap := r.World.Snapshot()
	var totalDist float64
	emergencies := 0
	for _, out := range r.World.Outputs() {
		totalDist += out.Metrics.DistanceTraveled
		emergencies += out.Metrics.EmergencyTicks
	}
	r.log.Info("run complete",
		"ticks", r.World.Tick(),
		"sim_time", snap.SimTime,
		"robots", len(snap.Robots),
		"total_distance", totalDist,
		"emergency_ticks", emergencies)
	return r.output.Close()
}
