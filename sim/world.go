// Package sim is a lightweight differential-drive world used to exercise the
// control engines: it synthesizes each robot's local-frame perception,
// integrates wheel commands, and exposes snapshots for telemetry and the
// viewer.
package sim

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"swarmpilot/config"
	"swarmpilot/control"
	"swarmpilot/mission"
	"swarmpilot/steering"
	"swarmpilot/vec"
)

// parallelThreshold is the minimum robot count to fan the compute phase out
// to workers. Small swarms run faster single-threaded.
const parallelThreshold = 16

// World owns the entities, the per-robot engines and the integration loop.
type World struct {
	world *ecs.World
	cfg   *config.Config
	log   *slog.Logger

	robotMapper    *ecs.Map4[Position, Heading, Wheels, Robot]
	robotFilter    *ecs.Filter4[Position, Heading, Wheels, Robot]
	obstacleMapper *ecs.Map2[Position, Obstacle]
	obstacleFilter *ecs.Filter2[Position, Obstacle]

	engines []*control.Engine
	outputs []control.Output

	directives map[int]mission.Mode

	rng  *rand.Rand
	tick int
}

// robotState is the read-only per-robot snapshot taken before the parallel
// compute phase.
type robotState struct {
	entity  ecs.Entity
	index   int
	name    string
	pos     vec.V
	heading float64
	wheels  Wheels
}

// RobotSnapshot is one robot's public state for telemetry and rendering.
type RobotSnapshot struct {
	Index   int               `json:"index"`
	Name    string            `json:"name"`
	X       float64           `json:"x"`
	Y       float64           `json:"y"`
	Heading float64           `json:"heading"`
	Left    float64           `json:"left"`
	Right   float64           `json:"right"`
	Mode    string            `json:"mode"`
	Quality float64           `json:"quality"`
	ForceX  float64           `json:"force_x"`
	ForceY  float64           `json:"force_y"`
	Weights map[string]float64 `json:"weights"`
}

// ObstacleSnapshot is one obstacle's public state.
type ObstacleSnapshot struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Snapshot is the full world state at one tick.
type Snapshot struct {
	Tick      int                `json:"tick"`
	SimTime   float64            `json:"sim_time"`
	Robots    []RobotSnapshot    `json:"robots"`
	Obstacles []ObstacleSnapshot `json:"obstacles"`
}

// NewWorld spawns the configured swarm and obstacles. Robot zero leads. The
// seed drives placement and every robot's wander drift; equal seeds replay
// identical runs.
func NewWorld(cfg *config.Config, seed uint64, log *slog.Logger) (*World, error) {
	if log == nil {
		log = slog.Default()
	}
	world := ecs.NewWorld()

	w := &World{
		world:          world,
		cfg:            cfg,
		log:            log,
		robotMapper:    ecs.NewMap4[Position, Heading, Wheels, Robot](world),
		robotFilter:    ecs.NewFilter4[Position, Heading, Wheels, Robot](world),
		obstacleMapper: ecs.NewMap2[Position, Obstacle](world),
		obstacleFilter: ecs.NewFilter2[Position, Obstacle](world),
		directives:     make(map[int]mission.Mode),
		rng:            rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb)),
	}

	for i := 0; i < cfg.Sim.NumRobots; i++ {
		name := fmt.Sprintf("robot_%d", i)
		engine, err := control.NewEngine(cfg, name, i, seed+uint64(i)*7919, log)
		if err != nil {
			return nil, fmt.Errorf("creating engine for %s: %w", name, err)
		}
		w.engines = append(w.engines, engine)

		pos := Position{
			X: (w.rng.Float64()*0.6 + 0.2) * cfg.Sim.WorldWidth,
			Y: (w.rng.Float64()*0.6 + 0.2) * cfg.Sim.WorldHeight,
		}
		heading := Heading{A: w.rng.Float64()*2*math.Pi - math.Pi}
		w.robotMapper.NewEntity(&pos, &heading, &Wheels{}, &Robot{Index: i, Name: name})
	}
	w.outputs = make([]control.Output, cfg.Sim.NumRobots)

	for i := 0; i < cfg.Sim.NumObstacles; i++ {
		pos := Position{
			X: w.rng.Float64() * cfg.Sim.WorldWidth,
			Y: w.rng.Float64() * cfg.Sim.WorldHeight,
		}
		w.obstacleMapper.NewEntity(&pos, &Obstacle{Radius: 0.15})
	}

	log.Info("world created",
		"robots", cfg.Sim.NumRobots,
		"obstacles", cfg.Sim.NumObstacles,
		"seed", seed)
	return w, nil
}

// Tick returns the current tick count.
func (w *World) Tick() int { return w.tick }

// Engines exposes the per-robot engines, indexed by robot.
func (w *World) Engines() []*control.Engine { return w.engines }

// Outputs returns the engine outputs from the last Step.
func (w *World) Outputs() []control.Output { return w.outputs }

// Directive commands every robot into patrol or search mode immediately.
func (w *World) Directive(mode mission.Mode) {
	for _, e := range w.engines {
		e.Directive(mode)
	}
}

// ScheduleDirective commands a directive to take effect at the given tick.
func (w *World) ScheduleDirective(tick int, mode mission.Mode) {
	w.directives[tick] = mode
}

// Step advances the world one tick: perceive, control, integrate.
func (w *World) Step() {
	if mode, ok := w.directives[w.tick]; ok {
		w.Directive(mode)
		delete(w.directives, w.tick)
	}

	states := w.collectRobots()
	obstacles := w.collectObstacles()

	// Compute phase: every engine sees the same pre-step world.
	if len(states) >= parallelThreshold {
		w.computeParallel(states, obstacles)
	} else {
		for i := range states {
			w.computeOne(states, obstacles, i)
		}
	}

	// Apply phase: integrate sequentially in entity order.
	dt := w.cfg.Sim.DT
	scale := w.cfg.Sim.WheelScale
	track := w.cfg.Sim.TrackWidth
	query := w.robotFilter.Query()
	for query.Next() {
		pos, heading, wheels, robot := query.Get()
		out := w.outputs[robot.Index]
		wheels.Left = out.Left
		wheels.Right = out.Right

		linear := (out.Left + out.Right) / 2 * scale
		angular := (out.Right - out.Left) * scale / track
		heading.A = vec.WrapAngle(heading.A + angular*dt)
		pos.X += math.Cos(heading.A) * linear * dt
		pos.Y += math.Sin(heading.A) * linear * dt

		pos.X = vec.Clamp(pos.X, 0, w.cfg.Sim.WorldWidth)
		pos.Y = vec.Clamp(pos.Y, 0, w.cfg.Sim.WorldHeight)
	}

	w.tick++
}

func (w *World) collectRobots() []robotState {
	states := make([]robotState, 0, len(w.engines))
	query := w.robotFilter.Query()
	for query.Next() {
		pos, heading, wheels, robot := query.Get()
		states = append(states, robotState{
			entity:  query.Entity(),
			index:   robot.Index,
			name:    robot.Name,
			pos:     vec.V{X: pos.X, Y: pos.Y},
			heading: heading.A,
			wheels:  *wheels,
		})
	}
	return states
}

func (w *World) collectObstacles() []vec.V {
	var out []vec.V
	query := w.obstacleFilter.Query()
	for query.Next() {
		pos, _ := query.Get()
		out = append(out, vec.V{X: pos.X, Y: pos.Y})
	}
	return out
}

// computeOne runs one robot's engine against its synthesized perception.
func (w *World) computeOne(states []robotState, obstacles []vec.V, i int) {
	me := states[i]
	in := control.Input{
		Pos:     me.pos,
		Heading: me.heading,
		Speed:   math.Abs((me.wheels.Left + me.wheels.Right) / 2 * w.cfg.Sim.WheelScale),
		Tick:    w.tick,
	}

	rng := w.cfg.Sim.SensorRange
	for j := range states {
		if j == i {
			continue
		}
		rel, dist, bearing := localFrame(me.pos, me.heading, states[j].pos)
		if dist > rng {
			continue
		}
		in.Neighbors = append(in.Neighbors, steering.Neighbor{
			Rel:     rel,
			Dist:    dist,
			Bearing: bearing,
			Leader:  steering.RoleFromName(states[j].name) == steering.RoleLeader,
		})
	}
	for _, ob := range obstacles {
		rel, dist, bearing := localFrame(me.pos, me.heading, ob)
		if dist > rng {
			continue
		}
		in.Obstacles = append(in.Obstacles, steering.Obstacle{Rel: rel, Dist: dist, Bearing: bearing})
	}

	w.outputs[me.index] = w.engines[me.index].Step(in)
}

// computeParallel fans computeOne out over a worker pool.
func (w *World) computeParallel(states []robotState, obstacles []vec.V) {
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(states) + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < len(states); start += chunk {
		end := min(start+chunk, len(states))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				w.computeOne(states, obstacles, i)
			}
		}(start, end)
	}
	wg.Wait()
}

// localFrame converts a world-frame point into the observer's sensor frame.
func localFrame(pos vec.V, heading float64, target vec.V) (rel vec.V, dist, bearing float64) {
	d := target.Sub(pos)
	dist = d.Len()
	bearing = vec.WrapAngle(d.Angle() - heading)
	sin, cos := math.Sincos(-heading)
	rel = vec.V{
		X: d.X*cos - d.Y*sin,
		Y: d.X*sin + d.Y*cos,
	}
	return rel, dist, bearing
}

// Snapshot captures the full world state for telemetry and rendering.
func (w *World) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:    w.tick,
		SimTime: float64(w.tick) * w.cfg.Sim.DT,
	}

	query := w.robotFilter.Query()
	for query.Next() {
		pos, heading, wheels, robot := query.Get()
		out := w.outputs[robot.Index]
		weights := make(map[string]float64, len(out.Weights))
		for name, v := range out.Weights {
			weights[string(name)] = v
		}
		snap.Robots = append(snap.Robots, RobotSnapshot{
			Index:   robot.Index,
			Name:    robot.Name,
			X:       pos.X,
			Y:       pos.Y,
			Heading: heading.A,
			Left:    wheels.Left,
			Right:   wheels.Right,
			Mode:    out.Mode.String(),
			Quality: out.Metrics.MeanQuality,
			ForceX:  out.Force.X,
			ForceY:  out.Force.Y,
			Weights: weights,
		})
	}

	oq := w.obstacleFilter.Query()
	for oq.Next() {
		pos, ob := oq.Get()
		snap.Obstacles = append(snap.Obstacles, ObstacleSnapshot{X: pos.X, Y: pos.Y, Radius: ob.Radius})
	}
	return snap
}
