// Package config provides configuration loading, validation and access for
// the control engine and the simulation harness.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine and harness configuration parameters.
type Config struct {
	Drive     DriveConfig     `yaml:"drive"`
	Steering  SteeringConfig  `yaml:"steering"`
	Mission   MissionConfig   `yaml:"mission"`
	Tuning    TuningConfig    `yaml:"tuning"`
	Sim       SimConfig       `yaml:"sim"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Screen    ScreenConfig    `yaml:"screen"`
}

// DriveConfig holds differential-drive mapping parameters.
type DriveConfig struct {
	MaxSpeed       float64 `yaml:"max_speed"`       // Wheel velocity bound (rad/s)
	ForwardGain    float64 `yaml:"forward_gain"`    // Force magnitude -> forward velocity
	TurnGain       float64 `yaml:"turn_gain"`       // Steering angle -> turn velocity
	SmoothingAlpha float64 `yaml:"smoothing_alpha"` // Exponential smoothing factor in (0, 1]
}

// SteeringConfig holds per-behavior thresholds and the formation layout.
type SteeringConfig struct {
	SeparationThreshold float64         `yaml:"separation_threshold"`
	CohesionThreshold   float64         `yaml:"cohesion_threshold"`
	ObstacleThreshold   float64         `yaml:"obstacle_threshold"`
	WanderJitter        float64         `yaml:"wander_jitter"` // Max per-tick heading perturbation (rad)
	ExplorationSectors  int             `yaml:"exploration_sectors"`
	Formation           FormationConfig `yaml:"formation"`
}

// FormationConfig describes the target geometric pattern.
type FormationConfig struct {
	Pattern string  `yaml:"pattern"` // circle, line or vee; empty = no formation target
	Radius  float64 `yaml:"radius"`  // Circle radius and displacement normalization scale
	Spacing float64 `yaml:"spacing"` // Slot spacing for line and vee patterns
	Gap     float64 `yaml:"gap"`     // Follow distance behind the leader
}

// MissionConfig holds mode state machine parameters.
type MissionConfig struct {
	EmergencyThreshold float64 `yaml:"emergency_threshold"` // Obstacle distance triggering emergency avoidance
	DebounceTicks      int     `yaml:"debounce_ticks"`      // Clear ticks required before leaving emergency
}

// TuningConfig holds adaptive weight tuning parameters.
type TuningConfig struct {
	Window        int     `yaml:"window"`         // Rolling window length in ticks
	Step          float64 `yaml:"step"`           // Increment on declining formation quality
	CollisionStep float64 `yaml:"collision_step"` // Increment after a near miss
	Min           float64 `yaml:"min"`            // Lower weight bound
	Max           float64 `yaml:"max"`            // Upper weight bound
}

// SimConfig holds simulation harness parameters.
type SimConfig struct {
	NumRobots    int     `yaml:"num_robots"`
	NumObstacles int     `yaml:"num_obstacles"`
	WorldWidth   float64 `yaml:"world_width"`
	WorldHeight  float64 `yaml:"world_height"`
	SensorRange  float64 `yaml:"sensor_range"` // Neighbor and obstacle visibility radius
	DT           float64 `yaml:"dt"`           // Seconds per tick
	WheelScale   float64 `yaml:"wheel_scale"`  // Wheel velocity to linear velocity factor
	TrackWidth   float64 `yaml:"track_width"`  // Wheel separation for turn-rate integration
}

// TelemetryConfig holds telemetry output parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Window length in simulation seconds
}

// ScreenConfig holds viewer settings.
type ScreenConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	TargetFPS     int     `yaml:"target_fps"`
	PixelsPerUnit float64 `yaml:"pixels_per_unit"` // World units to pixels
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults,
// and validates the result. A validation failure is fatal to startup; invalid
// values are never silently clamped.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every construction-time constraint the engine relies on.
func (c *Config) Validate() error {
	if c.Drive.MaxSpeed <= 0 {
		return fmt.Errorf("drive.max_speed must be positive, got %v", c.Drive.MaxSpeed)
	}
	if c.Drive.ForwardGain <= 0 {
		return fmt.Errorf("drive.forward_gain must be positive, got %v", c.Drive.ForwardGain)
	}
	if c.Drive.TurnGain <= 0 {
		return fmt.Errorf("drive.turn_gain must be positive, got %v", c.Drive.TurnGain)
	}
	if c.Drive.SmoothingAlpha <= 0 || c.Drive.SmoothingAlpha > 1 {
		return fmt.Errorf("drive.smoothing_alpha must be in (0, 1], got %v", c.Drive.SmoothingAlpha)
	}
	if c.Steering.SeparationThreshold < 0 {
		return fmt.Errorf("steering.separation_threshold must not be negative, got %v", c.Steering.SeparationThreshold)
	}
	if c.Steering.CohesionThreshold < 0 {
		return fmt.Errorf("steering.cohesion_threshold must not be negative, got %v", c.Steering.CohesionThreshold)
	}
	if c.Steering.ObstacleThreshold < 0 {
		return fmt.Errorf("steering.obstacle_threshold must not be negative, got %v", c.Steering.ObstacleThreshold)
	}
	if c.Steering.WanderJitter < 0 {
		return fmt.Errorf("steering.wander_jitter must not be negative, got %v", c.Steering.WanderJitter)
	}
	if c.Steering.ExplorationSectors < 1 {
		return fmt.Errorf("steering.exploration_sectors must be at least 1, got %d", c.Steering.ExplorationSectors)
	}
	switch c.Steering.Formation.Pattern {
	case "", "circle", "line", "vee":
	default:
		return fmt.Errorf("steering.formation.pattern must be circle, line or vee, got %q", c.Steering.Formation.Pattern)
	}
	if c.Steering.Formation.Radius <= 0 {
		return fmt.Errorf("steering.formation.radius must be positive, got %v", c.Steering.Formation.Radius)
	}
	if c.Steering.Formation.Spacing <= 0 {
		return fmt.Errorf("steering.formation.spacing must be positive, got %v", c.Steering.Formation.Spacing)
	}
	if c.Steering.Formation.Gap < 0 {
		return fmt.Errorf("steering.formation.gap must not be negative, got %v", c.Steering.Formation.Gap)
	}
	if c.Mission.EmergencyThreshold <= 0 {
		return fmt.Errorf("mission.emergency_threshold must be positive, got %v", c.Mission.EmergencyThreshold)
	}
	if c.Mission.DebounceTicks < 1 {
		return fmt.Errorf("mission.debounce_ticks must be at least 1, got %d", c.Mission.DebounceTicks)
	}
	if c.Tuning.Window < 2 {
		return fmt.Errorf("tuning.window must be at least 2, got %d", c.Tuning.Window)
	}
	if c.Tuning.Step < 0 || c.Tuning.CollisionStep < 0 {
		return fmt.Errorf("tuning steps must not be negative, got %v and %v", c.Tuning.Step, c.Tuning.CollisionStep)
	}
	if c.Tuning.Min < 0 {
		return fmt.Errorf("tuning.min must not be negative, got %v", c.Tuning.Min)
	}
	if c.Tuning.Max < c.Tuning.Min {
		return fmt.Errorf("tuning.max (%v) must not be below tuning.min (%v)", c.Tuning.Max, c.Tuning.Min)
	}
	if c.Sim.NumRobots < 1 {
		return fmt.Errorf("sim.num_robots must be at least 1, got %d", c.Sim.NumRobots)
	}
	if c.Sim.NumObstacles < 0 {
		return fmt.Errorf("sim.num_obstacles must not be negative, got %d", c.Sim.NumObstacles)
	}
	if c.Sim.WorldWidth <= 0 || c.Sim.WorldHeight <= 0 {
		return fmt.Errorf("sim world dimensions must be positive, got %vx%v", c.Sim.WorldWidth, c.Sim.WorldHeight)
	}
	if c.Sim.SensorRange <= 0 {
		return fmt.Errorf("sim.sensor_range must be positive, got %v", c.Sim.SensorRange)
	}
	if c.Sim.DT <= 0 {
		return fmt.Errorf("sim.dt must be positive, got %v", c.Sim.DT)
	}
	if c.Sim.WheelScale <= 0 {
		return fmt.Errorf("sim.wheel_scale must be positive, got %v", c.Sim.WheelScale)
	}
	if c.Sim.TrackWidth <= 0 {
		return fmt.Errorf("sim.track_width must be positive, got %v", c.Sim.TrackWidth)
	}
	if c.Telemetry.StatsWindow <= 0 {
		return fmt.Errorf("telemetry.stats_window must be positive, got %v", c.Telemetry.StatsWindow)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
