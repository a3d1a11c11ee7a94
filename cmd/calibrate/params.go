// Package main provides CMA-ES calibration of drive and steering parameters
// against headless swarm runs.
package main

import (
	"swarmpilot/config"
)

// ParamSpec defines a single calibratable parameter.
type ParamSpec struct {
	Name    string
	Path    string // Config path for logging
	Min     float64
	Max     float64
	Default float64
}

// ParamVector holds the set of all calibratable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of calibratable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "forward_gain", Path: "drive.forward_gain", Min: 0.1, Max: 1.0, Default: 0.5},
			{Name: "turn_gain", Path: "drive.turn_gain", Min: 0.05, Max: 0.8, Default: 0.3},
			{Name: "smoothing_alpha", Path: "drive.smoothing_alpha", Min: 0.1, Max: 1.0, Default: 0.4},
			{Name: "separation_threshold", Path: "steering.separation_threshold", Min: 0.3, Max: 1.5, Default: 0.8},
			{Name: "obstacle_threshold", Path: "steering.obstacle_threshold", Min: 0.2, Max: 1.0, Default: 0.4},
			{Name: "wander_jitter", Path: "steering.wander_jitter", Min: 0.05, Max: 0.8, Default: 0.3},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Drive.ForwardGain = clamped[0]
	cfg.Drive.TurnGain = clamped[1]
	cfg.Drive.SmoothingAlpha = clamped[2]
	cfg.Steering.SeparationThreshold = clamped[3]
	cfg.Steering.ObstacleThreshold = clamped[4]
	cfg.Steering.WanderJitter = clamped[5]
}
