package main

import (
	"io"
	"log/slog"
	"sync"

	"swarmpilot/config"
	"swarmpilot/sim"
)

// FitnessEvaluator runs headless simulations and computes a cost for a
// parameter vector. Lower is better.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []uint64
	baseConfig *config.Config

	mu          sync.Mutex
	lastQuality float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []uint64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastQuality returns the mean formation quality from the most recent
// evaluation, for progress reporting.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// seedResult holds the outcome of one seed's run.
type seedResult struct {
	nearMisses     int
	emergencyTicks int
	quality        float64
	distance       float64
}

// Evaluate computes the cost for a parameter vector, averaged over all
// seeds. Near misses dominate the cost; formation quality and coverage
// distance reduce it.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	if err := cfg.Validate(); err != nil {
		// Out-of-bounds candidates are heavily penalized, not crashed on.
		return 1e9
	}

	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			results[idx] = fe.runSeed(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var cost, quality float64
	for _, r := range results {
		cost += 10.0*float64(r.nearMisses) + float64(r.emergencyTicks) - 5.0*r.quality - 0.1*r.distance
		quality += r.quality
	}
	cost /= float64(len(results))

	fe.mu.Lock()
	fe.lastQuality = quality / float64(len(results))
	fe.mu.Unlock()

	return cost
}

// runSeed runs one headless simulation to maxTicks and summarizes it.
func (fe *FitnessEvaluator) runSeed(cfg *config.Config, seed uint64) seedResult {
	// Evaluation runs are silent; only the progress line reports.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	world, err := sim.NewWorld(cfg, seed, quiet)
	if err != nil {
		return seedResult{nearMisses: 1 << 20}
	}

	var res seedResult
	qualitySum := 0.0
	samples := 0
	for tick := 0; tick < fe.maxTicks; tick++ {
		world.Step()
		for _, out := range world.Outputs() {
			if out.NearMiss {
				res.nearMisses++
			}
		}
	}
	for _, out := range world.Outputs() {
		res.emergencyTicks += out.Metrics.EmergencyTicks
		res.distance += out.Metrics.DistanceTraveled
		qualitySum += out.Metrics.MeanQuality
		samples++
	}
	if samples > 0 {
		res.quality = qualitySum / float64(samples)
	}
	return res
}

// copyConfig deep-copies the base config so evaluations never share state.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cp := *fe.baseConfig
	return &cp
}
