package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated swarm statistics for a time window.
type WindowStats struct {
	WindowStartTick int     `csv:"-"`
	WindowEndTick   int     `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	Robots int `csv:"robots"`

	// Mode occupancy at window end
	Exploring int `csv:"exploring"`
	Forming   int `csv:"forming"`
	Following int `csv:"following"`
	Patrol    int `csv:"patrol"`
	Search    int `csv:"search"`
	Emergency int `csv:"emergency"`

	// Events during window
	ModeChanges       int `csv:"mode_changes"`
	NearMisses        int `csv:"near_misses"`
	EmergencyEntries  int `csv:"emergency_entries"`
	WeightAdjustments int `csv:"weight_adjustments"`
	Directives        int `csv:"directives"`

	// Formation quality distribution (sampled at window end)
	QualityMean float64 `csv:"quality_mean"`
	QualityP10  float64 `csv:"quality_p10"`
	QualityP50  float64 `csv:"quality_p50"`
	QualityP90  float64 `csv:"quality_p90"`

	// Motion
	MeanSpeed     float64 `csv:"mean_speed"`
	TotalDistance float64 `csv:"total_distance"`
}

// ComputeQualityStats calculates mean and percentiles from per-robot
// formation quality samples. The input slice is sorted in place.
func ComputeQualityStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)
	stat.SortWeighted(values, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, values, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, values, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, values, nil)
	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("robots", s.Robots),
		slog.Int("exploring", s.Exploring),
		slog.Int("forming", s.Forming),
		slog.Int("following", s.Following),
		slog.Int("patrol", s.Patrol),
		slog.Int("search", s.Search),
		slog.Int("emergency", s.Emergency),
		slog.Int("mode_changes", s.ModeChanges),
		slog.Int("near_misses", s.NearMisses),
		slog.Int("emergency_entries", s.EmergencyEntries),
		slog.Int("weight_adjustments", s.WeightAdjustments),
		slog.Float64("quality_mean", s.QualityMean),
		slog.Float64("quality_p50", s.QualityP50),
		slog.Float64("mean_speed", s.MeanSpeed),
		slog.Float64("total_distance", s.TotalDistance),
	)
}
