package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"swarmpilot/config"
)

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir           string
	telemetryFile *os.File
	robotFile     *os.File

	telemetryHeaderWritten bool
	robotHeaderWritten     bool
}

// RobotRecord is one per-robot sample written to robots.csv at window ends.
type RobotRecord struct {
	Tick             int     `csv:"tick"`
	Name             string  `csv:"robot"`
	Mode             string  `csv:"mode"`
	X                float64 `csv:"x"`
	Y                float64 `csv:"y"`
	Heading          float64 `csv:"heading"`
	Left             float64 `csv:"left"`
	Right            float64 `csv:"right"`
	Quality          float64 `csv:"quality"`
	NearMisses       int     `csv:"near_misses"`
	DistanceTraveled float64 `csv:"distance"`
}

// NewOutputManager creates an output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}
	om.telemetryFile = f

	f, err = os.Create(filepath.Join(dir, "robots.csv"))
	if err != nil {
		om.telemetryFile.Close()
		return nil, fmt.Errorf("creating robots.csv: %w", err)
	}
	om.robotFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML alongside the CSVs, so
// a run's output is reproducible from its own directory.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}

	records := []WindowStats{stats}
	if !om.telemetryHeaderWritten {
		if err := gocsv.Marshal(records, om.telemetryFile); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		om.telemetryHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.telemetryFile); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
	}
	return nil
}

// WriteRobots writes per-robot samples to robots.csv.
func (om *OutputManager) WriteRobots(records []RobotRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}

	if !om.robotHeaderWritten {
		if err := gocsv.Marshal(records, om.robotFile); err != nil {
			return fmt.Errorf("writing robots: %w", err)
		}
		om.robotHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.robotFile); err != nil {
			return fmt.Errorf("writing robots: %w", err)
		}
	}
	return nil
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	if err := om.telemetryFile.Close(); err != nil {
		firstErr = err
	}
	if err := om.robotFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
