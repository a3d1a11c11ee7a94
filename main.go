package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"swarmpilot/config"
	"swarmpilot/mission"
	"swarmpilot/sim"
	"swarmpilot/telemetry"
	"swarmpilot/viewer"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	listen := flag.String("listen", "", "Address for the websocket telemetry hub (empty = disabled)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per frame (higher = faster)")
	directive := flag.String("directive", "", "Initial directive: patrol or search")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}

	var hub *telemetry.Hub
	if *listen != "" {
		hub = telemetry.NewHub(logger)
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		go func() {
			slog.Info("telemetry hub listening", "addr", *listen)
			if err := http.ListenAndServe(*listen, mux); err != nil {
				slog.Error("telemetry hub failed", "error", err)
			}
		}()
	}

	runner, err := sim.NewRunner(cfg, sim.RunnerOptions{
		Seed:      rngSeed,
		OutputDir: *outputDir,
		Hub:       hub,
		LogStats:  *logStats,
		Log:       logger,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	defer runner.Close()

	switch *directive {
	case "patrol":
		runner.World.Directive(mission.ModePatrol)
	case "search":
		runner.World.Directive(mission.ModeSearch)
	case "":
	default:
		slog.Error("unknown directive", "directive", *directive)
		os.Exit(1)
	}

	if *headless {
		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"max_ticks", *maxTicks,
			"steps_per_update", *stepsPerUpdate)

		for {
			for i := 0; i < *stepsPerUpdate; i++ {
				if err := runner.Step(); err != nil {
					slog.Error("telemetry write failed", "error", err)
					os.Exit(1)
				}
			}
			if *maxTicks > 0 && runner.World.Tick() >= *maxTicks {
				slog.Info("max ticks reached", "tick", runner.World.Tick())
				return
			}
		}
	}

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Swarm Pilot")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	view := viewer.New(cfg, runner.World)
	for !rl.WindowShouldClose() {
		view.Update()
		if !view.Paused() {
			for i := 0; i < *stepsPerUpdate; i++ {
				if err := runner.Step(); err != nil {
					slog.Error("telemetry write failed", "error", err)
					return
				}
			}
		}
		view.Draw()

		if *maxTicks > 0 && runner.World.Tick() >= *maxTicks {
			break
		}
	}
}
