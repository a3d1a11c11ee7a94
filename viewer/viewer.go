// Package viewer renders the world with raylib and exposes a raygui panel
// for live behavior weight editing on the selected robot.
package viewer

import (
	"fmt"
	"log/slog"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"swarmpilot/camera"
	"swarmpilot/config"
	"swarmpilot/mission"
	"swarmpilot/sim"
	"swarmpilot/steering"
)

const (
	panelWidth  = 260
	robotRadius = 0.12 // World units
	forceScale  = 0.6  // World units per unit force
)

// modeColors maps mission mode names to draw colors.
var modeColors = map[string]rl.Color{
	mission.ModeExploration.String(): rl.SkyBlue,
	mission.ModeFormation.String():   rl.Green,
	mission.ModeFollowing.String():   rl.Gold,
	mission.ModePatrol.String():      rl.Purple,
	mission.ModeSearch.String():      rl.Orange,
	mission.ModeEmergency.String():   rl.Red,
}

// Viewer draws world snapshots and weight controls.
type Viewer struct {
	cfg      *config.Config
	world    *sim.World
	cam      *camera.Camera
	selected int
	paused   bool
}

// New creates a viewer over the given world.
func New(cfg *config.Config, world *sim.World) *Viewer {
	cam := camera.New(
		float64(cfg.Screen.Width-panelWidth), float64(cfg.Screen.Height),
		cfg.Sim.WorldWidth, cfg.Sim.WorldHeight,
	)
	cam.SetZoom(cfg.Screen.PixelsPerUnit)
	return &Viewer{cfg: cfg, world: world, cam: cam}
}

// Paused reports whether stepping is suspended.
func (v *Viewer) Paused() bool { return v.paused }

// Update handles input: robot selection, pan and zoom, pause, directives.
func (v *Viewer) Update() {
	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	if rl.IsKeyPressed(rl.KeyP) {
		v.world.Directive(mission.ModePatrol)
	}
	if rl.IsKeyPressed(rl.KeyS) {
		v.world.Directive(mission.ModeSearch)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.cam.Reset()
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.cam.ZoomBy(1 + 0.1*float64(wheel))
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		delta := rl.GetMouseDelta()
		v.cam.Pan(-float64(delta.X), -float64(delta.Y))
	}

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		mouse := rl.GetMousePosition()
		if mouse.X < float32(v.cfg.Screen.Width-panelWidth) {
			v.selectAt(mouse)
		}
	}
}

func (v *Viewer) selectAt(mouse rl.Vector2) {
	wx, wy := v.cam.ScreenToWorld(float64(mouse.X), float64(mouse.Y))
	snap := v.world.Snapshot()
	for i, r := range snap.Robots {
		dx := wx - r.X
		dy := wy - r.Y
		if math.Hypot(dx, dy) < robotRadius*3 {
			v.selected = i
			return
		}
	}
}

// Draw renders one frame.
func (v *Viewer) Draw() {
	snap := v.world.Snapshot()

	rl.BeginDrawing()
	rl.ClearBackground(rl.RayWhite)

	px := v.cam.Zoom
	for _, ob := range snap.Obstacles {
		if !v.cam.IsVisible(ob.X, ob.Y, ob.Radius) {
			continue
		}
		sx, sy := v.cam.WorldToScreen(ob.X, ob.Y)
		rl.DrawCircle(int32(sx), int32(sy), float32(ob.Radius*px), rl.DarkGray)
	}

	for i, r := range snap.Robots {
		if !v.cam.IsVisible(r.X, r.Y, robotRadius*2) {
			continue
		}
		sx, sy := v.cam.WorldToScreen(r.X, r.Y)

		color, ok := modeColors[r.Mode]
		if !ok {
			color = rl.LightGray
		}
		if i == v.selected {
			rl.DrawCircle(int32(sx), int32(sy), float32(robotRadius*px)+3, rl.Black)
		}
		rl.DrawCircle(int32(sx), int32(sy), float32(robotRadius*px), color)

		// Heading tick
		hx := sx + math.Cos(r.Heading)*robotRadius*1.8*px
		hy := sy + math.Sin(r.Heading)*robotRadius*1.8*px
		rl.DrawLine(int32(sx), int32(sy), int32(hx), int32(hy), rl.Black)

		// Composed force, rotated back into the world frame
		fx := r.ForceX*math.Cos(r.Heading) - r.ForceY*math.Sin(r.Heading)
		fy := r.ForceX*math.Sin(r.Heading) + r.ForceY*math.Cos(r.Heading)
		rl.DrawLine(int32(sx), int32(sy),
			int32(sx+fx*forceScale*px), int32(sy+fy*forceScale*px), rl.Maroon)

		rl.DrawText(r.Name, int32(sx)+12, int32(sy)-10, 10, rl.DarkGray)
	}

	v.drawPanel(snap)

	rl.DrawText(fmt.Sprintf("tick %d  t=%.1fs", snap.Tick, snap.SimTime), 10, 10, 16, rl.DarkGray)
	if v.paused {
		rl.DrawText("PAUSED", 10, 30, 16, rl.Red)
	}
	rl.EndDrawing()
}

// drawPanel renders the weight sliders for the selected robot. Slider edits
// go through the engine's override path and are rejected the same way any
// invalid runtime weight change is.
func (v *Viewer) drawPanel(snap sim.Snapshot) {
	if v.selected >= len(snap.Robots) {
		return
	}
	r := snap.Robots[v.selected]
	engine := v.world.Engines()[v.selected]

	x := float32(v.cfg.Screen.Width - panelWidth)
	y := float32(10)
	rl.DrawRectangle(int32(x)-10, 0, panelWidth+10, int32(v.cfg.Screen.Height), rl.Fade(rl.LightGray, 0.5))

	rl.DrawText(fmt.Sprintf("%s  [%s]", r.Name, r.Mode), int32(x), int32(y), 18, rl.DarkGray)
	y += 26
	rl.DrawText(fmt.Sprintf("quality %.2f", r.Quality), int32(x), int32(y), 14, rl.Gray)
	y += 24

	weights := engine.Weights()
	for _, name := range steering.AllNames {
		rl.DrawText(string(name), int32(x), int32(y), 12, rl.Gray)
		y += 14

		cur := float32(weights[name])
		next := gui.SliderBar(
			rl.Rectangle{X: x, Y: y, Width: panelWidth - 70, Height: 16},
			"0", "5",
			cur, 0, 5,
		)
		rl.DrawText(fmt.Sprintf("%.2f", cur), int32(x+panelWidth-60), int32(y), 14, rl.DarkGray)
		if next != cur {
			if err := engine.SetWeight(name, float64(next)); err != nil {
				slog.Warn("weight edit rejected", "robot", r.Name, "behavior", name, "err", err)
			}
		}
		y += 24
	}

	y += 8
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 110, Height: 26}, "Patrol") {
		v.world.Directive(mission.ModePatrol)
	}
	if gui.Button(rl.Rectangle{X: x + 120, Y: y, Width: 110, Height: 26}, "Search") {
		v.world.Directive(mission.ModeSearch)
	}
}
