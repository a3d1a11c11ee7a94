package camera

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	cam := New(1200, 1200, 12, 12)

	// Should be centered on world, zoomed to fit
	if cam.X != 6 || cam.Y != 6 {
		t.Errorf("expected camera at (6, 6), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 100 {
		t.Errorf("expected fit zoom 100, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1200, 1200, 12, 12)

	// Camera center should map to screen center
	sx, sy := cam.WorldToScreen(6, 6)
	if math.Abs(sx-600) > 0.01 || math.Abs(sy-600) > 0.01 {
		t.Errorf("expected screen center (600, 600), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 12, 12)
	cam.SetZoom(80)

	testCases := []struct{ sx, sy float64 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(sx-tc.sx) > 0.01 || math.Abs(sy-tc.sy) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanClampsToWorld(t *testing.T) {
	cam := New(1200, 1200, 12, 12)

	// A huge pan left must stop at the world edge, not wrap.
	cam.Pan(-1e6, 0)
	if cam.X != 0 {
		t.Errorf("expected X clamped to 0, got %f", cam.X)
	}
	cam.Pan(1e9, 1e9)
	if cam.X != 12 || cam.Y != 12 {
		t.Errorf("expected clamp to world max, got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1200, 1200, 12, 12)

	// Fit zoom is 100, so the bounds are 50 and 800.
	cam.SetZoom(1)
	if cam.Zoom != 50 {
		t.Errorf("expected zoom clamped to 50, got %f", cam.Zoom)
	}

	cam.SetZoom(1e6)
	if cam.Zoom != 800 {
		t.Errorf("expected zoom clamped to 800, got %f", cam.Zoom)
	}
}

func TestZoomByCompounds(t *testing.T) {
	cam := New(1200, 1200, 12, 12)
	cam.ZoomBy(2)
	if cam.Zoom != 200 {
		t.Errorf("expected zoom 200, got %f", cam.Zoom)
	}
}

func TestAsymmetricViewportFitsLimitingAxis(t *testing.T) {
	cam := New(1280, 720, 12, 12)

	// Fit zoom is min(1280/12, 720/12) = 60; the whole arena fits vertically.
	if math.Abs(cam.Zoom-60) > 0.001 {
		t.Errorf("expected fit zoom 60, got %f", cam.Zoom)
	}
	visibleH := cam.ViewportH / cam.Zoom
	if visibleH < cam.WorldH-0.01 {
		t.Errorf("arena height %f does not fit visible height %f", cam.WorldH, visibleH)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1200, 1200, 12, 12)
	cam.SetZoom(200) // Visible area is 6x6 centered at (6, 6)

	if !cam.IsVisible(6, 6, 0.1) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(0.5, 0.5, 0.1) {
		t.Error("far corner should not be visible at high zoom")
	}
	if !cam.IsVisible(2.5, 6, 1.0) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestReset(t *testing.T) {
	cam := New(1200, 1200, 12, 12)
	cam.X = 2
	cam.Y = 3
	cam.Zoom = 400

	cam.Reset()

	if cam.X != 6 || cam.Y != 6 {
		t.Errorf("expected position (6, 6), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 100 {
		t.Errorf("expected fit zoom 100, got %f", cam.Zoom)
	}
}

func TestResize(t *testing.T) {
	cam := New(1200, 1200, 12, 12)
	cam.Resize(600, 600)

	// Constraints follow the new viewport; zoom stays if still in range.
	if cam.MinZoom != 25 || cam.MaxZoom != 400 {
		t.Errorf("expected bounds (25, 400), got (%f, %f)", cam.MinZoom, cam.MaxZoom)
	}
}
