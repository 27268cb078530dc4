package calibrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidxiao93/TouchWall/internal/screen"
	"github.com/davidxiao93/TouchWall/internal/space"
)

const fingerPixel = 1

// background has a static object resting against the wall inside the search
// column, an empty pixel for the finger and one unreadable pixel.
func background() space.Cloud {
	return space.Cloud{
		{X: 0, Y: 0.02, Z: 2.0},
		{X: 0, Y: 0.6, Z: 0.9},
		space.Unknown(),
	}
}

func withFinger(p space.Point3D) space.Cloud {
	c := background()
	c[fingerPixel] = p
	return c
}

// tap approaches, touches and releases at the given wall position.
func tap(c *Calibrator, x, z float64) Result {
	c.Step(withFinger(space.Point3D{X: x, Y: 0.08, Z: z}))
	c.Step(withFinger(space.Point3D{X: x, Y: 0.003, Z: z}))
	return c.Step(withFinger(space.Point3D{X: x, Y: 0.05, Z: z}))
}

func startedCalibrator(t *testing.T, cfg Config) (*Calibrator, *screen.Geometry) {
	t.Helper()
	g := screen.DefaultGeometry()
	c := New(&g, cfg)
	c.Begin()
	require.Equal(t, CapturingReference, c.State())
	res := c.Step(background())
	require.Equal(t, TouchRight, res.State)
	return c, &g
}

func TestCalibrator_FullFlow(t *testing.T) {
	c, g := startedCalibrator(t, DefaultConfig())

	res := tap(c, 0.02, 1.2)
	assert.Equal(t, screen.EdgeRight, res.Committed)
	assert.Equal(t, TouchLeft, c.State())
	assert.InDelta(t, 1.2, g.Right, 1e-6)

	res = tap(c, -0.03, 0.6)
	assert.Equal(t, screen.EdgeLeft, res.Committed)
	assert.Equal(t, TouchTop, c.State())
	assert.InDelta(t, 0.6, g.Left, 1e-6)

	res = tap(c, 0.3, 0.9)
	assert.Equal(t, screen.EdgeTop, res.Committed)
	assert.Equal(t, TouchBottom, c.State())
	assert.InDelta(t, 0.3, g.Top, 1e-6)

	res = tap(c, -0.2, 0.9)
	assert.Equal(t, screen.EdgeBottom, res.Committed)
	assert.True(t, res.Completed)
	assert.Equal(t, Idle, c.State())
	assert.InDelta(t, -0.2, g.Bottom, 1e-6)

	require.NoError(t, g.Validate())
}

func TestCalibrator_AdvancesOnlyOnRelease(t *testing.T) {
	c, g := startedCalibrator(t, DefaultConfig())

	for i := 0; i < 5; i++ {
		res := c.Step(withFinger(space.Point3D{X: 0, Y: 0.003, Z: 1.3}))
		assert.True(t, res.Found)
		assert.Zero(t, res.Committed)
	}
	assert.Equal(t, TouchRight, c.State())
	assert.Equal(t, Triggered, c.Latch())

	// Lifting past the move threshold leaves nothing to release against.
	c.Step(withFinger(space.Point3D{X: 0, Y: 0.4, Z: 1.3}))
	assert.Equal(t, TouchRight, c.State())
	assert.Equal(t, screen.DefaultRight, g.Right)

	// Hovering between down and up neither triggers nor releases.
	c.Step(withFinger(space.Point3D{X: 0, Y: 0.02, Z: 1.3}))
	assert.Equal(t, TouchRight, c.State())

	res := c.Step(withFinger(space.Point3D{X: 0, Y: 0.05, Z: 1.3}))
	assert.Equal(t, screen.EdgeRight, res.Committed)
	assert.Equal(t, TouchLeft, c.State())
	assert.Equal(t, Armed, c.Latch())
}

func TestCalibrator_ReleaseWithoutTouchDoesNotCommit(t *testing.T) {
	c, g := startedCalibrator(t, DefaultConfig())

	for i := 0; i < 3; i++ {
		c.Step(withFinger(space.Point3D{X: 0, Y: 0.05, Z: 1.3}))
	}

	assert.Equal(t, TouchRight, c.State())
	assert.Equal(t, Armed, c.Latch())
	assert.Equal(t, screen.DefaultRight, g.Right)
}

func TestCalibrator_NoCandidateWaits(t *testing.T) {
	c, _ := startedCalibrator(t, DefaultConfig())

	for i := 0; i < 100; i++ {
		res := c.Step(background())
		assert.False(t, res.Found)
	}
	assert.Equal(t, TouchRight, c.State())
}

func TestCalibrator_CancelRestoresEdges(t *testing.T) {
	taps := [][2]float64{{0, 1.2}, {0, 0.6}, {0.3, 0.9}}

	for done := 0; done <= len(taps); done++ {
		t.Run(State(done+2).String(), func(t *testing.T) {
			c, g := startedCalibrator(t, DefaultConfig())
			for _, tp := range taps[:done] {
				tap(c, tp[0], tp[1])
			}

			assert.True(t, c.Cancel())
			assert.Equal(t, Idle, c.State())
			assert.Equal(t, screen.DefaultGeometry(), *g)

			assert.False(t, c.Cancel(), "second cancel is a no-op")
			assert.Equal(t, screen.DefaultGeometry(), *g)
		})
	}

	t.Run("capturing reference", func(t *testing.T) {
		g := screen.DefaultGeometry()
		c := New(&g, DefaultConfig())
		c.Begin()
		assert.True(t, c.Cancel())
		assert.Equal(t, Idle, c.State())
	})

	t.Run("idle", func(t *testing.T) {
		g := screen.DefaultGeometry()
		c := New(&g, DefaultConfig())
		assert.False(t, c.Cancel())
	})
}

func TestCalibrator_BackgroundIsNeverSelected(t *testing.T) {
	c, _ := startedCalibrator(t, DefaultConfig())

	// Every point sits within tolerance of its reference sample.
	jittered := background()
	jittered[0].Z += 0.09
	jittered[0].Y -= 0.005
	jittered[1].X += 0.05

	for i := 0; i < 3; i++ {
		res := c.Step(jittered)
		assert.False(t, res.Found)
	}

	// A finger farther from the wall than the static object still wins.
	res := c.Step(withFinger(space.Point3D{X: 0, Y: 0.06, Z: 1.1}))
	require.True(t, res.Found)
	assert.InDelta(t, 1.1, res.Candidate.Z, 1e-9)
}

func TestCalibrator_PixelWithoutBackgroundIsIgnored(t *testing.T) {
	t.Run("unreadable reference pixel", func(t *testing.T) {
		g := screen.DefaultGeometry()
		c := New(&g, DefaultConfig())
		c.Begin()
		c.Step(space.Cloud{space.Unknown()})
		require.Equal(t, TouchRight, c.State())

		for _, y := range []float64{0.001, 0.05} {
			res := c.Step(space.Cloud{{X: 0, Y: y, Z: 1.2}})
			assert.False(t, res.Found)
			assert.Zero(t, res.Committed)
		}

		assert.Equal(t, TouchRight, c.State())
		assert.Equal(t, screen.DefaultRight, g.Right)
	})

	t.Run("pixel beyond the reference frame", func(t *testing.T) {
		c, g := startedCalibrator(t, DefaultConfig())

		for _, y := range []float64{0.001, 0.05} {
			frame := append(background(), space.Point3D{X: 0, Y: y, Z: 1.2})
			res := c.Step(frame)
			assert.False(t, res.Found)
		}

		assert.Equal(t, TouchRight, c.State())
		assert.Equal(t, screen.DefaultRight, g.Right)
	})
}

func TestCalibrator_IgnoresInvalidAndOutOfColumnPoints(t *testing.T) {
	c, _ := startedCalibrator(t, DefaultConfig())

	tests := []struct {
		name string
		p    space.Point3D
	}{
		{"unknown", space.Unknown()},
		{"outside column", space.Point3D{X: 0.2, Y: 0.003, Z: 1.2}},
		{"too close to sensor", space.Point3D{X: 0, Y: 0.003, Z: 0.4}},
		{"too deep", space.Point3D{X: 0, Y: 0.003, Z: 9}},
		{"on the wall", space.Point3D{X: 0, Y: 0, Z: 1.2}},
		{"beyond move threshold", space.Point3D{X: 0, Y: 0.2, Z: 1.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Step(withFinger(tt.p))
			assert.False(t, res.Found)
		})
	}
}

func TestCalibrator_VerticalEdgesUseCalibratedWidth(t *testing.T) {
	c, g := startedCalibrator(t, DefaultConfig())
	tap(c, 0, 1.2)
	tap(c, 0, 0.6)
	require.Equal(t, TouchTop, c.State())

	// Outside (left, right) even though it is in the fixed column.
	res := tap(c, 0.3, 1.25)
	assert.False(t, res.Found)
	assert.Equal(t, screen.DefaultTop, g.Top)

	// Far from the column but inside the calibrated width.
	res = tap(c, 0.4, 0.7)
	assert.Equal(t, screen.EdgeTop, res.Committed)
	assert.InDelta(t, 0.4, g.Top, 1e-6)
}

func TestCalibrator_MonotonicGuard(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		c, g := startedCalibrator(t, DefaultConfig())
		tap(c, 0, 1.2)
		tap(c, 0, 1.5)
		assert.Equal(t, TouchTop, c.State())
		assert.InDelta(t, 1.5, g.Left, 1e-6)
	})

	t.Run("enabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MonotonicGuard = true
		c, g := startedCalibrator(t, cfg)
		tap(c, 0, 1.2)
		tap(c, 0, 1.5)
		assert.Equal(t, TouchLeft, c.State())
		assert.Equal(t, screen.DefaultLeft, g.Left)

		tap(c, 0, 0.7)
		assert.Equal(t, TouchTop, c.State())
		tap(c, 0.2, 0.9)
		require.Equal(t, TouchBottom, c.State())

		tap(c, 0.25, 0.9)
		assert.Equal(t, TouchBottom, c.State(), "bottom above top is rejected")
		tap(c, -0.1, 0.9)
		assert.Equal(t, Idle, c.State())
	})
}

func TestCalibrator_BeginRestartKeepsOriginalMemento(t *testing.T) {
	c, g := startedCalibrator(t, DefaultConfig())
	tap(c, 0, 1.2)
	require.InDelta(t, 1.2, g.Right, 1e-6)

	c.Begin()
	assert.Equal(t, CapturingReference, c.State())
	assert.Equal(t, screen.DefaultRight, g.Right)

	c.Step(background())
	tap(c, 0, 1.4)
	assert.True(t, c.Cancel())
	assert.Equal(t, screen.DefaultGeometry(), *g)
}

func TestCalibrator_IdleStepIsNoop(t *testing.T) {
	g := screen.DefaultGeometry()
	c := New(&g, DefaultConfig())

	res := c.Step(withFinger(space.Point3D{X: 0, Y: 0.003, Z: 1.2}))

	assert.Equal(t, Idle, res.State)
	assert.False(t, res.Found)
	assert.Equal(t, screen.DefaultGeometry(), g)
}
