package pointer

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidxiao93/TouchWall/internal/screen"
)

type sample struct {
	pos   r2.Point
	depth float64
}

func run(m *Machine, g screen.Geometry, caps Capability, sink Sink, samples []sample) (lost []bool) {
	for _, s := range samples {
		lost = append(lost, m.Step(s.pos, s.depth, g, caps, sink))
	}
	return lost
}

func moveEvent(g screen.Geometry, p r2.Point) Event {
	x, y := g.Normalize(p)
	return Event{Kind: EventMove, X: x, Y: y}
}

var centre = r2.Point{X: 0.75, Y: 0}

func TestMachine_TapClick(t *testing.T) {
	g := screen.DefaultGeometry()
	m := NewMachine(DefaultConfig())
	sink := NewMockSink()

	run(m, g, MoveClick, sink, []sample{
		{centre, 0.075},
		{centre, 0.001},
		{centre, 0.025},
		{centre, 0.05},
	})

	want := []Event{
		moveEvent(g, centre),
		moveEvent(g, centre),
		{Kind: EventDown},
		{Kind: EventUp},
	}
	if diff := cmp.Diff(want, sink.Events()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Move, m.State())
}

func TestMachine_Drag(t *testing.T) {
	g := screen.DefaultGeometry()
	m := NewMachine(DefaultConfig())
	sink := NewMockSink()
	shifted := r2.Point{X: centre.X + 0.02, Y: centre.Y}

	run(m, g, MoveClick, sink, []sample{
		{centre, 0.001},
		{r2.Point{X: centre.X + 0.005, Y: 0}, 0.01},
	})
	require.Equal(t, ButtonDown, m.State(), "small drift stays a press")

	run(m, g, MoveClick, sink, []sample{{shifted, 0.01}})
	require.Equal(t, Dragging, m.State())

	run(m, g, MoveClick, sink, []sample{
		{shifted, 0.02},
		{shifted, 0.05},
	})

	want := []Event{
		moveEvent(g, centre),
		{Kind: EventDown},
		moveEvent(g, shifted),
		moveEvent(g, shifted),
		{Kind: EventUp},
	}
	if diff := cmp.Diff(want, sink.Events()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Move, m.State())
}

func TestMachine_LostWhenTooFar(t *testing.T) {
	g := screen.DefaultGeometry()
	m := NewMachine(DefaultConfig())
	sink := NewMockSink()

	lost := run(m, g, MoveClick, sink, []sample{
		{centre, 0.12},
		{centre, 0.08},
		{centre, 0.11},
	})

	assert.Equal(t, []bool{true, false, true}, lost)
	assert.Equal(t, []EventKind{EventMove}, sink.Kinds())
	assert.Equal(t, Move, m.State())
}

func TestMachine_CapabilityGates(t *testing.T) {
	g := screen.DefaultGeometry()
	tap := []sample{
		{centre, 0.075},
		{centre, 0.001},
		{centre, 0.025},
		{centre, 0.05},
	}

	tests := []struct {
		caps Capability
		want []EventKind
	}{
		{Disabled, []EventKind{}},
		{MoveOnly, []EventKind{EventMove, EventMove, EventMove, EventMove}},
		{MoveClick, []EventKind{EventMove, EventMove, EventDown, EventUp}},
		{MoveScroll, []EventKind{EventMove, EventMove, EventMove, EventMove}},
	}

	for _, tt := range tests {
		t.Run(tt.caps.String(), func(t *testing.T) {
			m := NewMachine(DefaultConfig())
			sink := NewMockSink()

			run(m, g, tt.caps, sink, tap)

			assert.Equal(t, tt.want, sink.Kinds())
		})
	}
}

func TestMachine_ReleaseSurvivesCapabilityChange(t *testing.T) {
	g := screen.DefaultGeometry()
	m := NewMachine(DefaultConfig())
	sink := NewMockSink()

	run(m, g, MoveClick, sink, []sample{{centre, 0.001}})
	require.True(t, m.Pressed())

	run(m, g, Disabled, sink, []sample{{centre, 0.05}})

	assert.Equal(t, []EventKind{EventMove, EventDown, EventUp}, sink.Kinds())
	assert.False(t, m.Pressed())
}

func TestMachine_Scroll(t *testing.T) {
	g := screen.DefaultGeometry()
	m := NewMachine(DefaultConfig())
	sink := NewMockSink()
	strip := r2.Point{X: g.Right - 0.02, Y: 0}
	at := func(y float64) r2.Point { return r2.Point{X: strip.X, Y: y} }

	run(m, g, MoveScroll, sink, []sample{{strip, 0.001}})
	require.Equal(t, Scrolling, m.State())
	assert.Empty(t, sink.Events())

	run(m, g, MoveScroll, sink, []sample{
		{at(0.01), 0.01},  // inside the deadband
		{at(0.025), 0.01}, // up one tick
		{at(0.03), 0.01},  // inside the deadband again
		{at(0.0), 0.01},   // down one tick
		{at(-0.03), 0.05}, // lifted
	})

	want := []Event{
		{Kind: EventScroll, Delta: 1},
		{Kind: EventScroll, Delta: -1},
	}
	if diff := cmp.Diff(want, sink.Events()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Move, m.State())
}

func TestMachine_ScrollStripNeedsScrollCapability(t *testing.T) {
	g := screen.DefaultGeometry()
	m := NewMachine(DefaultConfig())
	sink := NewMockSink()
	strip := r2.Point{X: g.Right - 0.02, Y: 0}

	run(m, g, MoveClick, sink, []sample{{strip, 0.001}})

	assert.Equal(t, ButtonDown, m.State())
	assert.Equal(t, []EventKind{EventMove, EventDown}, sink.Kinds())
}

func TestMachine_ScrollCapabilityNeverClicks(t *testing.T) {
	g := screen.DefaultGeometry()
	m := NewMachine(DefaultConfig())
	sink := NewMockSink()

	run(m, g, MoveScroll, sink, []sample{
		{centre, 0.075},
		{centre, 0.001},
		{centre, 0.05},
	})

	for _, k := range sink.Kinds() {
		assert.NotEqual(t, EventDown, k)
		assert.NotEqual(t, EventUp, k)
	}
	assert.Len(t, sink.Kinds(), 3)
	assert.False(t, m.Pressed())
	assert.Equal(t, Move, m.State())
}

func TestMachine_Release(t *testing.T) {
	g := screen.DefaultGeometry()

	t.Run("pressed", func(t *testing.T) {
		m := NewMachine(DefaultConfig())
		sink := NewMockSink()
		run(m, g, MoveClick, sink, []sample{{centre, 0.001}})
		sink.Reset()

		m.Release(sink)

		assert.Equal(t, []EventKind{EventUp}, sink.Kinds())
		assert.Equal(t, Idle, m.State())
	})

	t.Run("hovering", func(t *testing.T) {
		m := NewMachine(DefaultConfig())
		sink := NewMockSink()
		run(m, g, MoveClick, sink, []sample{{centre, 0.05}})
		sink.Reset()

		m.Release(sink)

		assert.Empty(t, sink.Events())
		assert.Equal(t, Idle, m.State())
	})
}

func TestCapability(t *testing.T) {
	assert.Equal(t, MoveOnly, Disabled.Next())
	assert.Equal(t, MoveClick, MoveOnly.Next())
	assert.Equal(t, MoveScroll, MoveClick.Next())
	assert.Equal(t, Disabled, MoveScroll.Next())

	assert.False(t, Disabled.CanMove())
	assert.True(t, MoveOnly.CanMove())
	assert.False(t, MoveOnly.CanClick())
	assert.True(t, MoveClick.CanClick())
	assert.False(t, MoveClick.CanScroll())
	assert.False(t, MoveScroll.CanClick())
	assert.True(t, MoveScroll.CanScroll())

	for _, c := range []Capability{Disabled, MoveOnly, MoveClick, MoveScroll} {
		got, err := ParseCapability(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCapability("turbo")
	assert.Error(t, err)
}
