package calibrate

import (
	"github.com/davidxiao93/TouchWall/internal/screen"
	"github.com/davidxiao93/TouchWall/internal/space"
)

// Config controls the candidate search.
type Config struct {
	// BackgroundTolerance is the per-axis distance a point must move away from
	// its reference sample to count as foreground.
	BackgroundTolerance float64
	// ColumnHalfWidth bounds X while searching for the left and right edges.
	ColumnHalfWidth float64
	MinDepth        float64
	MaxDepth        float64
	// MonotonicGuard rejects a left candidate at or beyond the committed right
	// edge and a bottom candidate at or above the committed top edge.
	MonotonicGuard bool
}

// DefaultConfig returns the stock search parameters.
func DefaultConfig() Config {
	return Config{
		BackgroundTolerance: 0.1,
		ColumnHalfWidth:     0.1,
		MinDepth:            0.5,
		MaxDepth:            8.0,
	}
}

// Result describes what a single Step did.
type Result struct {
	State     State
	Candidate space.Point3D
	Found     bool
	// Committed is set when this step wrote an edge.
	Committed screen.Edge
	Value     float64
	// Completed is set on the step that commits the bottom edge.
	Completed bool
}

// Calibrator walks the geometry through the edge-touch protocol. It is not
// safe for concurrent use.
type Calibrator struct {
	cfg       Config
	geometry  *screen.Geometry
	state     State
	latch     Latch
	memento   screen.Memento
	reference space.Cloud
}

// New returns an idle calibrator that writes edges into g.
func New(g *screen.Geometry, cfg Config) *Calibrator {
	return &Calibrator{cfg: cfg, geometry: g}
}

// State returns the current step.
func (c *Calibrator) State() State { return c.state }

// Latch returns the touch latch.
func (c *Calibrator) Latch() Latch { return c.latch }

// Active reports whether a calibration is in progress.
func (c *Calibrator) Active() bool { return c.state != Idle }

// Memento returns the edges captured by Begin.
func (c *Calibrator) Memento() screen.Memento { return c.memento }

// Begin snapshots the edges and waits for a reference frame. Calling it during
// a calibration restarts the flow from the original edges.
func (c *Calibrator) Begin() {
	if c.Active() {
		c.geometry.Restore(c.memento)
	} else {
		c.memento = c.geometry.Snapshot()
	}
	c.state = CapturingReference
	c.latch = Armed
	c.reference = nil
}

// Cancel rolls the edges back and returns to Idle. It reports false when
// there was nothing to cancel.
func (c *Calibrator) Cancel() bool {
	if !c.Active() {
		return false
	}
	c.geometry.Restore(c.memento)
	c.reset()
	return true
}

// Rollback restores the edges captured by the last Begin regardless of state.
// It is used when a completed calibration fails validation.
func (c *Calibrator) Rollback() {
	c.geometry.Restore(c.memento)
	c.reset()
}

func (c *Calibrator) reset() {
	c.state = Idle
	c.latch = Armed
	c.reference = nil
}

// Step feeds one frame into the protocol.
func (c *Calibrator) Step(cloud space.Cloud) Result {
	switch c.state {
	case Idle:
		return Result{State: Idle}
	case CapturingReference:
		c.reference = cloud.Clone()
		c.state = TouchRight
		return Result{State: c.state}
	}

	res := Result{State: c.state}
	cand, ok := c.candidate(cloud)
	if !ok {
		return res
	}
	res.Candidate, res.Found = cand, true

	switch {
	case c.latch == Armed && cand.Y < c.geometry.Down:
		c.latch = Triggered
	case c.latch == Triggered && cand.Y > c.geometry.Up:
		edge, next := c.state.edge()
		value := cand.Z
		if edge == screen.EdgeTop || edge == screen.EdgeBottom {
			value = cand.X
		}
		c.geometry.SetEdge(edge, value)
		c.latch = Armed
		c.state = next
		res.Committed, res.Value = edge, value
		if next == Idle {
			c.reference = nil
			res.Completed = true
		}
	}
	res.State = c.state
	return res
}

// candidate returns the foreground point closest to the wall that is eligible
// for the current step.
func (c *Calibrator) candidate(cloud space.Cloud) (space.Point3D, bool) {
	var best space.Point3D
	found := false
	g := c.geometry

	for i, p := range cloud {
		if !p.Valid() || p.Y <= 0 || p.Y >= g.Move {
			continue
		}
		if found && p.Y >= best.Y {
			continue
		}
		if !c.eligible(p) || !c.foreground(i, p) {
			continue
		}
		best, found = p, true
	}
	return best, found
}

func (c *Calibrator) eligible(p space.Point3D) bool {
	g := c.geometry
	switch c.state {
	case TouchRight, TouchLeft:
		if p.X <= -c.cfg.ColumnHalfWidth || p.X >= c.cfg.ColumnHalfWidth {
			return false
		}
		if p.Z <= c.cfg.MinDepth || p.Z >= c.cfg.MaxDepth {
			return false
		}
		if c.cfg.MonotonicGuard && c.state == TouchLeft && p.Z >= g.Right {
			return false
		}
		return true
	case TouchTop, TouchBottom:
		if p.Z <= g.Left || p.Z >= g.Right {
			return false
		}
		if c.cfg.MonotonicGuard && c.state == TouchBottom && p.X >= g.Top {
			return false
		}
		return true
	}
	return false
}

// foreground reports whether p moved away from the background sample at the
// same pixel. A pixel with no usable background sample is never foreground.
func (c *Calibrator) foreground(i int, p space.Point3D) bool {
	if i >= len(c.reference) {
		return false
	}
	ref := c.reference[i]
	if !ref.Valid() {
		return false
	}
	return p.DiffersBy(ref, c.cfg.BackgroundTolerance)
}
