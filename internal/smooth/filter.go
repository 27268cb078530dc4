// Package smooth applies per-track exponential smoothing to lateral touch
// positions.
package smooth

import (
	"math"

	"github.com/golang/geo/r2"
)

// DefaultAlpha weights the newest sample in the fixed filter.
const DefaultAlpha = 0.2

// Config selects the smoothing coefficient.
type Config struct {
	Alpha float64
	// Adaptive scales alpha with the jump distance so fast moves catch up
	// quicker: alpha = min(1, AdaptiveGain*distance + AdaptiveFloor).
	Adaptive      bool
	AdaptiveGain  float64
	AdaptiveFloor float64
}

// DefaultConfig returns the fixed-alpha filter.
func DefaultConfig() Config {
	return Config{
		Alpha:         DefaultAlpha,
		AdaptiveGain:  10,
		AdaptiveFloor: 0.01,
	}
}

// Filter smooths one track. The zero value has no history.
type Filter struct {
	cfg  Config
	last r2.Point
	has  bool
}

// NewFilter returns a filter with no history.
func NewFilter(cfg Config) *Filter {
	return &Filter{cfg: cfg}
}

// Apply folds raw into the history and returns the smoothed position. The
// first sample after a reset is returned unchanged.
func (f *Filter) Apply(raw r2.Point) r2.Point {
	if !f.has {
		f.last, f.has = raw, true
		return raw
	}
	a := f.alpha(raw)
	f.last = raw.Mul(a).Add(f.last.Mul(1 - a))
	return f.last
}

func (f *Filter) alpha(raw r2.Point) float64 {
	a := f.cfg.Alpha
	if f.cfg.Adaptive {
		a = f.cfg.AdaptiveGain*raw.Sub(f.last).Norm() + f.cfg.AdaptiveFloor
	}
	return math.Max(0, math.Min(1, a))
}

// Reset clears the history.
func (f *Filter) Reset() {
	f.last, f.has = r2.Point{}, false
}

// Last returns the most recent smoothed position.
func (f *Filter) Last() (r2.Point, bool) {
	return f.last, f.has
}

// Bank holds one filter per track identity.
type Bank struct {
	filters []*Filter
}

// NewBank returns n filters sharing cfg.
func NewBank(n int, cfg Config) *Bank {
	b := &Bank{filters: make([]*Filter, n)}
	for i := range b.filters {
		b.filters[i] = NewFilter(cfg)
	}
	return b
}

// Apply smooths raw for track id.
func (b *Bank) Apply(id int, raw r2.Point) r2.Point {
	return b.filters[id].Apply(raw)
}

// Last returns the smoothed position of track id, if it has history.
func (b *Bank) Last(id int) (r2.Point, bool) {
	if id < 0 || id >= len(b.filters) {
		return r2.Point{}, false
	}
	return b.filters[id].Last()
}

// Reset clears the history of track id.
func (b *Bank) Reset(id int) {
	if id < 0 || id >= len(b.filters) {
		return
	}
	b.filters[id].Reset()
}

// ResetAll clears every track.
func (b *Bank) ResetAll() {
	for _, f := range b.filters {
		f.Reset()
	}
}
