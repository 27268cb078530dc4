// Package tracker finds fingertip candidates in a depth frame and keeps their
// identities stable from frame to frame.
package tracker

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"

	"github.com/davidxiao93/TouchWall/internal/screen"
	"github.com/davidxiao93/TouchWall/internal/space"
)

// MaxTracks is the number of identity slots.
const MaxTracks = 4

// Mode selects between single-cursor and multi-touch scanning.
type Mode int

const (
	Single Mode = iota + 1
	Multi
)

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Multi:
		return "multi"
	default:
		return "unknown"
	}
}

// History exposes the last smoothed position of each identity.
type History interface {
	Last(id int) (r2.Point, bool)
	Reset(id int)
}

// Config holds the clustering and matching distances, in metres.
type Config struct {
	// ClusterDZ and ClusterDX are the per-axis distances under which a point
	// belongs to an existing cluster.
	ClusterDZ float64
	ClusterDX float64
	// MatchRadius bounds how far a track may move between frames and keep
	// its identity.
	MatchRadius float64
	// DensityRadius keeps single-mode candidates near the closest point.
	DensityRadius float64
	// NeighbourRadius and MinNeighbours reject isolated single-mode points.
	NeighbourRadius float64
	MinNeighbours   int
}

// DefaultConfig returns the stock distances.
func DefaultConfig() Config {
	return Config{
		ClusterDZ:       0.07,
		ClusterDX:       0.05,
		MatchRadius:     0.05,
		DensityRadius:   0.1,
		NeighbourRadius: 0.03,
		MinNeighbours:   1,
	}
}

// Detection is one tracked point in the current frame.
type Detection struct {
	ID    int
	Point space.SpacePoint
	// Fresh is set when the identity was assigned this frame and its history
	// was reset.
	Fresh bool
}

// Tracker scans frames for touch candidates. It keeps no per-track state of
// its own; identity continuity comes from the History passed to Scan.
type Tracker struct {
	cfg  Config
	mode Mode

	candidates []space.SpacePoint
	clusters   []space.Point3D
}

// New returns a tracker in single-cursor mode.
func New(cfg Config) *Tracker {
	return &Tracker{
		cfg:      cfg,
		mode:     Single,
		clusters: make([]space.Point3D, 0, MaxTracks),
	}
}

// Mode returns the scanning mode.
func (t *Tracker) Mode() Mode { return t.mode }

// SetMode switches between single-cursor and multi-touch scanning.
func (t *Tracker) SetMode(m Mode) { t.mode = m }

// Scan returns the detections for one frame ordered by identity.
func (t *Tracker) Scan(cloud space.Cloud, g screen.Geometry, h History) []Detection {
	if t.mode == Multi {
		return t.scanMulti(cloud, g, h)
	}
	return t.scanSingle(cloud, g, h)
}

func (t *Tracker) scanMulti(cloud space.Cloud, g screen.Geometry, h History) []Detection {
	t.clusters = t.clusters[:0]

	for i := len(cloud) - 1; i >= 0; i-- {
		p := cloud[i]
		if !p.Valid() || !g.Contains(p) || t.represented(p) {
			continue
		}
		if len(t.clusters) < MaxTracks {
			t.clusters = append(t.clusters, p)
			continue
		}
		// At the cap every later distinct point may still displace the
		// cluster farthest from the wall.
		far := 0
		for j := range t.clusters {
			if t.clusters[j].Y > t.clusters[far].Y {
				far = j
			}
		}
		if p.Y < t.clusters[far].Y {
			t.clusters[far] = p
		}
	}
	if len(t.clusters) == 0 {
		return nil
	}
	return t.assign(h)
}

func (t *Tracker) represented(p space.Point3D) bool {
	for _, c := range t.clusters {
		if math.Abs(p.Z-c.Z) < t.cfg.ClusterDZ && math.Abs(p.X-c.X) < t.cfg.ClusterDX {
			return true
		}
	}
	return false
}

// assign matches clusters to identities with history first, then hands the
// rest the lowest free slots.
func (t *Tracker) assign(h History) []Detection {
	owner := make([]int, len(t.clusters))
	for j := range owner {
		owner[j] = -1
	}
	var used [MaxTracks]bool

	for id := 0; id < MaxTracks; id++ {
		last, ok := h.Last(id)
		if !ok {
			continue
		}
		best, bestDist := -1, t.cfg.MatchRadius
		for j, c := range t.clusters {
			if owner[j] >= 0 {
				continue
			}
			if d := c.Lateral().Sub(last).Norm(); d < bestDist {
				best, bestDist = j, d
			}
		}
		if best >= 0 {
			owner[best] = id
			used[id] = true
		}
	}

	out := make([]Detection, 0, len(t.clusters))
	for j, c := range t.clusters {
		d := Detection{ID: owner[j], Point: space.SpacePoint{Point3D: c}}
		if d.ID < 0 {
			d.ID = lowestFree(&used)
			d.Fresh = true
			h.Reset(d.ID)
		}
		out = append(out, d)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func lowestFree(used *[MaxTracks]bool) int {
	for id := range used {
		if !used[id] {
			used[id] = true
			return id
		}
	}
	// Unreachable while clusters are capped at MaxTracks.
	return MaxTracks - 1
}

func (t *Tracker) scanSingle(cloud space.Cloud, g screen.Geometry, h History) []Detection {
	t.candidates = t.candidates[:0]
	closest := -1
	for _, p := range cloud {
		if !p.Valid() || !g.Contains(p) {
			continue
		}
		t.candidates = append(t.candidates, space.SpacePoint{Point3D: p})
		if closest < 0 || p.Y < t.candidates[closest].Y {
			closest = len(t.candidates) - 1
		}
	}
	if closest < 0 {
		return nil
	}

	centre := t.candidates[closest].Lateral()
	near := t.candidates[:0]
	for _, c := range t.candidates {
		if c.Lateral().Sub(centre).Norm() < t.cfg.DensityRadius {
			near = append(near, c)
		}
	}
	t.candidates = near
	sort.SliceStable(near, func(a, b int) bool { return near[a].Y < near[b].Y })

	for i := range near {
		near[i].Near = t.neighbours(near, i)
		if near[i].Near < t.cfg.MinNeighbours {
			continue
		}
		_, had := h.Last(0)
		if !had {
			h.Reset(0)
		}
		return []Detection{{ID: 0, Point: near[i], Fresh: !had}}
	}
	return nil
}

func (t *Tracker) neighbours(pts []space.SpacePoint, i int) int {
	origin := pts[i].Lateral()
	n := 0
	for j := range pts {
		if j != i && pts[j].Lateral().Sub(origin).Norm() < t.cfg.NeighbourRadius {
			n++
		}
	}
	return n
}
