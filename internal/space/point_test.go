package space

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
)

func TestPoint3D_Valid(t *testing.T) {
	tests := []struct {
		name string
		p    Point3D
		want bool
	}{
		{"finite", Point3D{X: 0.1, Y: 0.02, Z: 0.7}, true},
		{"zero", Point3D{}, true},
		{"positive infinity", Point3D{X: math.Inf(1), Y: 0, Z: 0}, false},
		{"negative infinity", Point3D{X: 0, Y: 0, Z: math.Inf(-1)}, false},
		{"nan", Point3D{X: 0, Y: math.NaN(), Z: 0}, false},
		{"unknown", Unknown(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Valid())
		})
	}
}

func TestPoint3D_Lateral(t *testing.T) {
	p := Point3D{X: 0.1, Y: 0.02, Z: 0.7}

	assert.Equal(t, r2.Point{X: 0.7, Y: 0.1}, p.Lateral())

	moved := p.WithLateral(r2.Point{X: 0.8, Y: -0.05})
	assert.Equal(t, Point3D{X: -0.05, Y: 0.02, Z: 0.8}, moved)
}

func TestPoint3D_DiffersBy(t *testing.T) {
	ref := Point3D{X: 0, Y: 0.05, Z: 1}

	assert.False(t, ref.DiffersBy(ref, 0.1))
	assert.False(t, ref.DiffersBy(Point3D{X: 0.09, Y: 0.05, Z: 1.09}, 0.1))
	assert.True(t, ref.DiffersBy(Point3D{X: 0, Y: 0.05, Z: 1.2}, 0.1))
	assert.True(t, ref.DiffersBy(Point3D{X: -0.15, Y: 0.05, Z: 1}, 0.1))

	// A difference of exactly the tolerance counts.
	assert.True(t, ref.DiffersBy(Point3D{X: 0, Y: 0.05, Z: 1.125}, 0.125))
	assert.False(t, ref.DiffersBy(Point3D{X: 0, Y: 0.05, Z: 1.0625}, 0.125))
}

func TestCloud_ValidCount(t *testing.T) {
	c := Cloud{{X: 1}, Unknown(), {Y: 2}, {Z: math.NaN()}}

	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 2, c.ValidCount())

	clone := c.Clone()
	clone[0].X = 5
	assert.Equal(t, 1.0, c[0].X)
}
