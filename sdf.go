package levelset

import (
	"math"

	"github.com/soypat/levelset/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// SDF3 is the interface to a 3d signed distance function object.
type SDF3 interface {
	// Evaluate takes a point in 3D space as input and returns
	// the minimum distance of the SDF3 to the point. The distance
	// is negative if the point is contained within the SDF3.
	Evaluate(p r3.Vec) float64
	// Bounds returns the bounding box that completely contains
	// the SDF3.
	Bounds() r3.Box
}

var _ SDF3 = (*Grid)(nil)

// Evaluate returns the trilinearly interpolated grid value at world
// position p. A grid without a transform evaluates to NaN.
func (g *Grid) Evaluate(p r3.Vec) float64 {
	if g.xform == nil {
		return math.NaN()
	}
	q := g.xform.WorldToIndex(p)
	base := floorCoord(q)
	f := r3.Sub(q, base.Vec())
	var v [2][2][2]float64
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				v[i][j][k] = float64(g.Value(base.Add(Coord{i, j, k})))
			}
		}
	}
	lerp := func(a, b, t float64) float64 { return a + t*(b-a) }
	x00 := lerp(v[0][0][0], v[1][0][0], f.X)
	x10 := lerp(v[0][1][0], v[1][1][0], f.X)
	x01 := lerp(v[0][0][1], v[1][0][1], f.X)
	x11 := lerp(v[0][1][1], v[1][1][1], f.X)
	return lerp(lerp(x00, x10, f.Y), lerp(x01, x11, f.Y), f.Z)
}

// Bounds returns the world-space bounding box of the grid's leaves.
// The box is empty if the grid has no leaves.
func (g *Grid) Bounds() r3.Box {
	min, max, ok := g.IndexBounds()
	if !ok || g.xform == nil {
		return r3.Box{}
	}
	a := g.xform.CoordToWorld(min)
	b := g.xform.CoordToWorld(max)
	return r3.Box{Min: d3.MinElem(a, b), Max: d3.MaxElem(a, b)}
}
