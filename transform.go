package levelset

import (
	"math"

	"github.com/soypat/levelset/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform maps voxel index space to world space with a uniform scale
// and a translation. A Transform is immutable once created.
type Transform struct {
	voxel  float64
	origin r3.Vec
	fwd    d3.Transform
	inv    d3.Transform
}

// NewLinearTransform returns a transform with the given voxel size whose
// index origin maps to the world origin.
func NewLinearTransform(voxelSize float64) (*Transform, error) {
	return NewTransform(voxelSize, r3.Vec{})
}

// NewTransform returns a transform with the given voxel size where index
// (0,0,0) maps to origin in world space.
func NewTransform(voxelSize float64, origin r3.Vec) (*Transform, error) {
	if !(voxelSize > 0) || math.IsInf(voxelSize, 0) {
		return nil, configErrorf("voxel size must be positive and finite, got %g", voxelSize)
	}
	return &Transform{
		voxel:  voxelSize,
		origin: origin,
		fwd:    d3.Linear(voxelSize, origin),
		inv:    d3.LinearInv(voxelSize, origin),
	}, nil
}

// VoxelSize returns the world-space edge length of a voxel.
func (t *Transform) VoxelSize() float64 { return t.voxel }

// Origin returns the world position of index (0,0,0).
func (t *Transform) Origin() r3.Vec { return t.origin }

// IndexToWorld maps a continuous index-space position to world space.
func (t *Transform) IndexToWorld(p r3.Vec) r3.Vec { return t.fwd.Transform(p) }

// WorldToIndex maps a world-space position to continuous index space.
func (t *Transform) WorldToIndex(p r3.Vec) r3.Vec { return t.inv.Transform(p) }

// CoordToWorld returns the world position of a voxel centre.
func (t *Transform) CoordToWorld(c Coord) r3.Vec { return t.fwd.Transform(c.Vec()) }

// WorldToCoord returns the voxel whose centre is nearest to p.
func (t *Transform) WorldToCoord(p r3.Vec) Coord {
	i := t.WorldToIndex(p)
	return Coord{roundInt(i.X), roundInt(i.Y), roundInt(i.Z)}
}

// Equal reports whether both transforms map index space identically.
func (t *Transform) Equal(b *Transform) bool {
	if t == nil || b == nil {
		return t == b
	}
	return t.voxel == b.voxel && t.origin == b.origin
}

func floorInt(x float64) int { return int(math.Floor(x)) }
func ceilInt(x float64) int  { return int(math.Ceil(x)) }
func roundInt(x float64) int { return int(math.Floor(x + 0.5)) }
