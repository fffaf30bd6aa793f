package levelset

import (
	"fmt"
	"math"
	"runtime"
	"slices"

	"github.com/soypat/levelset/internal/d3"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// degenerateTol is the relative area below which triangles are ignored.
const degenerateTol = 1e-12

// MeshToLevelSet converts a closed, consistently oriented triangle mesh
// into a narrow-band signed distance grid. points are in world space and
// triangles index into points. halfWidth is the band half-width in voxels;
// the returned grid's background is halfWidth*xform.VoxelSize().
//
// Degenerate triangles are skipped. Out of range indices return a
// *TopologyError, a nil transform or halfWidth below one a *ConfigurationError.
func MeshToLevelSet(xform *Transform, points []r3.Vec, triangles [][3]int, halfWidth float64) (*Grid, error) {
	if xform == nil {
		return nil, configErrorf("mesh to level set: nil transform")
	}
	if !(halfWidth >= 1) || math.IsInf(halfWidth, 0) {
		return nil, configErrorf("mesh to level set: half width must be at least 1 voxel, got %g", halfWidth)
	}
	for i, t := range triangles {
		for _, v := range t {
			if v < 0 || v >= len(points) {
				return nil, &TopologyError{Face: i, Msg: fmt.Sprintf("vertex index %d out of range [0,%d)", v, len(points))}
			}
		}
	}
	b := newBuilder(xform, points, triangles, halfWidth)
	for ti := range b.tris {
		if !b.skip[ti] {
			b.rasterize(ti)
		}
	}
	return b.finish()
}

// scratchLeaf records the closest triangle distance per voxel of a leaf.
type scratchLeaf struct {
	dist2  [LeafVoxels]float64
	set    [LeafVoxels / 64]uint64
	inside [LeafVoxels / 64]uint64
}

func (s *scratchLeaf) isSet(i int) bool    { return s.set[i>>6]&(1<<(i&63)) != 0 }
func (s *scratchLeaf) isInside(i int) bool { return s.inside[i>>6]&(1<<(i&63)) != 0 }

type builder struct {
	xform   *Transform
	hw      float64
	pts     []r3.Vec // Index space.
	tris    [][3]int
	skip    []bool
	normals *pseudoNormals
	scratch map[Coord]*scratchLeaf

	lastOrigin Coord
	last       *scratchLeaf
}

func newBuilder(xform *Transform, points []r3.Vec, triangles [][3]int, halfWidth float64) *builder {
	b := &builder{
		xform:   xform,
		hw:      halfWidth,
		pts:     make([]r3.Vec, len(points)),
		tris:    triangles,
		skip:    make([]bool, len(triangles)),
		scratch: make(map[Coord]*scratchLeaf),
	}
	for i, p := range points {
		b.pts[i] = xform.WorldToIndex(p)
	}
	for ti := range triangles {
		b.skip[ti] = b.triangle(ti).Degenerate(degenerateTol)
	}
	b.normals = newPseudoNormals(b.pts, triangles, b.skip)
	return b
}

func (b *builder) triangle(ti int) d3.Triangle {
	t := b.tris[ti]
	return d3.Triangle{b.pts[t[0]], b.pts[t[1]], b.pts[t[2]]}
}

// rasterize visits every voxel within the band of triangle ti and records
// the distance where it improves on the nearest triangle seen so far.
func (b *builder) rasterize(ti int) {
	tri := b.triangle(ti)
	n := r3.Unit(tri.Normal())
	hw2 := b.hw * b.hw
	box := d3.EmptyBox().Include(tri[0]).Include(tri[1]).Include(tri[2])
	lo := ceilCoord(r3.Sub(box.Min, d3.Elem(b.hw)))
	hi := floorCoord(r3.Add(box.Max, d3.Elem(b.hw)))
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				c := Coord{x, y, z}
				p := c.Vec()
				if math.Abs(r3.Dot(r3.Sub(p, tri[0]), n)) > b.hw {
					continue
				}
				cp, f := tri.Closest(p)
				d := r3.Sub(p, cp)
				d2 := r3.Norm2(d)
				if d2 > hw2 {
					continue
				}
				s, i := b.scratchAt(c)
				if s.isSet(i) && d2 >= s.dist2[i] {
					continue
				}
				s.dist2[i] = d2
				s.set[i>>6] |= 1 << (i & 63)
				if r3.Dot(d, b.normals.normal(ti, b.tris[ti], f)) < 0 {
					s.inside[i>>6] |= 1 << (i & 63)
				} else {
					s.inside[i>>6] &^= 1 << (i & 63)
				}
			}
		}
	}
}

func (b *builder) scratchAt(c Coord) (*scratchLeaf, int) {
	origin := c.LeafOrigin()
	if b.last == nil || origin != b.lastOrigin {
		s := b.scratch[origin]
		if s == nil {
			s = new(scratchLeaf)
			b.scratch[origin] = s
		}
		b.last, b.lastOrigin = s, origin
	}
	return b.last, offset(c)
}

// finish converts the scratch leaves into grid leaves in parallel and
// classifies the leaf-free regions as inside or outside.
func (b *builder) finish() (*Grid, error) {
	voxel := b.xform.VoxelSize()
	bg := float32(b.hw * voxel)
	grid := NewGrid(bg)
	grid.xform = b.xform
	grid.SetClass(ClassLevelSet)

	origins := make([]Coord, 0, len(b.scratch))
	for origin := range b.scratch {
		origins = append(origins, origin)
	}
	slices.SortFunc(origins, compareCoord)
	leaves := make([]*Leaf, len(origins))
	for i, origin := range origins {
		leaves[i] = newLeaf(origin, bg)
		grid.leaves[origin] = leaves[i]
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range leaves {
		g.Go(func() error {
			finishLeaf(leaves[i], b.scratch[origins[i]], voxel, bg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	floodTiles(grid)
	return grid, nil
}

// finishLeaf writes the recorded distances as active voxels and gives
// the remaining voxels of the leaf the background value signed like their
// nearest recorded neighbour.
func finishLeaf(l *Leaf, s *scratchLeaf, voxel float64, bg float32) {
	var sign [LeafVoxels]int8
	queue := make([]int, 0, LeafVoxels)
	for i := 0; i < LeafVoxels; i++ {
		if !s.isSet(i) {
			continue
		}
		d := math.Sqrt(s.dist2[i]) * voxel
		sign[i] = 1
		if s.isInside(i) {
			d, sign[i] = -d, -1
		}
		l.SetValueOn(i, float32(d))
		queue = append(queue, i)
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		forLeafNeighbors(i, func(j int) {
			if sign[j] == 0 {
				sign[j] = sign[i]
				queue = append(queue, j)
			}
		})
	}
	for i := 0; i < LeafVoxels; i++ {
		if !s.isSet(i) {
			l.SetValueOff(i, float32(sign[i])*bg)
		}
	}
}

// forLeafNeighbors calls fn with the offsets of the face neighbours of
// offset i that lie in the same leaf.
func forLeafNeighbors(i int, fn func(j int)) {
	const mask = LeafDim - 1
	for axis := 0; axis < 3; axis++ {
		shift := (2 - axis) * leafLog2
		pos := (i >> shift) & mask
		if pos > 0 {
			fn(i - 1<<shift)
		}
		if pos < mask {
			fn(i + 1<<shift)
		}
	}
}
