package levelset

import (
	"math"
	"slices"

	"github.com/soypat/levelset/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Surface is a polygonal surface of quads and triangles sharing one
// vertex list. Faces are wound so that their right-handed normal points
// towards the inside of the volume they were extracted from; writers
// reverse the winding to produce outward facing polygons.
type Surface struct {
	Points    []r3.Vec
	Triangles [][3]int
	Quads     [][4]int
}

// Triangulate returns all faces as triangles, quads split along their
// first diagonal, quads first.
func (s Surface) Triangulate() [][3]int {
	tris := make([][3]int, 0, 2*len(s.Quads)+len(s.Triangles))
	for _, q := range s.Quads {
		tris = append(tris, [3]int{q[0], q[1], q[2]}, [3]int{q[0], q[2], q[3]})
	}
	return append(tris, s.Triangles...)
}

// ExtractParms configures surface extraction.
type ExtractParms struct {
	// Isovalue selects the level set to extract. Values below it are inside.
	Isovalue float64
	// NoMerge disables replacing coplanar quad regions with single quads.
	NoMerge bool
	// MaxQuadBend is the angle in radians between the halves of a quad
	// above which it is emitted as two triangles. Zero selects 60°.
	MaxQuadBend float64
	// PlanarTol is the distance in voxels under which vertices are taken
	// to lie on the same plane when merging. Zero selects 1e-4.
	PlanarTol float64
}

// VolumeToMesh extracts the isovalue level set of g as a quad dominant
// surface with default parameters.
func VolumeToMesh(g *Grid, isovalue float64) (Surface, error) {
	return VolumeToMeshParms(g, ExtractParms{Isovalue: isovalue})
}

// VolumeToMeshParms extracts a level set of g by dual contouring. Every
// lattice edge whose end values straddle the isovalue yields one face
// joining the vertices of the four cells around the edge. Each cell vertex
// minimises the distance to the tangent planes at the cell's edge crossings.
// The result is deterministic for a given grid and parameters.
func VolumeToMeshParms(g *Grid, parms ExtractParms) (Surface, error) {
	if g == nil {
		return Surface{}, configErrorf("volume to mesh: nil grid")
	}
	if g.xform == nil {
		return Surface{}, configErrorf("volume to mesh: grid %q has no transform", g.name)
	}
	bg := math.Abs(float64(g.background))
	if math.IsNaN(parms.Isovalue) || math.Abs(parms.Isovalue) >= bg {
		return Surface{}, configErrorf("volume to mesh: isovalue %g outside open interval (%g, %g)", parms.Isovalue, -bg, bg)
	}
	if parms.MaxQuadBend <= 0 {
		parms.MaxQuadBend = math.Pi / 3
	}
	if parms.PlanarTol <= 0 {
		parms.PlanarTol = 1e-4
	}
	x := &extractor{
		g:     g,
		iso:   parms.Isovalue,
		bend:  parms.MaxQuadBend,
		cells: make(map[Coord]int),
		weld:  make(map[r3.Vec]int),
		grads: make(map[Coord]r3.Vec),
	}
	for _, e := range x.signChangeEdges() {
		x.addEdgeFace(e)
	}
	surf := Surface{Points: x.points, Triangles: x.tris, Quads: x.quads}
	if !parms.NoMerge {
		surf = mergeCoplanar(surf, parms.PlanarTol*g.xform.VoxelSize())
	}
	return compact(surf), nil
}

// edge is the lattice edge from c to c+unit(axis).
type edge struct {
	c    Coord
	axis int
}

type extractor struct {
	g    *Grid
	iso  float64
	bend float64

	points []r3.Vec
	tris   [][3]int
	quads  [][4]int
	cells  map[Coord]int
	weld   map[r3.Vec]int
	grads  map[Coord]r3.Vec
	q      qef
}

func (x *extractor) inside(v float32) bool { return float64(v) < x.iso }

func (x *extractor) value(c Coord) float64 { return float64(x.g.Value(c)) }

// signChangeEdges returns every edge with at least one end in a leaf whose
// end values lie on opposite sides of the isovalue, sorted.
func (x *extractor) signChangeEdges() []edge {
	var edges []edge
	for l := range x.g.Leaves() {
		for i := 0; i < LeafVoxels; i++ {
			c := l.Coord(i)
			in := x.inside(l.values[i])
			for axis := 0; axis < 3; axis++ {
				if x.inside(x.g.Value(c.Add(unit(axis)))) != in {
					edges = append(edges, edge{c: c, axis: axis})
				}
				// Edges reaching in from a region without a leaf are only
				// seen from this side.
				prev := c.Sub(unit(axis))
				if x.g.leaves[prev.LeafOrigin()] == nil && x.inside(x.g.Value(prev)) != in {
					edges = append(edges, edge{c: prev, axis: axis})
				}
			}
		}
	}
	slices.SortFunc(edges, func(a, b edge) int {
		if c := compareCoord(a.c, b.c); c != 0 {
			return c
		}
		return a.axis - b.axis
	})
	return edges
}

// cellsAroundEdge lists the offsets in the two axes perpendicular to an
// edge of the four cells sharing it, counter clockwise about the edge axis.
var cellsAroundEdge = [4][2]int{{-1, -1}, {0, -1}, {0, 0}, {-1, 0}}

func (x *extractor) addEdgeFace(e edge) {
	b, d := (e.axis+1)%3, (e.axis+2)%3
	var q [4]int
	for k, o := range cellsAroundEdge {
		c := e.c
		c[b] += o[0]
		c[d] += o[1]
		q[k] = x.cellVertex(c)
	}
	if x.inside(x.g.Value(e.c)) {
		q[1], q[3] = q[3], q[1]
	}
	x.addQuad(q)
}

// addQuad emits q as a quad, as a triangle if two of its vertices were
// welded, or as two triangles if it is folded.
func (x *extractor) addQuad(q [4]int) {
	var uniq []int
	for k := 0; k < 4; k++ {
		if q[k] != q[(k+1)%4] {
			uniq = append(uniq, q[k])
		}
	}
	switch {
	case len(uniq) == 4 && q[0] != q[2] && q[1] != q[3]:
	case len(uniq) == 3 && uniq[0] != uniq[2]:
		x.tris = append(x.tris, [3]int{uniq[0], uniq[1], uniq[2]})
		return
	default:
		return
	}
	p := [4]r3.Vec{x.points[q[0]], x.points[q[1]], x.points[q[2]], x.points[q[3]]}
	bend02 := d3.Angle(d3.Triangle{p[0], p[1], p[2]}.Normal(), d3.Triangle{p[0], p[2], p[3]}.Normal())
	bend13 := d3.Angle(d3.Triangle{p[0], p[1], p[3]}.Normal(), d3.Triangle{p[1], p[2], p[3]}.Normal())
	switch {
	case math.Min(bend02, bend13) <= x.bend:
		x.quads = append(x.quads, q)
	case bend02 <= bend13:
		x.tris = append(x.tris, [3]int{q[0], q[1], q[2]}, [3]int{q[0], q[2], q[3]})
	default:
		x.tris = append(x.tris, [3]int{q[0], q[1], q[3]}, [3]int{q[1], q[2], q[3]})
	}
}

// cellVertex returns the index of the vertex of the cell with minimum
// corner c, computing it on first use. Cells whose vertices coincide share
// one index.
func (x *extractor) cellVertex(c Coord) int {
	if i, ok := x.cells[c]; ok {
		return i
	}
	p := x.g.xform.IndexToWorld(x.solveCell(c))
	i, ok := x.weld[p]
	if !ok {
		i = len(x.points)
		x.points = append(x.points, p)
		x.weld[p] = i
	}
	x.cells[c] = i
	return i
}

// solveCell places the vertex of cell c in index space.
func (x *extractor) solveCell(c Coord) r3.Vec {
	x.q.reset()
	for axis := 0; axis < 3; axis++ {
		b, d := (axis+1)%3, (axis+2)%3
		for k := 0; k < 4; k++ {
			c0 := c
			c0[b] += k & 1
			c0[d] += k >> 1
			c1 := c0.Add(unit(axis))
			v0, v1 := x.value(c0), x.value(c1)
			if (v0 < x.iso) == (v1 < x.iso) {
				continue
			}
			t := (x.iso - v0) / (v1 - v0)
			p := c0.Vec()
			switch axis {
			case 0:
				p.X += t
			case 1:
				p.Y += t
			default:
				p.Z += t
			}
			g0, g1 := x.gradient(c0), x.gradient(c1)
			x.q.add(p, r3.Add(g0, r3.Scale(t, r3.Sub(g1, g0))))
		}
	}
	v := x.q.solve(0.1)
	lo, hi := c.Vec(), c.AddScalar(1).Vec()
	if !(d3.Box{Min: lo, Max: hi}).Contains(v) {
		v = x.q.massPoint()
	}
	return v
}

// gradient estimates the grid gradient at c with minmod limited one sided
// differences so that kinks of the distance field do not smear normals.
func (x *extractor) gradient(c Coord) r3.Vec {
	if g, ok := x.grads[c]; ok {
		return g
	}
	v := x.value(c)
	var g [3]float64
	for axis := range g {
		fwd := x.value(c.Add(unit(axis))) - v
		bwd := v - x.value(c.Sub(unit(axis)))
		g[axis] = minmod(fwd, bwd)
	}
	grad := r3.Vec{X: g[0], Y: g[1], Z: g[2]}
	x.grads[c] = grad
	return grad
}

func minmod(a, b float64) float64 {
	switch {
	case a*b <= 0:
		return 0
	case math.Abs(a) < math.Abs(b):
		return a
	}
	return b
}

// compact removes unreferenced points keeping the order of the rest.
func compact(s Surface) Surface {
	used := make([]bool, len(s.Points))
	for _, q := range s.Quads {
		for _, v := range q {
			used[v] = true
		}
	}
	for _, t := range s.Triangles {
		for _, v := range t {
			used[v] = true
		}
	}
	remap := make([]int, len(s.Points))
	var points []r3.Vec
	for i, p := range s.Points {
		if used[i] {
			remap[i] = len(points)
			points = append(points, p)
		}
	}
	out := Surface{Points: points}
	if len(s.Quads) > 0 {
		out.Quads = make([][4]int, len(s.Quads))
		for i, q := range s.Quads {
			out.Quads[i] = [4]int{remap[q[0]], remap[q[1]], remap[q[2]], remap[q[3]]}
		}
	}
	if len(s.Triangles) > 0 {
		out.Triangles = make([][3]int, len(s.Triangles))
		for i, t := range s.Triangles {
			out.Triangles[i] = [3]int{remap[t[0]], remap[t[1]], remap[t[2]]}
		}
	}
	return out
}
