package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// FromTriangles builds an indexed mesh from a triangle soup. Corners closer
// than tol are welded into one vertex; the first corner seen gives the vertex
// its position. A tol of zero selects a tolerance of 1e-6 times the shortest
// non-zero edge length.
func FromTriangles(soup [][3]r3.Vec, tol float64) *Mesh {
	if tol <= 0 {
		tol = weldTolerance(soup)
	}
	corners := make(soupCorners, 0, 3*len(soup))
	for i, t := range soup {
		for k, v := range t {
			corners = append(corners, soupCorner{pos: v, id: 3*i + k})
		}
	}
	// kdtree.New reorders the slice it is given.
	tree := kdtree.New(append(soupCorners(nil), corners...), false)

	vertexOf := make([]int, len(corners))
	for i := range vertexOf {
		vertexOf[i] = -1
	}
	m := &Mesh{Triangles: make([][3]int, len(soup))}
	for _, c := range corners {
		if vertexOf[c.id] >= 0 {
			continue
		}
		vi := len(m.Vertices)
		m.Vertices = append(m.Vertices, c.pos)
		keep := kdtree.NewDistKeeper(tol * tol)
		tree.NearestSet(keep, c)
		vertexOf[c.id] = vi
		for _, found := range keep.Heap {
			other := found.Comparable.(soupCorner)
			if vertexOf[other.id] < 0 {
				vertexOf[other.id] = vi
			}
		}
	}
	for i := range soup {
		m.Triangles[i] = [3]int{vertexOf[3*i], vertexOf[3*i+1], vertexOf[3*i+2]}
	}
	return m
}

func weldTolerance(soup [][3]r3.Vec) float64 {
	shortest := math.Inf(1)
	for _, t := range soup {
		for k := 0; k < 3; k++ {
			if d := r3.Norm(r3.Sub(t[k], t[(k+1)%3])); d > 0 && d < shortest {
				shortest = d
			}
		}
	}
	if math.IsInf(shortest, 1) {
		return 1e-12
	}
	return 1e-6 * shortest
}

// soupCorner is a triangle corner stored in the welding k-d tree.
type soupCorner struct {
	pos r3.Vec
	id  int // 3*triangle + corner.
}

func (c soupCorner) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	o := b.(soupCorner)
	switch d {
	case 0:
		return c.pos.X - o.pos.X
	case 1:
		return c.pos.Y - o.pos.Y
	}
	return c.pos.Z - o.pos.Z
}

func (c soupCorner) Dims() int { return 3 }

func (c soupCorner) Distance(b kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(c.pos, b.(soupCorner).pos))
}

// soupCorners implements kdtree.Interface.
type soupCorners []soupCorner

func (s soupCorners) Index(i int) kdtree.Comparable { return s[i] }
func (s soupCorners) Len() int                      { return len(s) }
func (s soupCorners) Pivot(d kdtree.Dim) int {
	p := cornerPlane{dim: d, corners: s}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
func (s soupCorners) Slice(start, end int) kdtree.Interface { return s[start:end] }

type cornerPlane struct {
	dim     kdtree.Dim
	corners soupCorners
}

func (p cornerPlane) Len() int { return len(p.corners) }
func (p cornerPlane) Less(i, j int) bool {
	return p.corners[i].Compare(p.corners[j], p.dim) < 0
}
func (p cornerPlane) Swap(i, j int) { p.corners[i], p.corners[j] = p.corners[j], p.corners[i] }
func (p cornerPlane) Slice(start, end int) kdtree.SortSlicer {
	p.corners = p.corners[start:end]
	return p
}
