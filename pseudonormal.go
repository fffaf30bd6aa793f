package levelset

import (
	"github.com/soypat/levelset/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// pseudoNormals holds angle-weighted pseudo normals of a triangle mesh.
// The sign of dot(p-c, n) where c is the closest surface point to p and n
// the pseudo normal of the feature c lies on tells inside from outside.
// See Bærentzen and Aanæs, Signed Distance Computation Using the
// Angle Weighted Pseudonormal.
type pseudoNormals struct {
	face   []r3.Vec
	vertex []r3.Vec
	edge   map[[2]int]r3.Vec
}

func newPseudoNormals(pts []r3.Vec, tris [][3]int, skip []bool) *pseudoNormals {
	pn := &pseudoNormals{
		face:   make([]r3.Vec, len(tris)),
		vertex: make([]r3.Vec, len(pts)),
		edge:   make(map[[2]int]r3.Vec, 3*len(tris)/2),
	}
	for ti, t := range tris {
		if skip[ti] {
			continue
		}
		n := r3.Unit(d3.Triangle{pts[t[0]], pts[t[1]], pts[t[2]]}.Normal())
		pn.face[ti] = n
		for k := 0; k < 3; k++ {
			a, b, c := t[k], t[(k+1)%3], t[(k+2)%3]
			angle := d3.Angle(r3.Sub(pts[b], pts[a]), r3.Sub(pts[c], pts[a]))
			pn.vertex[a] = r3.Add(pn.vertex[a], r3.Scale(angle, n))
			key := edgeKey(a, b)
			pn.edge[key] = r3.Add(pn.edge[key], n)
		}
	}
	return pn
}

// normal returns the pseudo normal of feature f of triangle ti.
func (pn *pseudoNormals) normal(ti int, t [3]int, f d3.Feature) r3.Vec {
	switch {
	case f.IsVertex():
		return pn.vertex[t[f.Vertex()]]
	case f.IsEdge():
		i, j := f.Edge()
		return pn.edge[edgeKey(t[i], t[j])]
	}
	return pn.face[ti]
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
