package levelset

import (
	"slices"

	"github.com/soypat/levelset/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// collinearTol is the sine of the largest turn at an outline vertex that
// still counts as a straight continuation.
const collinearTol = 1e-6

// region is an edge connected set of coplanar quads.
type region struct {
	quads   []int // Ascending.
	normal  r3.Vec
	outline []int // Boundary loop in winding order.
	corners map[int]bool
}

// mergeCoplanar replaces each edge connected region of coplanar, equally
// oriented quads whose outline is a convex quadrilateral with one quad.
// Straight outline vertices are dropped only if every face using them is
// replaced too, so no T-junctions are introduced. The merged quad takes
// the position of the region's first quad.
func mergeCoplanar(s Surface, tol float64) Surface {
	if len(s.Quads) < 2 {
		return s
	}
	adj := make(map[[2]int][]int, 2*len(s.Quads))
	for qi, q := range s.Quads {
		for k := 0; k < 4; k++ {
			key := edgeKey(q[k], q[(k+1)%4])
			adj[key] = append(adj[key], qi)
		}
	}

	var regions []*region
	owner := make([]int, len(s.Quads))
	for i := range owner {
		owner[i] = -1
	}
	for seed := range s.Quads {
		if owner[seed] >= 0 {
			continue
		}
		n, d, ok := quadPlane(s.Points, s.Quads[seed], tol)
		if !ok {
			continue
		}
		r := &region{normal: n}
		owner[seed] = len(regions)
		stack := []int{seed}
		for len(stack) > 0 {
			qi := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			r.quads = append(r.quads, qi)
			q := s.Quads[qi]
			for k := 0; k < 4; k++ {
				for _, nb := range adj[edgeKey(q[k], q[(k+1)%4])] {
					if owner[nb] >= 0 || !onPlane(s.Points, s.Quads[nb], n, d, tol) {
						continue
					}
					if nn, _, ok := quadPlane(s.Points, s.Quads[nb], tol); !ok || r3.Dot(nn, n) <= 0 {
						continue
					}
					owner[nb] = len(regions)
					stack = append(stack, nb)
				}
			}
		}
		slices.Sort(r.quads)
		regions = append(regions, r)
	}

	accepted := make([]bool, len(regions))
	for ri, r := range regions {
		if len(r.quads) < 2 {
			continue
		}
		accepted[ri] = r.traceOutline(s) && r.findCorners(s.Points)
	}

	// Drop regions until every accepted outline keeps exactly four vertices.
	for {
		kept := make(map[int]bool)
		for qi, q := range s.Quads {
			if owner[qi] < 0 || !accepted[owner[qi]] {
				for _, v := range q {
					kept[v] = true
				}
			}
		}
		for _, t := range s.Triangles {
			for _, v := range t {
				kept[v] = true
			}
		}
		for ri, r := range regions {
			if accepted[ri] {
				for v := range r.corners {
					kept[v] = true
				}
			}
		}
		changed := false
		for ri, r := range regions {
			if !accepted[ri] {
				continue
			}
			poly := r.keptOutline(kept)
			if len(poly) != 4 || !convex(s.Points, poly, r.normal) {
				accepted[ri] = false
				changed = true
			}
		}
		if !changed {
			var quads [][4]int
			for qi, q := range s.Quads {
				ri := owner[qi]
				switch {
				case ri < 0 || !accepted[ri]:
					quads = append(quads, q)
				case regions[ri].quads[0] == qi:
					poly := regions[ri].keptOutline(kept)
					quads = append(quads, [4]int{poly[0], poly[1], poly[2], poly[3]})
				}
			}
			s.Quads = quads
			return s
		}
	}
}

// traceOutline finds the single boundary loop of the region. It reports
// false for regions with holes or pinched boundaries.
func (r *region) traceOutline(s Surface) bool {
	directed := make(map[[2]int]bool, 4*len(r.quads))
	for _, qi := range r.quads {
		q := s.Quads[qi]
		for k := 0; k < 4; k++ {
			directed[[2]int{q[k], q[(k+1)%4]}] = true
		}
	}
	next := make(map[int]int)
	start, count := -1, 0
	for _, qi := range r.quads {
		q := s.Quads[qi]
		for k := 0; k < 4; k++ {
			a, b := q[k], q[(k+1)%4]
			if directed[[2]int{b, a}] {
				continue
			}
			if _, dup := next[a]; dup {
				return false
			}
			next[a] = b
			count++
			if start < 0 || a < start {
				start = a
			}
		}
	}
	if count < 3 {
		return false
	}
	r.outline = r.outline[:0]
	for v := start; ; {
		r.outline = append(r.outline, v)
		n, ok := next[v]
		if !ok || len(r.outline) > count {
			return false
		}
		if v = n; v == start {
			break
		}
	}
	return len(r.outline) == count
}

// findCorners marks the outline vertices where the boundary turns.
func (r *region) findCorners(pts []r3.Vec) bool {
	r.corners = make(map[int]bool)
	n := len(r.outline)
	for i, v := range r.outline {
		prev := pts[r.outline[(i+n-1)%n]]
		next := pts[r.outline[(i+1)%n]]
		a := r3.Sub(pts[v], prev)
		b := r3.Sub(next, pts[v])
		if r3.Norm(r3.Cross(a, b)) > collinearTol*r3.Norm(a)*r3.Norm(b) || r3.Dot(a, b) <= 0 {
			r.corners[v] = true
		}
	}
	return len(r.corners) >= 3 && len(r.corners) <= 4
}

// keptOutline returns the outline vertices present in kept, in loop order
// starting from the lowest index.
func (r *region) keptOutline(kept map[int]bool) []int {
	var poly []int
	first := 0
	for _, v := range r.outline {
		if kept[v] {
			if len(poly) > 0 && v < poly[first] {
				first = len(poly)
			}
			poly = append(poly, v)
		}
	}
	return append(poly[first:], poly[:first]...)
}

// quadPlane returns the unit normal and offset of the plane of q. ok is
// false if q is degenerate or its vertices are farther than tol from the plane.
func quadPlane(pts []r3.Vec, q [4]int, tol float64) (n r3.Vec, d float64, ok bool) {
	var c r3.Vec
	for k := 0; k < 4; k++ {
		a, b := pts[q[k]], pts[q[(k+1)%4]]
		// Newell's method.
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
		c = r3.Add(c, a)
	}
	norm := r3.Norm(n)
	if norm == 0 {
		return n, 0, false
	}
	n = r3.Scale(1/norm, n)
	d = r3.Dot(n, r3.Scale(0.25, c))
	return n, d, onPlane(pts, q, n, d, tol)
}

func onPlane(pts []r3.Vec, q [4]int, n r3.Vec, d, tol float64) bool {
	for _, v := range q {
		if dist := r3.Dot(n, pts[v]) - d; dist > tol || dist < -tol {
			return false
		}
	}
	return true
}

// convex reports whether polygon poly turns the same way as n at every vertex.
func convex(pts []r3.Vec, poly []int, n r3.Vec) bool {
	for i := range poly {
		a := pts[poly[i]]
		b := pts[poly[(i+1)%len(poly)]]
		c := pts[poly[(i+2)%len(poly)]]
		turn := r3.Cross(r3.Sub(b, a), r3.Sub(c, b))
		if r3.Dot(turn, n) < -collinearTol*r3.Norm(r3.Sub(b, a))*r3.Norm(r3.Sub(c, b)) {
			return false
		}
	}
	return !d3.EqualWithin(pts[poly[0]], pts[poly[2]], 0)
}
