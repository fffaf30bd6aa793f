package levelset

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// qef accumulates the quadratic error function of a set of planes given
// by points and normals. Its minimiser is the point closest in the least
// squares sense to all planes.
type qef struct {
	points  []r3.Vec
	normals []r3.Vec
	sum     r3.Vec
}

func (q *qef) reset() {
	q.points = q.points[:0]
	q.normals = q.normals[:0]
	q.sum = r3.Vec{}
}

// add adds the plane through p with normal n. A zero normal contributes
// only to the mass point.
func (q *qef) add(p, n r3.Vec) {
	q.points = append(q.points, p)
	q.sum = r3.Add(q.sum, p)
	if norm := r3.Norm(n); norm > 0 {
		q.normals = append(q.normals, r3.Scale(1/norm, n))
	} else {
		q.normals = append(q.normals, r3.Vec{})
	}
}

// massPoint returns the mean of the added points.
func (q *qef) massPoint() r3.Vec {
	if len(q.points) == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/float64(len(q.points)), q.sum)
}

// solve returns the minimiser of the error function closest to the mass
// point. Eigenvalues of AᵀA below tol times the largest are treated as
// zero so under-determined directions stay at the mass point.
func (q *qef) solve(tol float64) r3.Vec {
	m := q.massPoint()
	ata := mat.NewSymDense(3, nil)
	var atb r3.Vec
	for i, n := range q.normals {
		if n == (r3.Vec{}) {
			continue
		}
		ata.SymRankOne(ata, 1, mat.NewVecDense(3, []float64{n.X, n.Y, n.Z}))
		atb = r3.Add(atb, r3.Scale(r3.Dot(n, r3.Sub(q.points[i], m)), n))
	}
	var es mat.EigenSym
	if !es.Factorize(ata, true) {
		return m
	}
	vals := es.Values(nil)
	largest := 0.0
	for _, v := range vals {
		largest = max(largest, v)
	}
	if largest <= 0 {
		return m
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	x := m
	for k, v := range vals {
		if v <= tol*largest {
			continue
		}
		e := r3.Vec{X: vecs.At(0, k), Y: vecs.At(1, k), Z: vecs.At(2, k)}
		x = r3.Add(x, r3.Scale(r3.Dot(e, atb)/v, e))
	}
	return x
}
