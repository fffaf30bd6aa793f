package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Feature identifies the part of a triangle a closest point lies on.
type Feature uint8

const (
	FeatureFace Feature = iota
	FeatureV0
	FeatureV1
	FeatureV2
	FeatureE01
	FeatureE12
	FeatureE20
)

// IsVertex reports whether f is one of the triangle's corners.
func (f Feature) IsVertex() bool { return f >= FeatureV0 && f <= FeatureV2 }

// IsEdge reports whether f is one of the triangle's edges.
func (f Feature) IsEdge() bool { return f >= FeatureE01 }

// Vertex returns the local vertex index (0..2) of a vertex feature.
func (f Feature) Vertex() int { return int(f - FeatureV0) }

// Edge returns the local vertex indices of an edge feature.
func (f Feature) Edge() (int, int) {
	switch f {
	case FeatureE01:
		return 0, 1
	case FeatureE12:
		return 1, 2
	case FeatureE20:
		return 2, 0
	}
	panic("d3: not an edge feature")
}

// Triangle is a 3D triangle.
type Triangle [3]r3.Vec

// Normal returns the unnormalized normal of the triangle. Its norm is
// twice the triangle area.
func (t Triangle) Normal() r3.Vec {
	return r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
}

// Degenerate reports whether the triangle has (nearly) zero area
// relative to the length of its longest edge.
func (t Triangle) Degenerate(tol float64) bool {
	e := math.Max(r3.Norm2(r3.Sub(t[1], t[0])), math.Max(r3.Norm2(r3.Sub(t[2], t[1])), r3.Norm2(r3.Sub(t[0], t[2]))))
	return e == 0 || r3.Norm(t.Normal()) <= tol*e
}

// Closest returns closest point on the triangle to argument point p
// and the triangle feature on which it lies.
// See Ericson, Real-Time Collision Detection, section 5.1.5.
func (t Triangle) Closest(p r3.Vec) (r3.Vec, Feature) {
	a, b, c := t[0], t[1], t[2]
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)
	d1 := r3.Dot(ab, ap)
	d2 := r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a, FeatureV0
	}
	bp := r3.Sub(p, b)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b, FeatureV1
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return r3.Add(a, r3.Scale(v, ab)), FeatureE01
	}
	cp := r3.Sub(p, c)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c, FeatureV2
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return r3.Add(a, r3.Scale(w, ac)), FeatureE20
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return r3.Add(b, r3.Scale(w, r3.Sub(c, b))), FeatureE12
	}
	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac))), FeatureFace
}
