package render

import (
	"io"

	"github.com/soypat/levelset"
	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle3 is a triangle in world space. Vertices are counter-clockwise
// when seen from outside the surface.
type Triangle3 struct {
	V [3]r3.Vec
}

// Normal returns the unit normal of the triangle following the right hand
// rule. Degenerate triangles return the zero vector.
func (t Triangle3) Normal() r3.Vec {
	n := r3.Triangle(t.V).Normal()
	l := r3.Norm(n)
	if l == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/l, n)
}

// Renderer streams triangles. ReadTriangles returns io.EOF once every
// triangle has been read.
type Renderer interface {
	ReadTriangles(t []Triangle3) (int, error)
}

type surfaceRenderer struct {
	pts   []r3.Vec
	faces [][3]int
}

// NewSurfaceRenderer returns a Renderer over the triangulated faces of s with
// winding reversed so normals point out of the surface.
func NewSurfaceRenderer(s levelset.Surface) Renderer {
	return &surfaceRenderer{pts: s.Points, faces: s.Triangulate()}
}

func (sr *surfaceRenderer) ReadTriangles(dst []Triangle3) (n int, err error) {
	if len(dst) == 0 {
		panic("cannot write to empty triangle slice")
	}
	for n < len(dst) && len(sr.faces) > 0 {
		f := sr.faces[0]
		sr.faces = sr.faces[1:]
		dst[n] = Triangle3{V: [3]r3.Vec{sr.pts[f[2]], sr.pts[f[1]], sr.pts[f[0]]}}
		n++
	}
	if len(sr.faces) == 0 {
		return n, io.EOF
	}
	return n, nil
}
