// Package mesh reads triangle meshes from OBJ, OFF and STL files into
// an indexed vertex/triangle representation.
package mesh

import (
	"github.com/soypat/levelset"
	"github.com/soypat/levelset/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed triangle mesh. Triangles hold 0-based indices into
// Vertices.
type Mesh struct {
	Vertices  []r3.Vec
	Triangles [][3]int
}

// Validate checks that every triangle references existing vertices.
func (m *Mesh) Validate() error {
	for i, t := range m.Triangles {
		for _, v := range t {
			if v < 0 || v >= len(m.Vertices) {
				return &levelset.TopologyError{Face: i, Msg: "vertex index out of range"}
			}
		}
	}
	return nil
}

// Bounds returns the axis aligned bounding box of the vertices.
func (m *Mesh) Bounds() r3.Box {
	if len(m.Vertices) == 0 {
		return r3.Box{}
	}
	box := d3.EmptyBox()
	for _, v := range m.Vertices {
		box = box.Include(v)
	}
	return r3.Box(box)
}

// Normalization returns the centre of the bounding box and the uniform scale
// that maps its largest extent to one.
func (m *Mesh) Normalization() (center r3.Vec, scale float64) {
	box := d3.Box(m.Bounds())
	extent := d3.Max(box.Size())
	if extent == 0 {
		return box.Center(), 1
	}
	return box.Center(), 1 / extent
}

// Normalized returns a copy of the mesh centred on the origin with its
// largest bounding box extent scaled to one. The receiver is not modified.
func (m *Mesh) Normalized() *Mesh {
	center, scale := m.Normalization()
	out := &Mesh{
		Vertices:  make([]r3.Vec, len(m.Vertices)),
		Triangles: append([][3]int(nil), m.Triangles...),
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = r3.Scale(scale, r3.Sub(v, center))
	}
	return out
}

// Transform returns a copy of the mesh with every vertex mapped by fn.
func (m *Mesh) Transform(fn func(r3.Vec) r3.Vec) *Mesh {
	out := &Mesh{
		Vertices:  make([]r3.Vec, len(m.Vertices)),
		Triangles: append([][3]int(nil), m.Triangles...),
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = fn(v)
	}
	return out
}
