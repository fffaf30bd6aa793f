package mesh

import (
	"bytes"
	"io"

	"github.com/chewxy/math32"
	"github.com/hschendel/stl"
	"github.com/soypat/levelset"
	"gonum.org/v1/gonum/spatial/r3"
)

// ReadSTL reads an ASCII or binary STL stream. STL stores a triangle soup
// so coincident corners are welded into shared vertices. Format detection
// rewinds the stream so readers that cannot seek are buffered first.
func ReadSTL(r io.Reader) (*Mesh, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, &levelset.IOError{Op: "read", Err: err}
		}
		rs = bytes.NewReader(data)
	}
	solid, err := stl.ReadAll(rs)
	if err != nil {
		return nil, &levelset.IOError{Op: "read", Err: err}
	}
	return fromSolid(solid)
}

func fromSolid(solid *stl.Solid) (*Mesh, error) {
	soup := make([][3]r3.Vec, len(solid.Triangles))
	for i, t := range solid.Triangles {
		for k, v := range t.Vertices {
			for _, c := range v {
				if math32.IsNaN(c) || math32.IsInf(c, 0) {
					return nil, &levelset.TopologyError{Face: i, Msg: "non-finite vertex coordinate"}
				}
			}
			soup[i][k] = r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
		}
	}
	return FromTriangles(soup, 0), nil
}
