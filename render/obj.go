package render

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/soypat/levelset"
)

// OBJParms configures Wavefront OBJ output.
type OBJParms struct {
	// Triangles also writes triangle faces. By default only quads are
	// written, matching the historical output of the volume converter.
	Triangles bool
}

// WriteOBJ writes the quads of s as a Wavefront OBJ stream.
func WriteOBJ(w io.Writer, s levelset.Surface) error {
	return WriteOBJParms(w, s, OBJParms{})
}

// WriteOBJParms writes s as a Wavefront OBJ stream. Face winding is reversed
// with respect to s so face normals point out of the surface.
func WriteOBJParms(w io.Writer, s levelset.Surface, parms OBJParms) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#output from volume grid\n")
	fmt.Fprintf(bw, "#vertices: %d\n", len(s.Points))
	fmt.Fprintf(bw, "#quad: %d\n", len(s.Quads))
	fmt.Fprintf(bw, "#tris: %d\n", len(s.Triangles))
	for _, p := range s.Points {
		fmt.Fprintf(bw, "v %g %g %g\n", p.X, p.Y, p.Z)
	}
	bw.WriteByte('\n')
	for _, q := range s.Quads {
		fmt.Fprintf(bw, "f %d %d %d %d\n", q[3]+1, q[2]+1, q[1]+1, q[0]+1)
	}
	if parms.Triangles {
		for _, t := range s.Triangles {
			fmt.Fprintf(bw, "f %d %d %d\n", t[2]+1, t[1]+1, t[0]+1)
		}
	}
	return bw.Flush()
}

// CreateOBJ writes the quads of s to a Wavefront OBJ file at path.
func CreateOBJ(path string, s levelset.Surface) error {
	return CreateOBJParms(path, s, OBJParms{})
}

// CreateOBJParms writes s to a Wavefront OBJ file at path.
func CreateOBJParms(path string, s levelset.Surface, parms OBJParms) error {
	fp, err := os.Create(path)
	if err != nil {
		return &levelset.IOError{Op: "open", Path: path, Err: err}
	}
	err = WriteOBJParms(fp, s, parms)
	if cerr := fp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &levelset.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
