package mesh

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/soypat/levelset"
	"gonum.org/v1/gonum/spatial/r3"
)

// ReadOBJ reads vertices and faces of a Wavefront OBJ stream. Texture and
// normal references of face corners are ignored. Faces with other than three
// corners are rejected.
func ReadOBJ(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, readErrorf("obj line %d: vertex needs 3 coordinates", line)
			}
			var xyz [3]float64
			for i := range xyz {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, readErrorf("obj line %d: %w", line, err)
				}
				xyz[i] = f
			}
			m.Vertices = append(m.Vertices, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		case "f":
			face := len(m.Triangles)
			corners := fields[1:]
			if len(corners) != 3 {
				return nil, &levelset.TopologyError{Face: face, Count: len(corners)}
			}
			var t [3]int
			for i, c := range corners {
				idx, err := objIndex(c, len(m.Vertices))
				if err != nil {
					return nil, readErrorf("obj line %d: %w", line, err)
				}
				if idx < 0 || idx >= len(m.Vertices) {
					return nil, &levelset.TopologyError{Face: face, Msg: "vertex " + c + " not defined"}
				}
				t[i] = idx
			}
			m.Triangles = append(m.Triangles, t)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &levelset.IOError{Op: "read", Err: err}
	}
	return m, nil
}

// objIndex converts a face corner such as "7", "7/1" or "-1//3" to a 0-based
// vertex index. Negative indices count back from the last vertex read.
func objIndex(corner string, nverts int) (int, error) {
	if i := strings.IndexByte(corner, '/'); i >= 0 {
		corner = corner[:i]
	}
	idx, err := strconv.Atoi(corner)
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		return nverts + idx, nil
	}
	return idx - 1, nil
}
